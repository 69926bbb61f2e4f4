package report

import (
	"bytes"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"
)

const reportSheet = "Umsatzbericht"

// BuildWorkbook renders an aggregate as an XLSX workbook with a header
// band, summary cells and the bucketed revenue series plus a bar chart.
// A failure while adding the chart is logged and the rest of the workbook
// is still returned; only structural write errors abort the export.
func BuildWorkbook(agg Aggregate, shopName string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("WARN: Closing report workbook failed: %v", err)
		}
	}()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		log.Printf("WARN: Removing default sheet failed: %v", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create label style: %w", err)
	}

	// Header band: title, shop and the reported range.
	title := "Umsatzbericht"
	if shopName != "" {
		title = fmt.Sprintf("Umsatzbericht – %s", shopName)
	}
	setCell(f, "A1", title)
	f.SetCellStyle(reportSheet, "A1", "A1", headerStyle)
	setCell(f, "A2", fmt.Sprintf("Zeitraum: %s bis %s",
		agg.From.Format("02.01.2006"), agg.To.Format("02.01.2006")))

	// Summary cells.
	setCell(f, "A4", "Gesamtumsatz")
	setCell(f, "B4", euros(agg.TotalRevenueCents))
	setCell(f, "A5", "Aufträge")
	setCell(f, "B5", agg.OrderCount)
	setCell(f, "A6", "Durchschnitt je Auftrag")
	setCell(f, "B6", euros(agg.AverageCents))
	f.SetCellStyle(reportSheet, "A4", "A6", boldStyle)

	// Series rows below the summary block.
	const seriesStart = 8
	setCell(f, fmt.Sprintf("A%d", seriesStart), "Zeitraum")
	setCell(f, fmt.Sprintf("B%d", seriesStart), "Umsatz (EUR)")
	f.SetCellStyle(reportSheet,
		fmt.Sprintf("A%d", seriesStart), fmt.Sprintf("B%d", seriesStart), boldStyle)
	for i, bucket := range agg.Series {
		row := seriesStart + 1 + i
		setCell(f, fmt.Sprintf("A%d", row), bucket.Label)
		setCell(f, fmt.Sprintf("B%d", row), euros(bucket.RevenueCents))
	}

	if len(agg.Series) > 0 {
		lastRow := seriesStart + len(agg.Series)
		chart := &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$%d", reportSheet, seriesStart),
				Categories: fmt.Sprintf("%s!$A$%d:$A$%d", reportSheet, seriesStart+1, lastRow),
				Values:     fmt.Sprintf("%s!$B$%d:$B$%d", reportSheet, seriesStart+1, lastRow),
			}},
			Title: []excelize.RichTextRun{{Text: "Umsatz"}},
		}
		if err := f.AddChart(reportSheet, "D4", chart); err != nil {
			log.Printf("WARN: Adding revenue chart failed, exporting without it: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write report workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, cell string, value any) {
	if err := f.SetCellValue(reportSheet, cell, value); err != nil {
		log.Printf("WARN: Setting report cell %s failed: %v", cell, err)
	}
}

// euros converts a cent amount to a float euro value for spreadsheet cells.
func euros(cents int64) float64 {
	return float64(cents) / 100
}
