package api

import (
	"fmt"
	"net/http"
	"time"

	"repairbase/config"
	"repairbase/db"
	"repairbase/report"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// statsRange parses the from/to query parameters. Missing values default
// to the last 30 days ending today.
func statsRange(c *gin.Context) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' date '%s', expected YYYY-MM-DD", raw)
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(layout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' date '%s', expected YYYY-MM-DD", raw)
		}
		// Include the whole end day.
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("'to' must not be before 'from'")
	}
	return from, to, nil
}

// GetStatsHandler returns the shop's revenue statistics.
// @Summary      Get Revenue Statistics
// @Description  Aggregates the shop's repair orders created in the given range (default: last 30 days). Revenue counts only orders in status "fertig" or "abgeholt"; cancelled orders never contribute. Ranges up to 31 days are bucketed per day, longer ranges per month.
// @Tags         Stats
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "Range start (YYYY-MM-DD)." example(2026-01-01)
// @Param        to   query string false "Range end, inclusive (YYYY-MM-DD)." example(2026-01-31)
// @Success      200  {object}  report.Aggregate "Totals, revenue by status and the bucketed series."
// @Failure      400  {object}  utils.APIError "Malformed date or inverted range."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /stats [get]
func GetStatsHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	from, to, err := statsRange(c)
	if err != nil {
		utils.GinBadRequest(c, err.Error())
		return
	}

	orders := database.GetRepairOrdersByShop(shopID)
	c.JSON(http.StatusOK, report.Compute(orders, from, to))
}

// ExportStatsHandler downloads the revenue statistics as a spreadsheet.
// @Summary      Export Revenue Statistics
// @Description  Same aggregation as the JSON endpoint, rendered as an XLSX workbook with summary cells and a revenue bar chart.
// @Tags         Stats
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        from query string false "Range start (YYYY-MM-DD)."
// @Param        to   query string false "Range end, inclusive (YYYY-MM-DD)."
// @Success      200  {file}    file "The workbook."
// @Failure      400  {object}  utils.APIError "Malformed date or inverted range."
// @Failure      500  {object}  utils.APIError "Workbook generation failed."
// @Router       /stats/export [get]
func ExportStatsHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	from, to, err := statsRange(c)
	if err != nil {
		utils.GinBadRequest(c, err.Error())
		return
	}

	shopName := ""
	if shop, found := database.GetShopByID(shopID); found {
		shopName = shop.Name
	}

	agg := report.Compute(database.GetRepairOrdersByShop(shopID), from, to)
	workbook, err := report.BuildWorkbook(agg, shopName)
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to build workbook: %v", err))
		return
	}

	filename := fmt.Sprintf("umsatzbericht_%s_%s.xlsx", from.Format("2006-01-02"), to.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}
