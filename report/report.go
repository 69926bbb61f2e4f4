// Package report aggregates repair-order revenue into chart-ready series
// and renders them as spreadsheet exports.
package report

import (
	"fmt"
	"sort"
	"time"

	"repairbase/models"
)

// monthNames maps time.Month indices (1-based) to the German month labels
// used in exports and the monthly series.
var monthNames = [13]string{"",
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

// Bucketing values for the active revenue series.
const (
	BucketDay   = "day"
	BucketMonth = "month"
)

// maxDayBucketRange is the widest range still bucketed per day. Anything
// longer switches to the monthly series.
const maxDayBucketRange = 31 * 24 * time.Hour

// Bucket is one bar of the revenue series.
type Bucket struct {
	Label        string `json:"label"`
	RevenueCents int64  `json:"revenue_cents"`
}

// Aggregate is the revenue summary of one shop and date range.
type Aggregate struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	Bucketing         string           `json:"bucketing"` // BucketDay or BucketMonth
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	OrderCount        int              `json:"order_count"`
	AverageCents      int64            `json:"average_cents"`
	ByStatus          map[string]int64 `json:"by_status"` // Quoted volume per status
	Series            []Bucket         `json:"series"`
}

// revenueCounts reports whether an order's quote counts as realized
// revenue. Only finished and picked-up repairs do; cancelled orders never.
func revenueCounts(status string) bool {
	return status == models.StatusDone || status == models.StatusPickedUp
}

// Compute aggregates the orders created inside [from, to] into revenue by
// status and a time-bucketed series. The bucketing is presentation policy:
// ranges up to 31 days use a per-day series, longer ranges per-month with
// the fixed month-name table.
func Compute(orders []models.RepairOrder, from, to time.Time) Aggregate {
	agg := Aggregate{
		From:      from,
		To:        to,
		Bucketing: BucketDay,
		ByStatus:  make(map[string]int64),
	}
	if to.Sub(from) > maxDayBucketRange {
		agg.Bucketing = BucketMonth
	}

	buckets := make(map[string]int64)
	bucketOrder := make(map[string]int64) // label -> sortable stamp

	for _, order := range orders {
		created := order.CreationDate
		if created.Before(from) || created.After(to) {
			continue
		}

		agg.OrderCount++
		agg.ByStatus[order.Status] += order.QuoteCents

		if !revenueCounts(order.Status) {
			continue
		}
		agg.TotalRevenueCents += order.QuoteCents

		var label string
		var stamp int64
		if agg.Bucketing == BucketDay {
			label = created.Format("02.01.2006")
			stamp = created.Truncate(24 * time.Hour).Unix()
		} else {
			label = fmt.Sprintf("%s %d", monthNames[created.Month()], created.Year())
			stamp = int64(created.Year())*100 + int64(created.Month())
		}
		buckets[label] += order.QuoteCents
		bucketOrder[label] = stamp
	}

	if agg.OrderCount > 0 {
		agg.AverageCents = agg.TotalRevenueCents / int64(agg.OrderCount)
	}

	agg.Series = make([]Bucket, 0, len(buckets))
	for label, revenue := range buckets {
		agg.Series = append(agg.Series, Bucket{Label: label, RevenueCents: revenue})
	}
	sort.Slice(agg.Series, func(i, j int) bool {
		return bucketOrder[agg.Series[i].Label] < bucketOrder[agg.Series[j].Label]
	})

	return agg
}

// MonthName returns the German label for a month, or an empty string for an
// index outside 1..12.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month]
}
