// Package report derives chart-ready summaries from transaction lists.
//
// Every function is pure: inputs are never mutated and results depend only
// on the arguments. Month labels are computed in an explicit location so
// that the same data yields the same buckets on every server.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
)

// MonthLayout formats month bucket labels, e.g. "Jan 2024".
const MonthLayout = "Jan 2006"

// MonthOrder selects how Summary.Months is ordered.
type MonthOrder string

const (
	MonthOrderChronological MonthOrder = "chronological"
	MonthOrderLexical       MonthOrder = "lexical"
)

// ParseMonthOrder maps a query value to a MonthOrder. Empty means
// chronological.
func ParseMonthOrder(value string) (MonthOrder, bool) {
	switch MonthOrder(value) {
	case "", MonthOrderChronological:
		return MonthOrderChronological, true
	case MonthOrderLexical:
		return MonthOrderLexical, true
	default:
		return "", false
	}
}

// Options controls calendar-dependent aggregation.
type Options struct {
	// Location is the timezone used to assign transactions to months.
	// Nil means UTC.
	Location *time.Location

	// MonthOrder orders the month axis of a Summary. The zero value is
	// chronological.
	MonthOrder MonthOrder
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

// MonthLabel returns the month bucket for t, and false when t is the zero
// time. Undated transactions are left out of month-based aggregations.
func (o Options) MonthLabel(t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	return t.In(o.location()).Format(MonthLayout), true
}

// CategoryTotal is the summed expense amount for one category.
type CategoryTotal struct {
	ID       int             `json:"id"`
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Color    string          `json:"color,omitempty"`
}

// CategorySeries holds one category's expenses keyed by month label.
type CategorySeries struct {
	Color string                     `json:"color,omitempty"`
	Data  map[string]decimal.Decimal `json:"data"`
}

// TotalByType sums the amounts of transactions of the given type.
func TotalByType(txs []models.Transaction, typ models.TransactionType) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == typ {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// GroupByCategory totals expenses per category. Categories appear in the
// order they are first encountered; unknown categories carry no color.
func GroupByCategory(txs []models.Transaction) []CategoryTotal {
	result := []CategoryTotal{}
	index := make(map[models.Category]int)

	for _, tx := range txs {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		if i, ok := index[tx.Category]; ok {
			result[i].Total = result[i].Total.Add(tx.Amount)
			continue
		}
		index[tx.Category] = len(result)
		result = append(result, CategoryTotal{
			ID:       len(result),
			Category: tx.Category,
			Total:    tx.Amount,
			Color:    ColorFor(tx.Category),
		})
	}
	return result
}

// GroupByMonth sums transactions of the given type per month label.
// Map iteration order is unspecified; use MonthKeys for a display order.
func GroupByMonth(txs []models.Transaction, typ models.TransactionType, opts Options) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		label, ok := opts.MonthLabel(tx.Date)
		if !ok {
			continue
		}
		result[label] = result[label].Add(tx.Amount)
	}
	return result
}

// GroupByCategoryAndMonth sums expenses per category and month, attaching
// each category's display color.
func GroupByCategoryAndMonth(txs []models.Transaction, opts Options) map[models.Category]*CategorySeries {
	result := make(map[models.Category]*CategorySeries)
	for _, tx := range txs {
		if tx.Type != models.TransactionTypeExpense {
			continue
		}
		label, ok := opts.MonthLabel(tx.Date)
		if !ok {
			continue
		}
		series, exists := result[tx.Category]
		if !exists {
			series = &CategorySeries{
				Color: ColorFor(tx.Category),
				Data:  make(map[string]decimal.Decimal),
			}
			result[tx.Category] = series
		}
		series.Data[label] = series.Data[label].Add(tx.Amount)
	}
	return result
}

// MonthKeys returns the union of month labels across groups in calendar
// order. Plain string sorting would put "Apr 2024" before "Jan 2024" and
// interleave years; labels are parsed back to dates and compared instead.
// Labels that do not parse sort last, lexically.
func MonthKeys(groups ...map[string]decimal.Decimal) []string {
	seen := make(map[string]struct{})
	keys := []string{}
	for _, group := range groups {
		for label := range group {
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			keys = append(keys, label)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		ti, errI := time.Parse(MonthLayout, keys[i])
		tj, errJ := time.Parse(MonthLayout, keys[j])
		switch {
		case errI != nil && errJ != nil:
			return keys[i] < keys[j]
		case errI != nil:
			return false
		case errJ != nil:
			return true
		default:
			return ti.Before(tj)
		}
	})
	return keys
}

// SortMonthLabelsLexically sorts labels as plain strings, the order older
// dashboard builds relied on. It returns a sorted copy. Build uses it for
// MonthOrderLexical.
func SortMonthLabelsLexically(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.Strings(out)
	return out
}
