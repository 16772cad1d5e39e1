// =============================================================================
// Cost Profiler - Aggregator
// =============================================================================
//
// The aggregator folds cleaned line items into one monthly total per
// (company id, company name, program, month). Duplicate keys are summed, never
// kept apart. Sums are exact decimals; the conversion to float64 happens in
// the summarizer.
//
// =============================================================================

package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taopa/costprofiler/internal/types"
)

// aggregateKey is the composite grouping key of the first pass.
type aggregateKey struct {
	CompanyID   string
	CompanyName string
	Program     string
	Month       time.Time
}

// Aggregate groups records by (company id, company name, program, month) and
// sums their amounts. It performs no validation: records are expected to be
// cleaned already.
//
// The result is ordered by company id, program, month and company name.
func Aggregate(records []types.TransactionRecord) []types.MonthlyAggregate {
	sums := make(map[aggregateKey]decimal.Decimal, len(records))

	for _, r := range records {
		key := aggregateKey{
			CompanyID:   r.CompanyID,
			CompanyName: r.CompanyName,
			Program:     r.Program,
			Month:       MonthStart(r.Month),
		}
		sums[key] = sums[key].Add(r.Amount)
	}

	result := make([]types.MonthlyAggregate, 0, len(sums))
	for key, sum := range sums {
		result = append(result, types.MonthlyAggregate{
			CompanyID:   key.CompanyID,
			CompanyName: key.CompanyName,
			Program:     key.Program,
			Month:       key.Month,
			MonthlySum:  sum,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		if a.Program != b.Program {
			return a.Program < b.Program
		}
		if !a.Month.Equal(b.Month) {
			return a.Month.Before(b.Month)
		}
		return a.CompanyName < b.CompanyName
	})

	return result
}

// MonthStart truncates t to the first day of its month at midnight UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
