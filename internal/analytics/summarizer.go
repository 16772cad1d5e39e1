// =============================================================================
// Cost Profiler - Summarizer
// =============================================================================
//
// The summarizer turns the monthly aggregates into one profile per
// (company id, program):
//
//   AvgAll / Avg3Mo / Avg12Mo  - means over all, last 3 and last 12 months
//   Std3Mo / Std12Mo           - population standard deviation of the windows
//   CV3Mo / CV12Mo             - std / mean, divisor 1 when the mean is 0
//   GrowthRatio                - Avg3Mo / Avg12Mo, divisor 1 when Avg12Mo is 0
//   Seasonality                - detrended amplitude / trend level
//
// Trailing windows count the months present in the data, not calendar
// months: a group with a gap still uses its last 3 recorded months.
//
// =============================================================================

package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/taopa/costprofiler/internal/types"
)

// DateRangeLayout renders the months of a date range, e.g. "Jan-24".
const DateRangeLayout = "Jan-06"

// monthPoint is one month of a group's series.
type monthPoint struct {
	month time.Time
	sum   decimal.Decimal
}

// series collects the months of one (company id, program) group.
type series struct {
	name   string
	points map[time.Time]decimal.Decimal
}

// Summarize derives one profile per distinct (company id, program) pair.
//
// Aggregates sharing a month within a group are summed. When a company id
// carries more than one name, the lexically smallest name is reported.
// Profiles are ordered by company id, then program.
func Summarize(aggregates []types.MonthlyAggregate) []types.CompanyProgramProfile {
	groups := make(map[types.GroupKey]*series)

	for _, a := range aggregates {
		key := types.GroupKey{CompanyID: a.CompanyID, Program: a.Program}

		s, ok := groups[key]
		if !ok {
			s = &series{name: a.CompanyName, points: make(map[time.Time]decimal.Decimal)}
			groups[key] = s
		}
		if a.CompanyName < s.name {
			s.name = a.CompanyName
		}

		month := MonthStart(a.Month)
		s.points[month] = s.points[month].Add(a.MonthlySum)
	}

	keys := make([]types.GroupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	profiles := make([]types.CompanyProgramProfile, 0, len(keys))
	for _, key := range keys {
		s := groups[key]
		profiles = append(profiles, summarizeGroup(key, s.name, s.sorted()))
	}

	return profiles
}

// sorted returns the group's months in ascending order.
func (s *series) sorted() []monthPoint {
	points := make([]monthPoint, 0, len(s.points))
	for month, sum := range s.points {
		points = append(points, monthPoint{month: month, sum: sum})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].month.Before(points[j].month)
	})
	return points
}

// summarizeGroup computes the profile of one non-empty, month-sorted group.
func summarizeGroup(key types.GroupKey, name string, points []monthPoint) types.CompanyProgramProfile {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.sum.InexactFloat64()
	}

	last3 := trailing(values, shortWindow)
	last12 := trailing(values, longWindow)

	avgAll := mean(values)
	avg3 := mean(last3)
	avg12 := mean(last12)

	std3 := populationStdDev(last3)
	std12 := populationStdDev(last12)

	return types.CompanyProgramProfile{
		CompanyID:   key.CompanyID,
		CompanyName: name,
		Program:     key.Program,
		DateRange:   FormatDateRange(points[0].month, points[len(points)-1].month),
		Months:      len(points),
		AvgAll:      avgAll,
		Avg3Mo:      avg3,
		Avg12Mo:     avg12,
		Std3Mo:      std3,
		Std12Mo:     std12,
		CV3Mo:       SafeDivide(std3, avg3, 1),
		CV12Mo:      SafeDivide(std12, avg12, 1),
		GrowthRatio: SafeDivide(avg3, avg12, 1),
		Seasonality: seasonality(values),
	}
}

// FormatDateRange renders "Jan-24 to May-25".
func FormatDateRange(first, last time.Time) string {
	return fmt.Sprintf("%s to %s", first.Format(DateRangeLayout), last.Format(DateRangeLayout))
}
