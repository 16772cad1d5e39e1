package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopa/costprofiler/internal/types"
)

// monthlySeries builds one aggregate per amount, starting at January 2024.
func monthlySeries(companyID, program string, amounts ...float64) []types.MonthlyAggregate {
	out := make([]types.MonthlyAggregate, len(amounts))
	start := month(2024, time.January)
	for i, amount := range amounts {
		out[i] = types.MonthlyAggregate{
			CompanyID:   companyID,
			CompanyName: "Company " + companyID,
			Program:     program,
			Month:       start.AddDate(0, i, 0),
			MonthlySum:  decimal.NewFromFloat(amount),
		}
	}
	return out
}

func repeat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestSummarize_LastMonthSpike(t *testing.T) {
	amounts := append(repeat(100, 11), 200)

	profiles := Summarize(monthlySeries("C1", "P1", amounts...))
	require.Len(t, profiles, 1)
	p := profiles[0]

	assert.Equal(t, 12, p.Months)
	assert.InDelta(t, 1300.0/12.0, p.Avg12Mo, 1e-9)
	assert.InDelta(t, 400.0/3.0, p.Avg3Mo, 1e-9)
	assert.InDelta(t, (400.0/3.0)/(1300.0/12.0), p.GrowthRatio, 1e-9)
	assert.InDelta(t, 1.23, p.GrowthRatio, 0.005)
	assert.Equal(t, p.AvgAll, p.Avg12Mo)
	assert.Equal(t, "Jan-24 to Dec-24", p.DateRange)
}

func TestSummarize_ProgramsAreIndependent(t *testing.T) {
	aggregates := append(
		monthlySeries("C1", "Netvisor", 100, 100, 100),
		monthlySeries("C1", "Fennoa", 10, 20, 30, 40)...,
	)

	profiles := Summarize(aggregates)
	require.Len(t, profiles, 2)

	// Sorted by program within the company.
	fennoa, netvisor := profiles[0], profiles[1]
	require.Equal(t, "Fennoa", fennoa.Program)
	require.Equal(t, "Netvisor", netvisor.Program)

	assert.Equal(t, 100.0, netvisor.AvgAll)
	assert.Equal(t, 0.0, netvisor.Std3Mo)
	assert.Equal(t, 3, netvisor.Months)

	assert.InDelta(t, 25.0, fennoa.AvgAll, 1e-9)
	assert.InDelta(t, 30.0, fennoa.Avg3Mo, 1e-9)
	assert.Equal(t, 4, fennoa.Months)
}

func TestSummarize_ConstantSixMonths(t *testing.T) {
	profiles := Summarize(monthlySeries("C1", "P1", repeat(50, 6)...))
	require.Len(t, profiles, 1)

	assert.Equal(t, 0.0, profiles[0].Seasonality)
	assert.Equal(t, 50.0, profiles[0].AvgAll)
	assert.Equal(t, 1.0, profiles[0].GrowthRatio)
}

func TestSummarize_NegativeMonthsFlowThrough(t *testing.T) {
	profiles := Summarize(monthlySeries("C1", "P1", -100, 200, 200))
	require.Len(t, profiles, 1)

	assert.InDelta(t, 100.0, profiles[0].AvgAll, 1e-9)
	assert.Equal(t, profiles[0].AvgAll, profiles[0].Avg3Mo)
}

func TestSummarize_SingleMonth(t *testing.T) {
	profiles := Summarize(monthlySeries("C1", "P1", 75))
	require.Len(t, profiles, 1)
	p := profiles[0]

	assert.Equal(t, 75.0, p.AvgAll)
	assert.Equal(t, 75.0, p.Avg3Mo)
	assert.Equal(t, 75.0, p.Avg12Mo)
	assert.Equal(t, 0.0, p.Std3Mo)
	assert.Equal(t, 0.0, p.Std12Mo)
	assert.Equal(t, 0.0, p.CV3Mo)
	assert.Equal(t, 0.0, p.CV12Mo)
	assert.Equal(t, 1.0, p.GrowthRatio)
	assert.Equal(t, 0.0, p.Seasonality)
	assert.Equal(t, "Jan-24 to Jan-24", p.DateRange)
}

func TestSummarize_ExactlyThreeMonths(t *testing.T) {
	profiles := Summarize(monthlySeries("C1", "P1", 10, 20, 60))
	require.Len(t, profiles, 1)
	p := profiles[0]

	assert.Equal(t, p.Avg3Mo, p.Avg12Mo)
	assert.Equal(t, p.AvgAll, p.Avg3Mo)
	assert.Equal(t, p.Std3Mo, p.Std12Mo)
	assert.Equal(t, 1.0, p.GrowthRatio)
}

func TestSummarize_WindowCorrectness(t *testing.T) {
	for n := 1; n <= 24; n++ {
		t.Run(fmt.Sprintf("%d months", n), func(t *testing.T) {
			amounts := make([]float64, n)
			for i := range amounts {
				amounts[i] = float64((i*37)%11) * 12.5
			}

			p := Summarize(monthlySeries("C1", "P1", amounts...))[0]
			if n <= 3 {
				assert.Equal(t, p.AvgAll, p.Avg3Mo)
			}
			if n <= 12 {
				assert.Equal(t, p.AvgAll, p.Avg12Mo)
			} else {
				assert.InDelta(t, mean(amounts[n-12:]), p.Avg12Mo, 1e-9)
			}
		})
	}
}

func TestSummarize_SumInvariant(t *testing.T) {
	amounts := []float64{120.5, 99.9, -20, 310.25, 0, 87.75, 150, 150, 42.1, 18, 77, 300, 12}

	p := Summarize(monthlySeries("C1", "P1", amounts...))[0]

	var total float64
	for _, a := range amounts {
		total += a
	}
	assert.InDelta(t, total, p.AvgAll*float64(p.Months), 1e-9)
}

func TestSummarize_ZeroGuard(t *testing.T) {
	p := Summarize(monthlySeries("C1", "P1", -30, 10, 10, 10))[0]

	require.Equal(t, 0.0, p.Avg12Mo)
	assert.Equal(t, p.Avg3Mo, p.GrowthRatio)
	assert.Equal(t, p.Std12Mo, p.CV12Mo)
}

func TestSummarize_Volatility(t *testing.T) {
	p := Summarize(monthlySeries("C1", "P1", 100, 100, 100, 50, 100, 150))[0]

	// Last three: 50, 100, 150 -> mean 100, population std sqrt(5000/3).
	assert.InDelta(t, 100.0, p.Avg3Mo, 1e-9)
	assert.InDelta(t, 40.824829, p.Std3Mo, 1e-6)
	assert.InDelta(t, 0.40824829, p.CV3Mo, 1e-8)
}

func TestSummarize_UnsortedInputAndSharedMonths(t *testing.T) {
	aggregates := []types.MonthlyAggregate{
		{CompanyID: "C1", CompanyName: "Acme Oy", Program: "P", Month: month(2024, time.March), MonthlySum: decimal.NewFromInt(30)},
		{CompanyID: "C1", CompanyName: "ACME", Program: "P", Month: month(2024, time.January), MonthlySum: decimal.NewFromInt(4)},
		{CompanyID: "C1", CompanyName: "Acme Oy", Program: "P", Month: month(2024, time.January), MonthlySum: decimal.NewFromInt(6)},
		{CompanyID: "C1", CompanyName: "Acme Oy", Program: "P", Month: month(2024, time.February), MonthlySum: decimal.NewFromInt(20)},
	}

	profiles := Summarize(aggregates)
	require.Len(t, profiles, 1)
	p := profiles[0]

	assert.Equal(t, "ACME", p.CompanyName)
	assert.Equal(t, 3, p.Months)
	assert.InDelta(t, 20.0, p.AvgAll, 1e-9)
	assert.Equal(t, "Jan-24 to Mar-24", p.DateRange)
}

func TestSummarize_Idempotent(t *testing.T) {
	records := []types.TransactionRecord{
		record("C2", "Beta", "Fennoa", month(2024, time.January), "12.50"),
		record("C1", "Acme", "Netvisor", month(2024, time.March), "40"),
		record("C1", "Acme", "Netvisor", month(2024, time.January), "10"),
		record("C1", "Acme", "Netvisor", month(2024, time.February), "25.25"),
		record("C2", "Beta", "Fennoa", month(2024, time.February), "-3"),
	}

	first := Summarize(Aggregate(records))
	second := Summarize(Aggregate(records))

	assert.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "C1", first[0].CompanyID)
	assert.Equal(t, "C2", first[1].CompanyID)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}

func TestFormatDateRange(t *testing.T) {
	got := FormatDateRange(month(2024, time.January), month(2025, time.May))
	assert.Equal(t, "Jan-24 to May-25", got)
}
