package analytics

import (
	"github.com/montanaflynn/stats"
)

const (
	// shortWindow and longWindow are the trailing window sizes, in months.
	shortWindow = 3
	longWindow  = 12

	// seasonalWindow is the width of the centered moving average used to
	// estimate the trend; seasonalMinPeriods is how many populated slots a
	// window needs before it yields a value.
	seasonalWindow     = 12
	seasonalMinPeriods = 6
)

// SafeDivide returns numerator / denominator, substituting fallback for the
// denominator when it is exactly zero.
//
// This is used for the coefficient of variation and the growth ratio. With a
// zero mean and a fallback of 1 the "ratio" is the numerator itself, which is
// not a true coefficient of variation.
func SafeDivide(numerator, denominator, fallback float64) float64 {
	if denominator == 0 {
		denominator = fallback
	}
	return numerator / denominator
}

// trailing returns the last n values, or all of them when fewer exist.
func trailing(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// populationStdDev divides by len(values), not len(values)-1. A single value
// has a deviation of 0.
func populationStdDev(values []float64) float64 {
	sd, err := stats.StandardDeviationPopulation(values)
	if err != nil {
		return 0
	}
	return sd
}

// centeredMovingAverage computes a rolling mean whose window of width
// `window` is centered on each point: window/2 points before it, the point
// itself and the remaining window-window/2-1 points after it. Windows are
// clipped at the series edges and only produce a value when at least
// minPeriods points fall inside; defined[i] reports whether ma[i] is set.
//
// Each window is summed on its own as offsets from its first point, so a
// flat stretch averages to exactly its value.
func centeredMovingAverage(values []float64, window, minPeriods int) (ma []float64, defined []bool) {
	n := len(values)
	ma = make([]float64, n)
	defined = make([]bool, n)

	before := window / 2
	after := window - before - 1

	for i := 0; i < n; i++ {
		lo := max(0, i-before)
		hi := min(n-1, i+after)
		count := hi - lo + 1
		if count < minPeriods {
			continue
		}

		ref := values[lo]
		var offset float64
		for _, v := range values[lo : hi+1] {
			offset += v - ref
		}
		ma[i] = ref + offset/float64(count)
		defined[i] = true
	}

	return ma, defined
}

// seasonality returns the amplitude of the detrended series relative to the
// trend level. When no moving-average value is defined the amplitude is 0
// and so is the result.
func seasonality(values []float64) float64 {
	ma, defined := centeredMovingAverage(values, seasonalWindow, seasonalMinPeriods)

	var components, trend []float64
	for i, ok := range defined {
		if !ok {
			continue
		}
		components = append(components, values[i]-ma[i])
		trend = append(trend, ma[i])
	}

	if len(components) == 0 {
		return 0
	}

	hi, _ := stats.Max(components)
	lo, _ := stats.Min(components)

	return SafeDivide(hi-lo, mean(trend), 1)
}
