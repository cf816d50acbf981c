// Package analysis derives every view of the readiness table.
//
// All functions are pure: they read a *models.Table and return value types from
// the models package. Nothing here caches or mutates.
//
// The summary view classifies a base as a low outlier when
//
//	readiness < mean - sd
//
// and as a high outlier when readiness > mean + sd, both strict. sd is the
// sample standard deviation (divide by n-1) unless the population variant is
// requested.
//
// The explorer view fits readiness ≈ a·maintenance + b·personnel + c by ordinary
// least squares and samples the plane on an evenly spaced grid.
//
// The extremes view ranks bases by readiness with a stable sort so ties keep
// file order.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/readiness/internal/models"
)

// Min returns the smallest value, or 0 for empty input
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

// Max returns the largest value, or 0 for empty input
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// Mean returns the arithmetic mean. It is NaN for empty input; use MeanOrZero
// where an empty group must report 0.
func Mean(values []float64) float64 {
	return stat.Mean(values, nil)
}

// MeanOrZero returns the mean, or 0 when values is empty
func MeanOrZero(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Mean(values)
}

// Median returns the middle value of the sorted input. For an even count it is
// the average of the two middle values. Returns 0 for empty input.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// StdDevSample is the Bessel-corrected standard deviation (divide by n-1).
// Fewer than two values yield 0.
func StdDevSample(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// StdDevPopulation is the standard deviation dividing by n. Empty input yields 0.
func StdDevPopulation(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	_, sd := stat.PopMeanStdDev(values, nil)
	return sd
}

// Mode returns the most frequent value. Ties go to the value seen first.
// Empty input yields models.NotAvailable.
func Mode(values []string) string {
	if len(values) == 0 {
		return models.NotAvailable
	}

	counts := make(map[string]int, len(values))
	maxCount := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > maxCount {
			maxCount = counts[v]
		}
	}
	for _, v := range values {
		if counts[v] == maxCount {
			return v
		}
	}
	return models.NotAvailable
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
