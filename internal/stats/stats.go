// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeyFort Contributors

// Package stats is a pure numeric aggregator. It is a collaborator of the
// auth authority, not part of its security contract.
package stats

// Summary holds the aggregate statistics for a numeric sequence.
// Variance is nil when mathematically undefined (fewer than two values).
type Summary struct {
	Total    float64  `json:"total"`
	Average  float64  `json:"average"`
	Variance *float64 `json:"variance"`
	Count    int      `json:"count"`
}

// Summarize computes total, average, sample variance, and count for the
// given values. The empty sequence yields the zero Summary; a single value
// yields a nil variance.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	var total float64
	for _, v := range values {
		total += v
	}
	average := total / float64(len(values))

	summary := Summary{
		Total:   total,
		Average: average,
		Count:   len(values),
	}

	if len(values) < 2 {
		return summary
	}

	var squaredDiffs float64
	for _, v := range values {
		d := v - average
		squaredDiffs += d * d
	}
	// Sample variance: n-1 denominator.
	variance := squaredDiffs / float64(len(values)-1)
	summary.Variance = &variance

	return summary
}
