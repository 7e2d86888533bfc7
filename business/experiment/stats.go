package experiment

import (
	"encoding/json"
	"math"
	"sellerLab/domain"
	"sort"
)

// metricValues collects the reported values for one metric across a variant's
// records. A record that did not report the metric contributes 0, so every
// record counts toward the sample.
func metricValues(records []domain.ConversionRecord, metric string) []float64 {
	values := make([]float64, 0, len(records))
	for _, r := range records {
		values = append(values, numericValue(r.Metrics[metric]))
	}
	return values
}

// numericValue coerces a decoded JSON value into a float64. Anything
// non-numeric counts as 0.
func numericValue(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func summarize(values []float64) domain.MetricSummary {
	return domain.MetricSummary{
		Mean:   mean(values),
		Median: median(values),
		Std:    stddev(values),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
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

// stddev is the sample standard deviation (n-1 denominator). A single
// observation has no spread, so fewer than two values yields 0.
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(n-1))
}
