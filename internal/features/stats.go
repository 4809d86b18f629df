package features

import "math"

// trendLabel compares the mean of the first half of the series against the
// second half. Changes beyond +-10% are labeled increasing or decreasing.
func trendLabel(values []float64) string {
	if len(values) < 2 {
		return "stable"
	}

	mid := len(values) / 2
	if mid == 0 {
		return "stable"
	}

	firstHalf := mean(values[:mid])
	secondHalf := mean(values[mid:])
	if firstHalf == 0 {
		return "stable"
	}

	changePct := (secondHalf - firstHalf) / firstHalf * 100
	switch {
	case changePct > 10:
		return "increasing"
	case changePct < -10:
		return "decreasing"
	default:
		return "stable"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdev is the sample standard deviation (n-1 denominator).
func sampleStdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
