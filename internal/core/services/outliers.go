package services

import "math"

// iqrFenceFactor scales the interquartile range into the outlier fence.
const iqrFenceFactor = 1.5

// Percentile returns the p-th percentile (0..100) of an ascending slice using
// linear interpolation between closest ranks. It returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// IQRBounds returns the inclusive fence [Q1 - 1.5*IQR, Q3 + 1.5*IQR].
func IQRBounds(samples map[string]float64) (lower, upper float64) {
	values := sortedValues(samples)
	q1 := Percentile(values, 25)
	q3 := Percentile(values, 75)
	iqr := q3 - q1
	return q1 - iqrFenceFactor*iqr, q3 + iqrFenceFactor*iqr
}

// FilterOutliers keeps only the samples inside the IQR fence. With fewer
// than two samples the input is returned as a copy.
func FilterOutliers(samples map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(samples))
	if len(samples) < 2 {
		for id, v := range samples {
			out[id] = v
		}
		return out
	}

	lower, upper := IQRBounds(samples)
	for id, v := range samples {
		if v >= lower && v <= upper {
			out[id] = v
		}
	}
	return out
}

// Average returns the arithmetic mean, or 0 for no samples.
func Average(samples map[string]float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	// Sum in sorted order so the result does not depend on map iteration.
	var sum float64
	for _, v := range sortedValues(samples) {
		sum += v
	}
	return sum / float64(len(samples))
}
