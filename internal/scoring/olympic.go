package scoring

import "sort"

// OlympicThreshold is the number of values from which trimming applies
const OlympicThreshold = 3

// OlympicAverage returns the mean of values after dropping exactly one
// minimum and one maximum. Fewer than three values are averaged untrimmed,
// and an empty set yields nil.
func OlympicAverage(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	if len(values) < OlympicThreshold {
		return mean(values)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return mean(sorted[1 : len(sorted)-1])
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}

func sum(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return &total
}
