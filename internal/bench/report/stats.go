package report

import (
	"math"
	"slices"
)

// Stats summarises the timing samples of one revision, in seconds.
type Stats struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	Median      float64 `json:"median"`
	Stddev      float64 `json:"stddev"`
	P95         float64 `json:"p95"`
	SampleCount int     `json:"sample_count"`
}

func ComputeStats(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	stats := Stats{
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Median:      percentile(sorted, 50),
		P95:         percentile(sorted, 95),
		SampleCount: len(sorted),
	}

	var sum float64
	for _, s := range sorted {
		sum += s
	}
	stats.Mean = sum / float64(len(sorted))

	if len(sorted) > 1 {
		var sumSquares float64
		for _, s := range sorted {
			diff := s - stats.Mean
			sumSquares += diff * diff
		}
		stats.Stddev = math.Sqrt(sumSquares / float64(len(sorted)-1))
	}

	return stats
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := float64(p) / 100.0 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s Stats) IsZero() bool {
	return s.SampleCount == 0
}
