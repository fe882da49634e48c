package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Min)
	assert.Zero(t, stats.Max)
	assert.Zero(t, stats.Mean)
	assert.Zero(t, stats.Median)
	assert.Zero(t, stats.SampleCount)
	assert.True(t, stats.IsZero())
}

func TestComputeStats_SingleValue(t *testing.T) {
	stats := ComputeStats([]float64{0.1})

	assert.Equal(t, 0.1, stats.Min)
	assert.Equal(t, 0.1, stats.Max)
	assert.Equal(t, 0.1, stats.Mean)
	assert.Equal(t, 0.1, stats.Median)
	assert.Equal(t, 0.1, stats.P95)
	assert.Equal(t, 1, stats.SampleCount)
	assert.Zero(t, stats.Stddev)
	assert.False(t, stats.IsZero())
}

func TestComputeStats_MultipleValues(t *testing.T) {
	samples := []float64{5, 1, 4, 2, 3}
	stats := ComputeStats(samples)

	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 5.0, stats.Max)
	assert.Equal(t, 3.0, stats.Mean)
	assert.Equal(t, 3.0, stats.Median)
	assert.InDelta(t, 4.8, stats.P95, 1e-9)
	assert.InDelta(t, 1.5811, stats.Stddev, 1e-4)
	assert.Equal(t, 5, stats.SampleCount)
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, samples, "input is not reordered")
}

func TestComputeStats_EvenCount(t *testing.T) {
	stats := ComputeStats([]float64{0.01, 0.02, 0.03, 0.04})

	assert.Equal(t, 0.01, stats.Min)
	assert.Equal(t, 0.04, stats.Max)
	assert.InDelta(t, 0.025, stats.Median, 1e-12)
}
