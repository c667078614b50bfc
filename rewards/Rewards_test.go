package rewards

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestDiscount(t *testing.T) {
	rewards := []float64{1, 1, 1}
	dones := []float64{0, 0, 0}

	got := Discount(0.5, rewards, dones, 0)
	assert.InDeltaSlice(t, []float64{1.75, 1.5, 1}, got, 1e-12)

	got = Discount(0.5, rewards, dones, 8)
	assert.InDeltaSlice(t, []float64{2.75, 3.5, 5}, got, 1e-12)
}

func TestDiscountResetsAtEpisodeEnd(t *testing.T) {
	rewards := []float64{1, 2, 3, 4}
	dones := []float64{0, 1, 0, 1}

	got := Discount(0.9, rewards, dones, 100)
	want := []float64{1 + 0.9*2, 2, 3 + 0.9*4, 4}
	assert.InDeltaSlice(t, want, got, 1e-12)
}

func TestDiscountPanicsOnMismatch(t *testing.T) {
	assert.Panics(t, func() { Discount(0.9, []float64{1}, nil, 0) })
}

func TestTemporalDifference(t *testing.T) {
	rewards := []float64{1, 0, 2}
	dones := []float64{0, 1, 0}
	values := []float64{0.5, 1, 2}

	got := TemporalDifference(0.9, rewards, dones, values, 3)
	want := []float64{
		1 + 0.9*1 - 0.5,
		0 - 1,
		2 + 0.9*3 - 2,
	}
	assert.InDeltaSlice(t, want, got, 1e-12)
	assert.Empty(t, TemporalDifference(0.9, nil, nil, nil, 0))
}

func TestGeneralizedAdvantage(t *testing.T) {
	rewards := []float64{1, 1, 1}
	dones := []float64{0, 0, 1}
	values := []float64{0, 0, 0}

	// With zero values the advantages are returns discounted by γλ
	got := GeneralizedAdvantage(0.5, 0.5, rewards, dones, values, 10)
	assert.InDeltaSlice(t, []float64{1.3125, 1.25, 1}, got, 1e-12)

	// λ = 1 gives the discounted return minus the value
	values = []float64{1, 2, 3}
	got = GeneralizedAdvantage(0.5, 1, rewards, dones, values, 0)
	returns := Discount(0.5, rewards, dones, 0)
	for i := range got {
		assert.InDelta(t, returns[i]-values[i], got[i], 1e-12)
	}

	// λ = 0 gives the one step temporal difference errors
	got = GeneralizedAdvantage(0.5, 0, rewards, dones, values, 0)
	td := TemporalDifference(0.5, rewards, dones, values, 0)
	assert.InDeltaSlice(t, td, got, 1e-12)
}

func TestNormalize(t *testing.T) {
	x := []float64{3, -1, 4, 1, 5, -9, 2, 6}
	got := Normalize(x, 1e-8)

	mean, std := stat.MeanStdDev(got, nil)
	assert.InDelta(t, 0, mean, 1e-9)
	assert.InDelta(t, 1, std, 1e-6)
	assert.InDelta(t, 1, stat.Variance(got, nil), 1e-6)

	// The input is not modified
	assert.Equal(t, 3.0, x[0])

	// A constant sequence is mapped to zeroes
	got = Normalize([]float64{2, 2, 2}, 1e-8)
	for _, v := range got {
		assert.False(t, math.IsNaN(v))
		assert.InDelta(t, 0, v, 1e-12)
	}
}
