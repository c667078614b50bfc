package floatutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 2.0, Clip(3.5, -2, 2))
	assert.Equal(t, -2.0, Clip(-3.5, -2, 2))
	assert.Equal(t, 0.5, ClipInterval(0.5, r1.Interval{Min: -1, Max: 1}))
}

func TestFill(t *testing.T) {
	assert.Equal(t, []float64{0.25, 0.25, 0.25}, Fill(3, 0.25))
	assert.Empty(t, Fill(0, 1))
}
