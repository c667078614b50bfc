package timestep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestStepTypes(t *testing.T) {
	obs := mat.NewVecDense(3, []float64{1, 0, 0})

	first := New(First, 0, 0.99, obs, 0)
	assert.True(t, first.First())
	assert.False(t, first.Last())

	mid := New(Mid, -1.5, 0.99, obs, 1)
	assert.True(t, mid.Mid())
	assert.Equal(t, "Mid", mid.StepType.String())

	last := New(Last, -1.5, 0.99, obs, 200)
	assert.True(t, last.Last())
	assert.Contains(t, last.String(), "Last")
	assert.Contains(t, last.String(), "200")
}
