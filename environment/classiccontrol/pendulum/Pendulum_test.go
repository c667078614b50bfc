package pendulum

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// fixedStarter always starts episodes in the same state
type fixedStarter struct {
	th, thdot float64
}

func (f fixedStarter) Start() *mat.VecDense {
	return mat.NewVecDense(2, []float64{f.th, f.thdot})
}

func newPendulum(t *testing.T, th, thdot float64, cutoff int) *Pendulum {
	t.Helper()
	task := NewSwingUp(fixedStarter{th, thdot}, cutoff)
	env, _, err := New(task, 0.99)
	require.NoError(t, err)
	return env
}

func TestResetObservation(t *testing.T) {
	env := newPendulum(t, math.Pi/3, 0.5, 200)

	step, err := env.Reset()
	require.NoError(t, err)
	assert.True(t, step.First())
	assert.Equal(t, 0, step.Number)
	assert.Equal(t, 0.99, step.Discount)

	obs := step.Observation.RawVector().Data
	assert.InDeltaSlice(t, []float64{0.5, math.Sqrt(3) / 2, 0.5}, obs, 1e-12)
}

func TestStepDynamics(t *testing.T) {
	env := newPendulum(t, math.Pi/2, 0, 200)

	step, last, err := env.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.False(t, last)
	assert.Equal(t, 1, step.Number)

	// Reward is computed from the state before the step
	assert.InDelta(t, -(math.Pi/2)*(math.Pi/2), step.Reward, 1e-12)

	wantThdot := 3 * Gravity / 2 * dt
	wantTh := math.Pi/2 + wantThdot*dt
	state := env.State()
	assert.InDelta(t, wantTh, state.AtVec(0), 1e-12)
	assert.InDelta(t, wantThdot, state.AtVec(1), 1e-12)
	assert.InDelta(t, math.Cos(wantTh), step.Observation.AtVec(0), 1e-12)
	assert.InDelta(t, math.Sin(wantTh), step.Observation.AtVec(1), 1e-12)
}

func TestUprightIsStable(t *testing.T) {
	env := newPendulum(t, 0, 0, 200)

	step, _, err := env.Step(mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, step.Reward)
	assert.InDelta(t, 0, env.State().AtVec(0), 1e-12)
	assert.InDelta(t, 1, step.Observation.AtVec(0), 1e-12)
}

func TestTorqueIsClipped(t *testing.T) {
	env := newPendulum(t, 0, 0, 200)

	step, _, err := env.Step(mat.NewVecDense(1, []float64{10}))
	require.NoError(t, err)
	assert.InDelta(t, -0.001*TorqueBound*TorqueBound, step.Reward, 1e-12)
	assert.InDelta(t, 3*TorqueBound*dt, env.State().AtVec(1), 1e-12)
}

func TestSpeedIsClipped(t *testing.T) {
	env := newPendulum(t, math.Pi/2, SpeedBound, 200)

	_, _, err := env.Step(mat.NewVecDense(1, []float64{TorqueBound}))
	require.NoError(t, err)
	assert.Equal(t, SpeedBound, env.State().AtVec(1))
}

func TestEpisodeCutoff(t *testing.T) {
	const cutoff = 5
	env := newPendulum(t, math.Pi, 0, cutoff)

	for i := 1; i <= cutoff; i++ {
		step, last, err := env.Step(mat.NewVecDense(1, []float64{1}))
		require.NoError(t, err)
		assert.Equal(t, i == cutoff, last)
		assert.Equal(t, i == cutoff, step.Last())
		assert.GreaterOrEqual(t, step.Reward, env.Min())
		assert.LessOrEqual(t, step.Reward, env.Max())
		assert.Equal(t, i, env.LastTimeStep().Number)
	}

	step, err := env.Reset()
	require.NoError(t, err)
	assert.True(t, step.First())
}

func TestInvalidAction(t *testing.T) {
	env := newPendulum(t, 0, 0, 200)
	_, _, err := env.Step(mat.NewVecDense(2, nil))
	assert.Error(t, err)
}

func TestInvalidStart(t *testing.T) {
	task := NewSwingUp(fixedStarter{0, 2 * SpeedBound}, 200)
	_, _, err := New(task, 0.99)
	assert.Error(t, err)
}

func TestSeededStarter(t *testing.T) {
	a, b := NewStarter(42), NewStarter(42)
	for i := 0; i < 5; i++ {
		start := a.Start()
		assert.True(t, mat.Equal(start, b.Start()))
		assert.LessOrEqual(t, math.Abs(start.AtVec(0)), AngleBound)
		assert.LessOrEqual(t, math.Abs(start.AtVec(1)), StartSpeedBound)
	}
}

func TestSpecs(t *testing.T) {
	env := newPendulum(t, 0, 0, 200)
	assert.Equal(t, ObservationDims, env.ObservationSpec().Dims())
	assert.Equal(t, ActionDims, env.ActionSpec().Dims())
	assert.Equal(t, TorqueBound, env.ActionSpec().UpperBound.AtVec(0))
	assert.Equal(t, 0.99, env.DiscountSpec().LowerBound.AtVec(0))
}

func TestAngleNormalize(t *testing.T) {
	assert.InDelta(t, 0, angleNormalize(2*math.Pi), 1e-12)
	assert.InDelta(t, -math.Pi/2, angleNormalize(3*math.Pi/2), 1e-12)
	assert.InDelta(t, math.Pi/2, angleNormalize(-3*math.Pi/2), 1e-12)
	assert.InDelta(t, 0.3, angleNormalize(0.3), 1e-12)
}

func TestRender(t *testing.T) {
	env := newPendulum(t, math.Pi/4, 0, 200)

	var buf bytes.Buffer
	require.NoError(t, env.Render(&buf))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, frameSize, img.Bounds().Dx())
	assert.Equal(t, frameSize, img.Bounds().Dy())
	assert.Equal(t, frameSize, env.Image().Bounds().Dx())
}
