package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/environment/envconfig"
	"github.com/samuelfneumann/pendulumac/initwfn"
	"github.com/samuelfneumann/pendulumac/network"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

func newEnv(t *testing.T) (environment.Environment, ts.TimeStep) {
	t.Helper()
	env, step, err := envconfig.Default().Create(0)
	require.NoError(t, err)
	return env, step
}

func newPolicy(t *testing.T, env environment.Environment,
	batch int) *GaussianMLP {
	t.Helper()
	init, err := initwfn.NewGlorotU(1.0)
	require.NoError(t, err)

	pol, err := NewGaussianMLP(env, batch, []int{8, 8}, []bool{true, true},
		[]*network.Activation{network.TanH(), network.TanH()},
		init.InitWFn(1), 2)
	require.NoError(t, err)
	return pol
}

func TestSelectActionDeterministicWithSeed(t *testing.T) {
	env, step := newEnv(t)
	a, b := newPolicy(t, env, 1), newPolicy(t, env, 1)
	defer a.Close()
	defer b.Close()

	assert.Equal(t, a.Weights(), b.Weights())
	for i := 0; i < 5; i++ {
		actA, actB := a.SelectAction(step), b.SelectAction(step)
		assert.True(t, mat.Equal(actA, actB))
		assert.Equal(t, a.LastLogProb(), b.LastLogProb())
	}
}

func TestLogStdStartsAtZero(t *testing.T) {
	env, _ := newEnv(t)
	pol := newPolicy(t, env, 1)
	defer pol.Close()

	assert.Equal(t, []float64{0}, pol.LogStd())
	assert.Len(t, pol.Learnables(), 7)
	assert.Len(t, pol.Model(), 7)
}

func TestLogPdfOfMatchesSelectedActions(t *testing.T) {
	env, step := newEnv(t)
	behaviour := newPolicy(t, env, 1)
	defer behaviour.Close()

	// Use a non-default standard deviation
	weights := behaviour.Weights()
	weights[len(weights)-1] = []float64{-0.7}
	require.NoError(t, behaviour.SetWeights(weights))

	const batch = 3
	var states, actions, logProbs []float64
	for i := 0; i < batch; i++ {
		action := behaviour.SelectAction(step)
		states = append(states, step.Observation.RawVector().Data...)
		actions = append(actions, action.RawVector().Data...)
		logProbs = append(logProbs, behaviour.LastLogProb())

		step, _, _ = env.Step(action)
	}

	train, err := behaviour.CloneWithBatch(batch)
	require.NoError(t, err)
	defer train.Close()
	assert.Equal(t, behaviour.Weights(), train.Weights())

	_, err = train.LogPdfOf(states, actions)
	require.NoError(t, err)

	vm := G.NewTapeMachine(train.Network().Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	got := train.LogPdfVal().Data().([]float64)
	assert.InDeltaSlice(t, logProbs, got, 1e-9)
}

func TestLogPdfOfInvalidInput(t *testing.T) {
	env, _ := newEnv(t)
	pol := newPolicy(t, env, 2)

	_, err := pol.LogPdfOf(make([]float64, 5), make([]float64, 2))
	assert.Error(t, err)
	_, err = pol.LogPdfOf(make([]float64, 6), make([]float64, 3))
	assert.Error(t, err)
	assert.Panics(t, func() { pol.SelectAction(ts.TimeStep{}) })
}

func TestEvalSelectsMean(t *testing.T) {
	env, step := newEnv(t)
	pol := newPolicy(t, env, 1)
	defer pol.Close()

	pol.Eval()
	assert.True(t, pol.IsEval())
	first := pol.SelectAction(step)
	second := pol.SelectAction(step)
	assert.True(t, mat.Equal(first, second))
	assert.InDelta(t, -0.5*math.Log(2*math.Pi), pol.LastLogProb(), 1e-12)

	// A tiny standard deviation makes sampled actions close to the mean
	pol.Train()
	weights := pol.Weights()
	weights[len(weights)-1] = []float64{-30}
	require.NoError(t, pol.SetWeights(weights))
	sampled := pol.SelectAction(step)
	assert.InDelta(t, first.AtVec(0), sampled.AtVec(0), 1e-9)
}

func TestSetWeightsErrors(t *testing.T) {
	env, _ := newEnv(t)
	pol := newPolicy(t, env, 1)
	defer pol.Close()

	assert.Error(t, pol.SetWeights(nil))

	weights := pol.Weights()
	weights[len(weights)-1] = []float64{0, 0}
	assert.Error(t, pol.SetWeights(weights))
}
