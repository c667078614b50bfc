package vanillaac

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/pendulumac/agent"
	env "github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/environment/envconfig"
	"github.com/samuelfneumann/pendulumac/network"
	"github.com/samuelfneumann/pendulumac/rewards"
)

const (
	testCutoff    = 10
	testBatchSize = 15
)

func testConfig() GaussianMLPConfig {
	c := DefaultGaussianMLPConfig()
	c.PolicyLayers = []int{8}
	c.PolicyBiases = []bool{true}
	c.PolicyActivations = []*network.Activation{network.TanH()}
	c.ValueFnLayers = []int{8}
	c.ValueFnBiases = []bool{true}
	c.ValueFnActivations = []*network.Activation{network.TanH()}
	c.BatchSize = testBatchSize
	c.EpisodeCutoff = testCutoff
	return c
}

func newAgent(t *testing.T, seed uint64) (*VAC, env.Environment) {
	t.Helper()
	e, _, err := envconfig.CreatePendulum(envconfig.SwingUp, testCutoff, seed,
		0.99)
	require.NoError(t, err)

	vac, err := New(e, testConfig(), seed)
	require.NoError(t, err)
	t.Cleanup(func() { vac.Close() })
	return vac, e
}

func runEpisode(t *testing.T, e env.Environment, vac *VAC) {
	t.Helper()
	step, err := e.Reset()
	require.NoError(t, err)
	require.NoError(t, vac.ObserveFirst(step))

	for !step.Last() {
		action := vac.SelectAction(step)
		step, _, err = e.Step(action)
		require.NoError(t, err)
		require.NoError(t, vac.Observe(action, step))
		require.NoError(t, vac.Step())
	}
	vac.EndEpisode()
}

func TestNoUpdateBelowBatchSize(t *testing.T) {
	vac, e := newAgent(t, 42)
	policyBefore := vac.trainPolicy.Weights()
	criticBefore := network.Weights(vac.trainCritic.Network())

	runEpisode(t, e, vac)

	assert.Equal(t, 0, vac.Updates())
	assert.Equal(t, testCutoff, vac.BufferLen())
	assert.Equal(t, policyBefore, vac.trainPolicy.Weights())
	assert.Equal(t, criticBefore, network.Weights(vac.trainCritic.Network()))
	assert.Equal(t, policyBefore, vac.Policy().Weights())
}

func TestBufferEmptyAfterUpdate(t *testing.T) {
	vac, e := newAgent(t, 42)
	policyBefore := vac.trainPolicy.Weights()
	criticBefore := network.Weights(vac.trainCritic.Network())

	runEpisode(t, e, vac)
	runEpisode(t, e, vac)

	assert.Equal(t, 1, vac.Updates())
	assert.Equal(t, 0, vac.BufferLen())
	assert.NotEqual(t, policyBefore, vac.trainPolicy.Weights())
	assert.NotEqual(t, criticBefore,
		network.Weights(vac.trainCritic.Network()))
	assert.Greater(t, vac.ValueLoss(), 0.0)

	// Acting networks follow the trained networks
	assert.Equal(t, vac.trainPolicy.Weights(), vac.Policy().Weights())
	assert.Equal(t, network.Weights(vac.trainCritic.Network()),
		network.Weights(vac.Critic().Network()))
}

func TestFixedSeedIsDeterministic(t *testing.T) {
	a, envA := newAgent(t, 7)
	b, envB := newAgent(t, 7)

	for i := 0; i < 4; i++ {
		runEpisode(t, envA, a)
		runEpisode(t, envB, b)
	}

	require.Equal(t, 2, a.Updates())
	assert.Equal(t, a.PolicyLoss(), b.PolicyLoss())
	assert.Equal(t, a.ValueLoss(), b.ValueLoss())
	assert.Equal(t, a.Policy().Weights(), b.Policy().Weights())
}

func TestPolicyAndCriticStepsAreIndependent(t *testing.T) {
	vac, e := newAgent(t, 3)
	runEpisode(t, e, vac)

	n := vac.BufferLen()
	states := vac.pad(vac.buffer.States(), vac.obsDims)
	actions := vac.pad(vac.buffer.Actions(), vac.actionDims)
	targets := make([]float64, n)
	for i := range targets {
		targets[i] = float64(i%3) - 1
	}
	weights := vac.lossWeights(n)

	policyBefore := vac.trainPolicy.Weights()
	criticBefore := network.Weights(vac.trainCritic.Network())

	require.NoError(t, vac.stepCritic(states, actions, vac.pad(targets, 1),
		weights))
	assert.Equal(t, policyBefore, vac.trainPolicy.Weights())
	criticAfter := network.Weights(vac.trainCritic.Network())
	assert.NotEqual(t, criticBefore, criticAfter)

	require.NoError(t, vac.stepPolicy(states, actions, vac.pad(targets, 1),
		weights))
	assert.NotEqual(t, policyBefore, vac.trainPolicy.Weights())
	assert.Equal(t, criticAfter, network.Weights(vac.trainCritic.Network()))
}

func TestLossWeightsMaskPadding(t *testing.T) {
	vac, _ := newAgent(t, 1)
	weights := vac.lossWeights(4)

	require.Len(t, weights, testBatchSize+testCutoff)
	sum := 0.0
	for i, w := range weights {
		if i < 4 {
			assert.InDelta(t, 0.25, w, 1e-12)
		} else {
			assert.Zero(t, w)
		}
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestObserveFirstResetsEpisode(t *testing.T) {
	vac, e := newAgent(t, 5)
	step, err := e.Reset()
	require.NoError(t, err)
	require.NoError(t, vac.ObserveFirst(step))

	action := vac.SelectAction(step)
	next, _, err := e.Step(action)
	require.NoError(t, err)
	require.NoError(t, vac.Observe(action, next))

	assert.Equal(t, 1, vac.BufferLen())
	assert.InDelta(t, vac.Policy().LastLogProb(),
		vac.buffer.LogProbs()[0], 1e-12)
	assert.Equal(t, next.Reward, vac.buffer.Rewards()[0])
}

func TestEvalSelectsMean(t *testing.T) {
	vac, e := newAgent(t, 9)
	step, err := e.Reset()
	require.NoError(t, err)

	vac.Eval()
	assert.True(t, vac.IsEval())
	first := vac.SelectAction(step)
	second := vac.SelectAction(step)
	assert.Equal(t, first.RawVector().Data, second.RawVector().Data)

	vac.Train()
	assert.False(t, vac.IsEval())
}

func TestSaveLoad(t *testing.T) {
	vac, e := newAgent(t, 11)
	runEpisode(t, e, vac)
	runEpisode(t, e, vac)
	require.Equal(t, 1, vac.Updates())

	filename := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, vac.Save(filename))

	other, _ := newAgent(t, 12)
	require.NotEqual(t, vac.Policy().Weights(), other.Policy().Weights())
	require.NoError(t, other.Load(filename))

	assert.Equal(t, vac.Policy().Weights(), other.Policy().Weights())
	assert.Equal(t, network.Weights(vac.Critic().Network()),
		network.Weights(other.Critic().Network()))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	e, _, err := envconfig.Default().Create(0)
	require.NoError(t, err)

	c := testConfig()
	c.BatchSize = 0
	_, err = New(e, c, 0)
	assert.Error(t, err)

	c = testConfig()
	c.PolicyBiases = nil
	_, err = New(e, c, 0)
	assert.Error(t, err)

	c = testConfig()
	c.VSolver = nil
	_, err = c.CreateAgent(e, 0)
	assert.Error(t, err)
}

func TestTypedConfigJSON(t *testing.T) {
	data, err := json.Marshal(agent.NewTypedConfig(testConfig()))
	require.NoError(t, err)

	var typed agent.TypedConfig
	require.NoError(t, json.Unmarshal(data, &typed))
	assert.Equal(t, GaussianVanillaACMLP, typed.Type)

	c, ok := typed.Config.(GaussianMLPConfig)
	require.True(t, ok)
	assert.Equal(t, testBatchSize, c.BatchSize)
	assert.Equal(t, []int{8}, c.PolicyLayers)
	assert.Equal(t, "tanh", c.PolicyActivations[0].String())
	require.NoError(t, c.Validate())

	// Missing fields take their defaults
	partial := []byte(`{"Type": "GaussianVanillaAC-MLP",
		"Config": {"BatchSize": 64}}`)
	require.NoError(t, json.Unmarshal(partial, &typed))
	c = typed.Config.(GaussianMLPConfig)
	assert.Equal(t, 64, c.BatchSize)
	assert.Equal(t, 0.97, c.TraceDecay)
	assert.Equal(t, []int{32, 32}, c.ValueFnLayers)
}

func TestLossesMatchStoredTransitions(t *testing.T) {
	for _, stateAction := range []bool{false, true} {
		e, _, err := envconfig.CreatePendulum(envconfig.SwingUp, testCutoff,
			13, 0.99)
		require.NoError(t, err)

		c := testConfig()
		c.StateActionCritic = stateAction
		vac, err := New(e, c, 13)
		require.NoError(t, err)
		defer vac.Close()

		// The first episode fills the buffer below the batch size, the
		// second triggers the update on its last step
		runEpisode(t, e, vac)

		step, err := e.Reset()
		require.NoError(t, err)
		require.NoError(t, vac.ObserveFirst(step))
		for {
			action := vac.SelectAction(step)
			step, _, err = e.Step(action)
			require.NoError(t, err)
			require.NoError(t, vac.Observe(action, step))
			if step.Last() {
				break
			}
			require.NoError(t, vac.Step())
		}
		require.Equal(t, 0, vac.Updates())

		logProbs := append([]float64(nil), vac.buffer.LogProbs()...)
		values := append([]float64(nil), vac.buffer.Values()...)
		rews := append([]float64(nil), vac.buffer.Rewards()...)
		dones := append([]float64(nil), vac.buffer.Dones()...)
		n := float64(len(rews))
		require.Equal(t, 2*testCutoff, len(rews))

		adv := rewards.GeneralizedAdvantage(c.Discount, c.TraceDecay, rews,
			dones, values, 0)
		adv = rewards.Normalize(adv, normEpsilon)
		rets := rewards.Discount(c.Discount, rews, dones, 0)

		wantPolicyLoss, wantValueLoss := 0.0, 0.0
		for i := range rews {
			wantPolicyLoss -= logProbs[i] * adv[i] / n
			wantValueLoss += (values[i] - rets[i]) * (values[i] - rets[i]) / n
		}

		require.NoError(t, vac.Step())
		require.Equal(t, 1, vac.Updates())
		assert.InDelta(t, wantPolicyLoss, vac.PolicyLoss(), 1e-9,
			"state-action critic: %v", stateAction)
		assert.InDelta(t, wantValueLoss, vac.ValueLoss(), 1e-9,
			"state-action critic: %v", stateAction)
	}
}

func TestWithEpisodeCutoff(t *testing.T) {
	c := testConfig()
	resized := c.WithEpisodeCutoff(3 * testCutoff).(GaussianMLPConfig)

	assert.Equal(t, 3*testCutoff, resized.EpisodeCutoff)
	assert.Equal(t, testBatchSize+3*testCutoff, resized.capacity())
	assert.Equal(t, testCutoff, c.EpisodeCutoff)
}
