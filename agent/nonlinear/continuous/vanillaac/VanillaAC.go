// Package vanillaac implements a vanilla actor-critic algorithm with a
// Gaussian policy, trained on batches of whole episodes with
// generalized advantage estimates.
package vanillaac

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/pendulumac/agent/nonlinear/continuous/critic"
	"github.com/samuelfneumann/pendulumac/agent/nonlinear/continuous/policy"
	"github.com/samuelfneumann/pendulumac/buffer/rollout"
	env "github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/network"
	"github.com/samuelfneumann/pendulumac/rewards"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// normEpsilon is added to the standard deviation of advantages when
// normalizing them
const normEpsilon = 1e-8

// VAC implements the vanilla actor-critic algorithm. Transitions are
// collected with a batch size 1 behaviour policy and stored together
// with the log probability of each action and the value of each state.
// At the end of the first episode after which more than BatchSize
// transitions have been collected, the policy and critic each take one
// gradient step:
//
//	policy loss: -mean(log π(a|s) A(s, a))
//	critic loss: mean((V(s) - R)²)
//
// where A are normalized GAE(λ) advantages and R discounted returns.
// The buffer is then emptied.
//
// The training networks have a fixed batch of BatchSize + EpisodeCutoff
// rows. Rows past the number of stored transitions are given a weight
// of zero in both losses, so that each loss is the mean over the
// stored transitions only.
type VAC struct {
	// Policy
	behaviour     *policy.GaussianMLP // Has its own VM
	trainPolicy   *policy.GaussianMLP // Policy struct that is learned
	policySolver  G.Solver
	policyVM      G.VM
	advantages    *G.Node
	policyWeights *G.Node
	policyLossVal G.Value

	// Critic
	critic       *critic.Critic // Has its own VM
	trainCritic  *critic.Critic
	vSolver      G.Solver
	vVM          G.VM
	returns      *G.Node
	vWeights     *G.Node
	valueLossVal G.Value

	buffer     *rollout.Buffer
	prevStep   ts.TimeStep
	obsDims    int
	actionDims int

	discount   float64
	traceDecay float64
	batchSize  int
	capacity   int

	policyLoss float64
	valueLoss  float64
	updates    int
}

// New creates and returns a new VAC agent acting in environment e.
// The seed determines the initial weights of both networks and the
// actions sampled by the policy.
func New(e env.Environment, c GaussianMLPConfig, seed uint64) (*VAC,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	obsDims := e.ObservationSpec().Dims()
	actionDims := e.ActionSpec().Dims()
	capacity := c.capacity()

	buffer, err := rollout.New(obsDims, actionDims, capacity)
	if err != nil {
		return nil, fmt.Errorf("new: could not create buffer: %v", err)
	}

	// Create the training policy and its loss
	trainPolicy, err := policy.NewGaussianMLP(e, capacity, c.PolicyLayers,
		c.PolicyBiases, c.PolicyActivations, c.InitWFn.InitWFn(seed), seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}

	policyGraph := trainPolicy.Network().Graph()
	advantages := G.NewVector(
		policyGraph,
		tensor.Float64,
		G.WithName("Advantages"),
		G.WithShape(capacity),
		G.WithInit(G.Zeroes()),
	)
	policyWeights := G.NewVector(
		policyGraph,
		tensor.Float64,
		G.WithName("PolicyLossWeights"),
		G.WithShape(capacity),
		G.WithInit(G.Zeroes()),
	)
	policyLoss := G.Must(G.HadamardProd(trainPolicy.LogPdfNode(), advantages))
	policyLoss = G.Must(G.HadamardProd(policyLoss, policyWeights))
	policyLoss = G.Must(G.Sum(policyLoss))
	policyLoss = G.Must(G.Neg(policyLoss))

	// Calculate the policy gradient
	_, err = G.Grad(policyLoss, trainPolicy.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute the policy "+
			"gradient: %v", err)
	}

	// Create the training critic and its loss
	trainCritic, err := critic.New(e, capacity, c.StateActionCritic,
		c.ValueFnLayers, c.ValueFnBiases, c.ValueFnActivations,
		c.InitWFn.InitWFn(seed+1))
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	criticGraph := trainCritic.Network().Graph()
	returns := G.NewVector(
		criticGraph,
		tensor.Float64,
		G.WithName("Returns"),
		G.WithShape(capacity),
		G.WithInit(G.Zeroes()),
	)
	vWeights := G.NewVector(
		criticGraph,
		tensor.Float64,
		G.WithName("ValueLossWeights"),
		G.WithShape(capacity),
		G.WithInit(G.Zeroes()),
	)
	valueLoss := G.Must(G.Sub(trainCritic.Prediction(), returns))
	valueLoss = G.Must(G.Square(valueLoss))
	valueLoss = G.Must(G.HadamardProd(valueLoss, vWeights))
	valueLoss = G.Must(G.Sum(valueLoss))

	// Calculate the value function gradient
	_, err = G.Grad(valueLoss, trainCritic.Network().Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute value function "+
			"gradient: %v", err)
	}

	// Create the acting networks
	behaviour, err := trainPolicy.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}
	behaviourCritic, err := trainCritic.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	vac := &VAC{
		behaviour:     behaviour,
		trainPolicy:   trainPolicy,
		policySolver:  c.PolicySolver.Create(),
		advantages:    advantages,
		policyWeights: policyWeights,

		critic:      behaviourCritic,
		trainCritic: trainCritic,
		vSolver:     c.VSolver.Create(),
		returns:     returns,
		vWeights:    vWeights,

		buffer:     buffer,
		obsDims:    obsDims,
		actionDims: actionDims,

		discount:   c.Discount,
		traceDecay: c.TraceDecay,
		batchSize:  c.BatchSize,
		capacity:   capacity,
	}

	G.Read(policyLoss, &vac.policyLossVal)
	G.Read(valueLoss, &vac.valueLossVal)

	vac.policyVM = G.NewTapeMachine(policyGraph,
		G.BindDualValues(trainPolicy.Learnables()...))
	vac.vVM = G.NewTapeMachine(criticGraph,
		G.BindDualValues(trainCritic.Network().Learnables()...))

	return vac, nil
}

// SelectAction selects an action at timestep t using the behaviour
// policy
func (v *VAC) SelectAction(t ts.TimeStep) *mat.VecDense {
	return v.behaviour.SelectAction(t)
}

// EndEpisode performs cleanup at the end of an episode
func (v *VAC) EndEpisode() {}

// Eval sets the agent to evaluation mode, in which the mean action is
// selected
func (v *VAC) Eval() { v.behaviour.Eval() }

// Train sets the agent to training mode
func (v *VAC) Train() { v.behaviour.Train() }

// IsEval returns whether the agent is in evaluation mode
func (v *VAC) IsEval() bool { return v.behaviour.IsEval() }

// ObserveFirst records the first timestep of an episode
func (v *VAC) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n",
			t.Number)
	}

	v.prevStep = t
	return nil
}

// Observe records that taking action in the previous timestep lead to
// nextStep. The action must be the last action selected with
// SelectAction so that its log probability can be stored.
func (v *VAC) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	state := v.prevStep.Observation.RawVector().Data
	act := make([]float64, action.Len())
	for i := range act {
		act[i] = action.AtVec(i)
	}

	value, err := v.critic.Value(state, act)
	if err != nil {
		return fmt.Errorf("observe: could not compute value: %v", err)
	}

	err = v.buffer.Add(rollout.Transition{
		State:   state,
		Action:  act,
		Reward:  nextStep.Reward,
		Done:    nextStep.Last(),
		LogProb: v.behaviour.LastLogProb(),
		Value:   value,
	})
	if err != nil {
		return fmt.Errorf("observe: could not add to buffer: %v", err)
	}

	v.prevStep = nextStep
	return nil
}

// Step updates the agent. Updates only happen at the end of an
// episode, if more than BatchSize transitions have been stored.
// Otherwise Step does nothing.
func (v *VAC) Step() error {
	if !v.prevStep.Last() || v.buffer.Len() <= v.batchSize {
		return nil
	}

	rews := v.buffer.Rewards()
	dones := v.buffer.Dones()
	values := v.buffer.Values()

	adv := rewards.GeneralizedAdvantage(v.discount, v.traceDecay, rews,
		dones, values, 0)
	adv = rewards.Normalize(adv, normEpsilon)
	rets := rewards.Discount(v.discount, rews, dones, 0)

	states := v.pad(v.buffer.States(), v.obsDims)
	actions := v.pad(v.buffer.Actions(), v.actionDims)
	weights := v.lossWeights(v.buffer.Len())

	if err := v.stepPolicy(states, actions, v.pad(adv, 1), weights); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := v.stepCritic(states, actions, v.pad(rets, 1), weights); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	// Update behaviour policy and prediction value function
	if err := v.behaviour.Set(v.trainPolicy); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v",
			err)
	}
	if err := v.critic.Set(v.trainCritic); err != nil {
		return fmt.Errorf("step: could not update critic: %v", err)
	}

	v.buffer.Empty()
	v.updates++
	return nil
}

// stepPolicy takes one gradient step on the policy loss. All arguments
// are padded to the capacity of the agent.
func (v *VAC) stepPolicy(states, actions, adv, weights []float64) error {
	if _, err := v.trainPolicy.LogPdfOf(states, actions); err != nil {
		return fmt.Errorf("stepPolicy: %v", err)
	}
	if err := G.Let(v.advantages, v.vector(adv)); err != nil {
		return fmt.Errorf("stepPolicy: could not set advantages: %v", err)
	}
	if err := G.Let(v.policyWeights, v.vector(weights)); err != nil {
		return fmt.Errorf("stepPolicy: could not set weights: %v", err)
	}

	if err := v.policyVM.RunAll(); err != nil {
		return fmt.Errorf("stepPolicy: could not run policy VM: %v", err)
	}
	defer v.policyVM.Reset()

	v.policyLoss = v.policyLossVal.Data().(float64)
	if err := v.policySolver.Step(v.trainPolicy.Model()); err != nil {
		return fmt.Errorf("stepPolicy: could not step solver: %v", err)
	}
	return nil
}

// stepCritic takes one gradient step on the critic loss. All
// arguments are padded to the capacity of the agent.
func (v *VAC) stepCritic(states, actions, rets, weights []float64) error {
	if err := v.trainCritic.SetInput(states, actions); err != nil {
		return fmt.Errorf("stepCritic: %v", err)
	}
	if err := G.Let(v.returns, v.vector(rets)); err != nil {
		return fmt.Errorf("stepCritic: could not set returns: %v", err)
	}
	if err := G.Let(v.vWeights, v.vector(weights)); err != nil {
		return fmt.Errorf("stepCritic: could not set weights: %v", err)
	}

	if err := v.vVM.RunAll(); err != nil {
		return fmt.Errorf("stepCritic: could not run critic VM: %v", err)
	}
	defer v.vVM.Reset()

	v.valueLoss = v.valueLossVal.Data().(float64)
	if err := v.vSolver.Step(v.trainCritic.Network().Model()); err != nil {
		return fmt.Errorf("stepCritic: could not step solver: %v", err)
	}
	return nil
}

// pad returns a copy of data, which holds rows of length cols,
// extended with rows of zeroes up to the capacity of the agent
func (v *VAC) pad(data []float64, cols int) []float64 {
	padded := make([]float64, v.capacity*cols)
	copy(padded, data)
	return padded
}

// lossWeights returns the weight of each row in the losses when n
// transitions are stored
func (v *VAC) lossWeights(n int) []float64 {
	weights := make([]float64, v.capacity)
	for i := 0; i < n; i++ {
		weights[i] = 1 / float64(n)
	}
	return weights
}

// vector returns data as a tensor of shape (capacity)
func (v *VAC) vector(data []float64) *tensor.Dense {
	return tensor.New(tensor.WithShape(v.capacity), tensor.WithBacking(data))
}

// PolicyLoss returns the policy loss of the last update
func (v *VAC) PolicyLoss() float64 {
	return v.policyLoss
}

// ValueLoss returns the critic loss of the last update
func (v *VAC) ValueLoss() float64 {
	return v.valueLoss
}

// Updates returns the number of updates performed
func (v *VAC) Updates() int {
	return v.updates
}

// BufferLen returns the number of transitions currently stored
func (v *VAC) BufferLen() int {
	return v.buffer.Len()
}

// Policy returns the behaviour policy of the agent
func (v *VAC) Policy() *policy.GaussianMLP {
	return v.behaviour
}

// Critic returns the critic of the agent used to predict values
func (v *VAC) Critic() *critic.Critic {
	return v.critic
}

// weights stores the learned parameters of a VAC for serialization
type weights struct {
	Policy [][]float64
	Critic [][]float64
}

// Save saves the weights of the agent to filename using gob
func (v *VAC) Save(filename string) error {
	var buf bytes.Buffer
	w := weights{
		Policy: v.trainPolicy.Weights(),
		Critic: network.Weights(v.trainCritic.Network()),
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}

	if err := os.WriteFile(filename, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("save: could not write file: %v", err)
	}
	return nil
}

// Load sets the weights of the agent to those saved at filename by
// Save. The optimizer states are not restored.
func (v *VAC) Load(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("load: could not read file: %v", err)
	}

	var w weights
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return fmt.Errorf("load: could not decode weights: %v", err)
	}

	if err := v.trainPolicy.SetWeights(w.Policy); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := network.SetWeights(v.trainCritic.Network(), w.Critic); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := v.behaviour.Set(v.trainPolicy); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	if err := v.critic.Set(v.trainCritic); err != nil {
		return fmt.Errorf("load: %v", err)
	}
	return nil
}

// Close closes all VMs of the agent. All VMs are closed even if
// closing one of them fails.
func (v *VAC) Close() error {
	err := multierr.Combine(
		v.behaviour.Close(),
		v.trainPolicy.Close(),
		v.critic.Close(),
		v.trainCritic.Close(),
		v.policyVM.Close(),
		v.vVM.Close(),
	)
	if err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}
