package vanillaac

import (
	"fmt"

	"github.com/samuelfneumann/pendulumac/agent"
	env "github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/initwfn"
	"github.com/samuelfneumann/pendulumac/network"
	"github.com/samuelfneumann/pendulumac/solver"
)

// GaussianVanillaACMLP is the agent type of a vanilla actor-critic
// agent with a Gaussian MLP policy
const GaussianVanillaACMLP agent.Type = "GaussianVanillaAC-MLP"

func init() {
	// Register Config type so that it can be typed using
	// agent.TypedConfig to help with serialization/deserialization.
	agent.Register(GaussianVanillaACMLP, GaussianMLPConfig{})
}

// GaussianMLPConfig implements a configuration for a Gaussian policy
// vanilla actor critic agent. The mean of the Gaussian policy is
// predicted by an MLP and the log standard deviation is a learned,
// state independent parameter. The critic is an MLP predicting state
// values, or action values if StateActionCritic is true.
type GaussianMLPConfig struct {
	// Policy neural net
	PolicyLayers      []int
	PolicyBiases      []bool
	PolicyActivations []*network.Activation

	// Value function neural net
	ValueFnLayers      []int
	ValueFnBiases      []bool
	ValueFnActivations []*network.Activation
	StateActionCritic  bool

	// Weight init function for all neural nets
	InitWFn *initwfn.InitWFn

	PolicySolver *solver.Solver
	VSolver      *solver.Solver

	Discount   float64 // γ
	TraceDecay float64 // λ of GAE(λ)

	// An update is performed at the end of the first episode after
	// which the buffer holds more than BatchSize transitions
	BatchSize int

	// Maximum number of steps in an episode
	EpisodeCutoff int
}

// DefaultGaussianMLPConfig returns the default configuration: two
// hidden layers of 32 tanh units for both networks, Adam with a
// learning rate of 0.001, γ = 0.99, λ = 0.97, and a batch size of 2048
func DefaultGaussianMLPConfig() GaussianMLPConfig {
	var c GaussianMLPConfig
	c.SetDefaults()
	return c
}

// SetDefaults sets all fields of the receiver to their defaults
func (g *GaussianMLPConfig) SetDefaults() {
	hidden := 32

	g.PolicyLayers = []int{hidden, hidden}
	g.PolicyBiases = []bool{true, true}
	g.PolicyActivations = []*network.Activation{network.TanH(),
		network.TanH()}

	g.ValueFnLayers = []int{hidden, hidden}
	g.ValueFnBiases = []bool{true, true}
	g.ValueFnActivations = []*network.Activation{network.TanH(),
		network.TanH()}
	g.StateActionCritic = false

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		panic(fmt.Sprintf("setDefaults: %v", err))
	}
	g.InitWFn = init

	policySolver, err := solver.NewDefaultAdam(0.001, 1)
	if err != nil {
		panic(fmt.Sprintf("setDefaults: %v", err))
	}
	vSolver, err := solver.NewDefaultAdam(0.001, 1)
	if err != nil {
		panic(fmt.Sprintf("setDefaults: %v", err))
	}
	g.PolicySolver = policySolver
	g.VSolver = vSolver

	g.Discount = 0.99
	g.TraceDecay = 0.97
	g.BatchSize = 2048
	g.EpisodeCutoff = 200
}

// Validate checks a Config to ensure it is a valid configuration
func (g GaussianMLPConfig) Validate() error {
	if g.BatchSize <= 0 {
		return fmt.Errorf("validate: cannot have batch size %v < 1",
			g.BatchSize)
	}
	if g.EpisodeCutoff <= 0 {
		return fmt.Errorf("validate: cannot have episode cutoff %v < 1",
			g.EpisodeCutoff)
	}
	if g.Discount < 0 || g.Discount > 1 {
		return fmt.Errorf("validate: discount %v not in [0, 1]", g.Discount)
	}
	if g.TraceDecay < 0 || g.TraceDecay > 1 {
		return fmt.Errorf("validate: trace decay %v not in [0, 1]",
			g.TraceDecay)
	}

	if len(g.PolicyLayers) != len(g.PolicyBiases) ||
		len(g.PolicyLayers) != len(g.PolicyActivations) {
		return fmt.Errorf("validate: policy layers, biases, and " +
			"activations must have the same length")
	}
	if len(g.ValueFnLayers) != len(g.ValueFnBiases) ||
		len(g.ValueFnLayers) != len(g.ValueFnActivations) {
		return fmt.Errorf("validate: value function layers, biases, and " +
			"activations must have the same length")
	}

	if g.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}
	if g.PolicySolver == nil || g.VSolver == nil {
		return fmt.Errorf("validate: policy and value function solvers " +
			"must be given")
	}

	return nil
}

// Type returns the type of agent constructed by the Config
func (g GaussianMLPConfig) Type() agent.Type {
	return GaussianVanillaACMLP
}

// CreateAgent creates and returns the agent determined by the
// configuration
func (g GaussianMLPConfig) CreateAgent(e env.Environment,
	seed uint64) (agent.Agent, error) {
	vac, err := New(e, g, seed)
	if err != nil {
		return nil, err
	}
	return vac, nil
}

// WithEpisodeCutoff returns a copy of the Config whose buffer can
// hold episodes of at most cutoff steps
func (g GaussianMLPConfig) WithEpisodeCutoff(cutoff int) agent.Config {
	g.EpisodeCutoff = cutoff
	return g
}

// capacity returns the capacity of the rollout buffer. Updates happen
// only at the end of episodes, so the buffer holds at most one episode
// more than the batch size.
func (g GaussianMLPConfig) capacity() int {
	return g.BatchSize + g.EpisodeCutoff
}
