// Package policy implements policies for continuous-action agents
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/network"
	ts "github.com/samuelfneumann/pendulumac/timestep"
	"github.com/samuelfneumann/pendulumac/utils/floatutils"
)

// halfLog2Pi is log(√(2π)), the normalizing term of the log density
// of the standard normal
var halfLog2Pi = 0.5 * math.Log(2*math.Pi)

// GaussianMLP implements a Gaussian policy with a diagonal covariance.
// The mean μ(s) is predicted by an MLP and the log standard deviation
// log σ is a learned parameter shared by all states.
//
// Given a nework prediction of the mean μ and standard deviation σ of
// the Gaussian policy, actions are selected by sampling from the
// standard normal ɛ ~ N(0, I) and computing action := μ + σ * ɛ. In
// evaluation mode the mean action is selected.
//
// A GaussianMLP with batch size 1 selects actions. A GaussianMLP with
// a larger batch size computes the log probability of a batch of
// actions in the policy's graph through LogPdfOf, which is used to
// construct policy gradient losses. Such a batch policy cannot select
// actions.
type GaussianMLP struct {
	vm  G.VM
	net network.NeuralNet

	logStd     *G.Node
	actions    *G.Node
	logPdfNode *G.Node
	logPdfVal  G.Value

	normal     distmv.Rander
	seed       uint64
	actionDims int
	batch      int
	eval       bool

	lastLogProb float64
}

// NewGaussianMLP returns a new GaussianMLP policy which selects
// actions in the argument environment. The mean of the policy is
// predicted by an MLP with hidden layers given by hiddenSizes, biases,
// and activations. See network.NewMLP for details on these arguments.
// The log standard deviation is initialized to 0.
//
// The init parameter determines the weight initialization scheme for
// the neural net and the seed parameter determines the seed of the
// policy's action sampler.
func NewGaussianMLP(env environment.Environment, batch int,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init G.InitWFn, seed uint64) (*GaussianMLP, error) {
	if env.ActionSpec().Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newGaussianMLP: actions should be " +
			"continuous")
	}

	features := env.ObservationSpec().Dims()
	actionDims := env.ActionSpec().Dims()

	net, err := network.NewMLP(features, batch, actionDims, G.NewGraph(),
		hiddenSizes, biases, init, activations, "Policy")
	if err != nil {
		return nil, fmt.Errorf("newGaussianMLP: could not create policy "+
			"network: %v", err)
	}

	return newGaussianMLPFromNet(net, seed)
}

// newGaussianMLPFromNet returns a GaussianMLP whose mean is predicted
// by net
func newGaussianMLPFromNet(net network.NeuralNet,
	seed uint64) (*GaussianMLP, error) {
	actionDims := net.Outputs()
	batch := net.BatchSize()

	logStd := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithShape(1, actionDims),
		G.WithName("LogStd"),
		G.WithInit(G.Zeroes()),
	)

	// Calculate log probability of input actions
	actions := G.NewMatrix(
		net.Graph(),
		tensor.Float64,
		G.WithName("InputActions"),
		G.WithShape(batch, actionDims),
		G.WithInit(G.Zeroes()),
	)
	logPdfNode := logPdf(net.Prediction(), logStd, actions)

	// Create standard normal for action selection
	means := make([]float64, actionDims)
	stds := mat.NewDiagDense(actionDims, floatutils.Fill(actionDims, 1.0))
	source := rand.NewSource(seed)
	normal, ok := distmv.NewNormal(means, stds, source)
	if !ok {
		return nil, fmt.Errorf("newGaussianMLP: could not create standard " +
			"normal for action selection")
	}

	pol := &GaussianMLP{
		net:        net,
		logStd:     logStd,
		actions:    actions,
		logPdfNode: logPdfNode,
		normal:     normal,
		seed:       seed,
		actionDims: actionDims,
		batch:      batch,
	}
	G.Read(pol.logPdfNode, &pol.logPdfVal)

	// Policy can select actions at each timestep only if using a batch
	// size of 1.
	if batch == 1 {
		pol.vm = G.NewTapeMachine(net.Graph())
	}

	return pol, nil
}

// logPdf adds nodes to the computational graph for computing the log
// probability of actions under a Gaussian with mean mean and log
// standard deviation logStd. The mean and actions have shape
// (batch, actionDims) and logStd has shape (1, actionDims). The
// returned node has shape (batch).
func logPdf(mean, logStd, actions *G.Node) *G.Node {
	graph := mean.Graph()
	if graph != logStd.Graph() || graph != actions.Graph() {
		panic("logPdf: all nodes must share the same graph")
	}

	negativeHalf := G.NewConstant(-0.5)
	normalizer := G.NewConstant(halfLog2Pi)

	std := G.Must(G.Exp(logStd))
	z := G.Must(G.Sub(actions, mean))
	z = G.Must(G.BroadcastHadamardDiv(z, std, nil, []byte{0}))

	exponent := G.Must(G.Square(z))
	exponent = G.Must(G.HadamardProd(negativeHalf, exponent))

	logProb := G.Must(G.BroadcastSub(exponent, logStd, nil, []byte{0}))
	logProb = G.Must(G.Sub(logProb, normalizer))

	// Independent action dimensions
	return G.Must(G.Sum(logProb, 1))
}

// LogPdfOf sets the state and action inputs of the policy's
// computational graph to the argument states and actions so that when
// a VM of the policy is run, the log probabliity of actions a taken in
// states s will be computed and stored in the policy's log PDF node,
// which is returned.
//
// The log PDF is not computed here since that requires running a VM
// that also computes the loss of the policy, which is owned by the
// learner.
func (g *GaussianMLP) LogPdfOf(s, a []float64) (*G.Node, error) {
	if err := g.net.SetInput(s); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set states: %v", err)
	}

	if len(a) != g.batch*g.actionDims {
		return nil, fmt.Errorf("logPdfOf: invalid number of actions"+
			"\n\twant(%v)\n\thave(%v)", g.batch*g.actionDims, len(a))
	}
	actionsTensor := tensor.NewDense(tensor.Float64,
		[]int{g.batch, g.actionDims},
		tensor.WithBacking(a),
	)
	if err := G.Let(g.actions, actionsTensor); err != nil {
		return nil, fmt.Errorf("logPdfOf: could not set actions: %v", err)
	}

	return g.logPdfNode, nil
}

// SelectAction selects and returns an action at the argument timestep
// t. The log probability of the action is available through
// LastLogProb until the next call.
func (g *GaussianMLP) SelectAction(t ts.TimeStep) *mat.VecDense {
	if g.batch != 1 {
		panic(fmt.Sprintf("selectAction: action selection can only be done "+
			"with a policy with batch size 1 \n\twant(1) \n\thave(%v)",
			g.batch))
	}

	obs := t.Observation.RawVector().Data
	if err := g.net.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectAction: cannot set input: %v", err))
	}

	if err := g.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectAction: could not run policy VM: %v", err))
	}
	defer g.vm.Reset()

	meanData := g.net.Output().Data().([]float64)
	mean := mat.NewVecDense(g.actionDims, append([]float64(nil),
		meanData...))
	logStd := g.LogStd()

	if g.eval {
		g.lastLogProb = g.logProb(logStd, make([]float64, g.actionDims))
		return mean
	}

	eps := g.normal.Rand(nil)
	stddev := make([]float64, g.actionDims)
	for i := range stddev {
		stddev[i] = math.Exp(logStd[i]) * eps[i]
	}
	mean.AddVec(mean, mat.NewVecDense(g.actionDims, stddev))

	g.lastLogProb = g.logProb(logStd, eps)
	return mean
}

// logProb returns the log density of μ + σ ε under the policy
func (g *GaussianMLP) logProb(logStd, eps []float64) float64 {
	var logProb float64
	for i := range eps {
		logProb += -0.5*eps[i]*eps[i] - logStd[i] - halfLog2Pi
	}
	return logProb
}

// LastLogProb returns the log probability of the last action selected
func (g *GaussianMLP) LastLogProb() float64 {
	return g.lastLogProb
}

// LogStd returns a copy of the log standard deviation of the policy
func (g *GaussianMLP) LogStd() []float64 {
	return append([]float64(nil), g.logStd.Value().Data().([]float64)...)
}

// LogPdfNode returns the node that will hold the log probability
// of actions when the comptuational graph is run.
func (g *GaussianMLP) LogPdfNode() *G.Node {
	return g.logPdfNode
}

// LogPdfVal returns the value of the node returned by LogPdfNode()
func (g *GaussianMLP) LogPdfVal() G.Value {
	return g.logPdfVal
}

// Learnables returns the learnable nodes of the policy, the nodes of
// the mean network followed by the log standard deviation
func (g *GaussianMLP) Learnables() G.Nodes {
	return append(append(G.Nodes{}, g.net.Learnables()...), g.logStd)
}

// Model returns the learnables of the policy as ValueGrads, which can
// be passed to a Gorgonia Solver
func (g *GaussianMLP) Model() []G.ValueGrad {
	return append(append([]G.ValueGrad{}, g.net.Model()...), g.logStd)
}

// Set sets the weights of the receiver to copies of the weights of
// source
func (g *GaussianMLP) Set(source *GaussianMLP) error {
	if err := g.net.Set(source.net); err != nil {
		return fmt.Errorf("set: could not set mean network: %v", err)
	}
	logStd := source.logStd.Value().(*tensor.Dense).Clone().(*tensor.Dense)
	if err := G.Let(g.logStd, logStd); err != nil {
		return fmt.Errorf("set: could not set log standard deviation: %v",
			err)
	}
	return nil
}

// Weights returns a copy of the weights of the policy, ordered as
// Learnables
func (g *GaussianMLP) Weights() [][]float64 {
	return append(network.Weights(g.net), g.LogStd())
}

// SetWeights sets the weights of the policy, ordered as Learnables
func (g *GaussianMLP) SetWeights(weights [][]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("setWeights: no weights given")
	}

	last := len(weights) - 1
	if err := network.SetWeights(g.net, weights[:last]); err != nil {
		return fmt.Errorf("setWeights: %v", err)
	}
	if len(weights[last]) != g.actionDims {
		return fmt.Errorf("setWeights: log standard deviation has %v "+
			"dimensions, expected %v", len(weights[last]), g.actionDims)
	}

	logStd := tensor.New(
		tensor.WithShape(1, g.actionDims),
		tensor.WithBacking(append([]float64(nil), weights[last]...)),
	)
	return G.Let(g.logStd, logStd)
}

// CloneWithBatch clones a GaussianMLP with a new batch size. The clone
// has the same weights and action sampling seed as the receiver.
func (g *GaussianMLP) CloneWithBatch(batch int) (*GaussianMLP, error) {
	net, err := g.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}

	clone, err := newGaussianMLPFromNet(net, g.seed)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	if err := clone.Set(g); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return clone, nil
}

// Network returns the mean network of the GaussianMLP
func (g *GaussianMLP) Network() network.NeuralNet {
	return g.net
}

// Eval sets the policy to evaluation mode, in which it selects the
// mean action
func (g *GaussianMLP) Eval() { g.eval = true }

// Train sets the policy to training mode
func (g *GaussianMLP) Train() { g.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (g *GaussianMLP) IsEval() bool { return g.eval }

// Close closes the policy's VM
func (g *GaussianMLP) Close() error {
	if g.vm != nil {
		return g.vm.Close()
	}
	return nil
}
