// Package critic implements value function critics for continuous
// action agents
package critic

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/network"
)

// Critic implements a value function approximated by an MLP. A state
// value critic predicts V(s) and takes states as input. A
// state-action value critic predicts Q(s, a) and takes as input each
// state concatenated with its action.
//
// A Critic with batch size 1 owns a VM and can compute values through
// Value and Values. Critics with larger batch sizes are meant to be
// trained, and the VM computing their loss is owned by the learner.
type Critic struct {
	vm     G.VM
	net    network.NeuralNet
	values *G.Node

	stateAction bool
	features    int
	actionDims  int
}

// New returns a new Critic for the argument environment. If
// stateAction is true, the critic predicts action values, otherwise
// it predicts state values. The network architecture is given by
// hiddenSizes, biases, and activations, see network.NewMLP.
func New(env environment.Environment, batch int, stateAction bool,
	hiddenSizes []int, biases []bool, activations []*network.Activation,
	init G.InitWFn) (*Critic, error) {
	features := env.ObservationSpec().Dims()
	actionDims := env.ActionSpec().Dims()

	inputs := features
	if stateAction {
		inputs += actionDims
	}

	net, err := network.NewMLP(inputs, batch, 1, G.NewGraph(), hiddenSizes,
		biases, init, activations, "Critic")
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic network: %v",
			err)
	}

	return newFromNet(net, stateAction, features, actionDims), nil
}

func newFromNet(net network.NeuralNet, stateAction bool, features,
	actionDims int) *Critic {
	c := &Critic{
		net:         net,
		values:      G.Must(G.Ravel(net.Prediction())),
		stateAction: stateAction,
		features:    features,
		actionDims:  actionDims,
	}
	if net.BatchSize() == 1 {
		c.vm = G.NewTapeMachine(net.Graph())
	}
	return c
}

// SetInput sets the input of the critic's network. Both arguments are
// given in row major order. The actions are ignored by state value
// critics and may be nil.
func (c *Critic) SetInput(states, actions []float64) error {
	batch := c.net.BatchSize()
	if len(states) != batch*c.features {
		return fmt.Errorf("setInput: invalid number of states\n\twant(%v)"+
			"\n\thave(%v)", batch*c.features, len(states))
	}
	if !c.stateAction {
		return c.net.SetInput(states)
	}

	if len(actions) != batch*c.actionDims {
		return fmt.Errorf("setInput: invalid number of actions\n\twant(%v)"+
			"\n\thave(%v)", batch*c.actionDims, len(actions))
	}

	// Concatenate each state with its action
	cols := c.features + c.actionDims
	input := make([]float64, batch*cols)
	for i := 0; i < batch; i++ {
		row := input[i*cols : (i+1)*cols]
		copy(row, states[i*c.features:(i+1)*c.features])
		copy(row[c.features:], actions[i*c.actionDims:(i+1)*c.actionDims])
	}
	return c.net.SetInput(input)
}

// Values returns the predicted values of a batch of states, or
// state-action pairs for state-action critics. The critic must have a
// batch size of 1, and the values are computed one row at a time.
func (c *Critic) Values(states, actions []float64) ([]float64, error) {
	if c.vm == nil {
		return nil, fmt.Errorf("values: critic with batch size %v cannot "+
			"predict values", c.net.BatchSize())
	}
	if len(states)%c.features != 0 {
		return nil, fmt.Errorf("values: states should have a multiple of "+
			"%v elements", c.features)
	}

	n := len(states) / c.features
	if c.stateAction && len(actions) != n*c.actionDims {
		return nil, fmt.Errorf("values: invalid number of actions"+
			"\n\twant(%v)\n\thave(%v)", n*c.actionDims, len(actions))
	}

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		state := states[i*c.features : (i+1)*c.features]
		var action []float64
		if c.stateAction {
			action = actions[i*c.actionDims : (i+1)*c.actionDims]
		}

		value, err := c.Value(state, action)
		if err != nil {
			return nil, fmt.Errorf("values: %v", err)
		}
		values[i] = value
	}
	return values, nil
}

// Value returns the predicted value of a single state, or state-action
// pair for state-action critics
func (c *Critic) Value(state, action []float64) (float64, error) {
	if c.vm == nil {
		return 0, fmt.Errorf("value: critic with batch size %v cannot "+
			"predict values", c.net.BatchSize())
	}

	if err := c.SetInput(state, action); err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	if err := c.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("value: could not run critic VM: %v", err)
	}
	defer c.vm.Reset()

	return c.net.Output().Data().([]float64)[0], nil
}

// Prediction returns the node holding the predicted values, of shape
// (batch)
func (c *Critic) Prediction() *G.Node {
	return c.values
}

// StateAction returns whether the critic predicts action values
func (c *Critic) StateAction() bool {
	return c.stateAction
}

// Network returns the network of the critic
func (c *Critic) Network() network.NeuralNet {
	return c.net
}

// Set sets the weights of the receiver to copies of the weights of
// source
func (c *Critic) Set(source *Critic) error {
	if c.stateAction != source.stateAction {
		return fmt.Errorf("set: cannot set state value critic from " +
			"state-action value critic")
	}
	return c.net.Set(source.net)
}

// CloneWithBatch clones a Critic with a new batch size. The clone has
// the same weights as the receiver.
func (c *Critic) CloneWithBatch(batch int) (*Critic, error) {
	net, err := c.net.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: %v", err)
	}
	return newFromNet(net, c.stateAction, c.features, c.actionDims), nil
}

// Close closes the critic's VM
func (c *Critic) Close() error {
	if c.vm != nil {
		return c.vm.Close()
	}
	return nil
}
