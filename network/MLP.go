package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with a fixed batch size
type mlp struct {
	g          *G.ExprGraph
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Data needed for cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation
	prefix      string

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output units, which takes as input batch rows of features
// features each. The graph parameter g is populated with the MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// linear layer with a bias unit is always added such that the network
// predicts outputs values for each input row. For index i,
// hiddenSizes[i] is the number of nodes in hidden layer i; biases[i]
// is true if the hidden layer contains a bias unit; and activations[i]
// is the activation function of hidden layer i. The parameter init
// determines the weight initialization scheme, biases are initialized
// to zero.
//
// Node names are prefixed with prefix so that more than one MLP can
// share a graph.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, prefix string) (NeuralNet, error) {
	if features <= 0 || batch <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("newMLP: features, batch, and outputs must "+
			"be positive, got (%v, %v, %v)", features, batch, outputs)
	}
	if len(hiddenSizes) != len(activations) {
		msg := "newMLP: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newMLP: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName(prefix+"Input"),
		G.WithInit(G.Zeroes()),
	)

	layerSizes := append(append([]int{}, hiddenSizes...), outputs)
	layerBiases := append(append([]bool{}, biases...), true)
	layerActs := append(append([]*Activation{}, activations...), Identity())

	layers, err := addfcLayers(g, features, layerSizes, layerBiases,
		layerActs, init, prefix)
	if err != nil {
		return nil, fmt.Errorf("newMLP: could not add layers: %v", err)
	}

	net := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
		prefix:      prefix,
	}

	if _, err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newMLP: could not compute forward pass: %v",
			err)
	}
	return net, nil
}

// fwd adds the forward pass of the MLP to the graph and records the
// prediction node
func (m *mlp) fwd(x *G.Node) (*G.Node, error) {
	var err error
	for i, layer := range m.layers {
		if x, err = layer.fwd(x); err != nil {
			return nil, fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	m.prediction = x
	G.Read(m.prediction, &m.predVal)
	return m.prediction, nil
}

// CloneWithBatch clones the MLP onto a new graph with a new batch
// size. The clone has the same weights as the receiver.
func (m *mlp) CloneWithBatch(batch int) (NeuralNet, error) {
	g := G.NewGraph()
	net, err := NewMLP(m.numInputs, batch, m.numOutputs, g, m.hiddenSizes,
		m.biases, G.Zeroes(), m.activations, m.prefix)
	if err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not create clone: %v",
			err)
	}

	if err := net.Set(m); err != nil {
		return nil, fmt.Errorf("cloneWithBatch: could not copy weights: %v",
			err)
	}
	return net, nil
}

// SetInput sets the value of the input node of the network. The
// input is given in row major order.
func (m *mlp) SetInput(input []float64) error {
	if len(input) != m.numInputs*m.batchSize {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", m.numInputs*m.batchSize, len(input))
	}

	inputTensor := tensor.New(
		tensor.WithShape(m.input.Shape()...),
		tensor.WithBacking(input),
	)
	return G.Let(m.input, inputTensor)
}

// Set sets the weights of the receiver to copies of the weights of
// source
func (m *mlp) Set(source NeuralNet) error {
	if err := set(m.Learnables(), source.Learnables()); err != nil {
		return fmt.Errorf("set: %v", err)
	}
	return nil
}

// Learnables returns the learnable nodes of the network, ordered by
// layer with each layer's weights preceding its bias
func (m *mlp) Learnables() G.Nodes {
	if m.learnables != nil {
		return m.learnables
	}

	learnables := make(G.Nodes, 0, 2*len(m.layers))
	for _, layer := range m.layers {
		learnables = append(learnables, layer.learnables()...)
	}
	m.learnables = learnables
	return learnables
}

// Model returns the learnables of the network as ValueGrads, which
// can be passed to a Gorgonia Solver
func (m *mlp) Model() []G.ValueGrad {
	if m.model != nil {
		return m.model
	}

	learnables := m.Learnables()
	model := make([]G.ValueGrad, len(learnables))
	for i, node := range learnables {
		model[i] = node
	}
	m.model = model
	return model
}

// Graph returns the computational graph of the network
func (m *mlp) Graph() *G.ExprGraph {
	return m.g
}

// BatchSize returns the batch size of the network input
func (m *mlp) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features of each input row
func (m *mlp) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs predicted for each input row
func (m *mlp) Outputs() int {
	return m.numOutputs
}

// Output returns the value of the prediction node after a VM on the
// network's graph has been run
func (m *mlp) Output() G.Value {
	return m.predVal
}

// Prediction returns the node of the graph which holds the output of
// the network, of shape (BatchSize, Outputs)
func (m *mlp) Prediction() *G.Node {
	return m.prediction
}
