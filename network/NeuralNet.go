// Package network implements feed forward neural networks as Gorgonia
// computational graphs.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet implements a neural network whose input is a fixed size
// batch of feature rows.
//
// A NeuralNet only builds the expression graph; running the graph
// requires a Gorgonia VM owned by the caller.
type NeuralNet interface {
	Graph() *G.ExprGraph
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	Outputs() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() G.Value
	Prediction() *G.Node
}

// Weights returns a copy of the values of the learnable parameters of
// net in the order given by net.Learnables()
func Weights(net NeuralNet) [][]float64 {
	learnables := net.Learnables()
	weights := make([][]float64, len(learnables))
	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		weights[i] = append([]float64(nil), data...)
	}
	return weights
}

// SetWeights sets the learnable parameters of net to weights, which
// must be ordered and sized as returned by Weights
func SetWeights(net NeuralNet, weights [][]float64) error {
	learnables := net.Learnables()
	if len(learnables) != len(weights) {
		return fmt.Errorf("setWeights: expected %v weight tensors but got %v",
			len(learnables), len(weights))
	}

	for i, node := range learnables {
		if node.Shape().TotalSize() != len(weights[i]) {
			return fmt.Errorf("setWeights: weight tensor %v has size %v, "+
				"expected %v", i, len(weights[i]), node.Shape().TotalSize())
		}
		backing := append([]float64(nil), weights[i]...)
		value := tensor.New(
			tensor.WithShape(node.Shape()...),
			tensor.WithBacking(backing),
		)
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("setWeights: could not set weights: %v", err)
		}
	}
	return nil
}

// set sets the values of the dest nodes to copies of the values of
// the source nodes
func set(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("set: source and destination have different " +
			"numbers of learnables")
	}

	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("set: learnable %v has shape %v in destination "+
				"but %v in source", i, dest[i].Shape(), source[i].Shape())
		}
		value := source[i].Value().(*tensor.Dense).Clone().(*tensor.Dense)
		if err := G.Let(dest[i], value); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %v", i, err)
		}
	}
	return nil
}
