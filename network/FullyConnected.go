package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// fcLayer implements a fully connected layer of a feed forward neural
// network
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x = G.Must(G.Mul(x, f.weights))
	if f.bias != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x = G.Must(G.BroadcastAdd(x, f.bias, nil, []byte{0}))
	}
	if f.act == nil || f.act.IsIdentity() {
		return x, nil
	}
	return f.act.fwd(x)
}

// learnables returns the learnable nodes of the layer
func (f *fcLayer) learnables() G.Nodes {
	if f.bias == nil {
		return G.Nodes{f.weights}
	}
	return G.Nodes{f.weights, f.bias}
}

// addfcLayers adds fully connected layers of the given sizes to g.
// Layer i maps the output of layer i-1 (features for the first layer)
// to layerSizes[i] units. Weights are initialized with init and
// biases with zeroes.
func addfcLayers(g *G.ExprGraph, features int, layerSizes []int,
	biases []bool, activations []*Activation, init G.InitWFn,
	prefix string) ([]*fcLayer, error) {
	if len(biases) != len(layerSizes) {
		return nil, fmt.Errorf("addfcLayers: invalid number of biases "+
			"\n\twant(%v)\n\thave(%v)", len(layerSizes), len(biases))
	}
	if len(activations) != len(layerSizes) {
		return nil, fmt.Errorf("addfcLayers: invalid number of activations "+
			"\n\twant(%v)\n\thave(%v)", len(layerSizes), len(activations))
	}

	layers := make([]*fcLayer, 0, len(layerSizes))
	in := features
	for i, out := range layerSizes {
		if out <= 0 {
			return nil, fmt.Errorf("addfcLayers: layer %v must have a "+
				"positive number of units", i)
		}

		weights := G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(in, out),
			G.WithName(fmt.Sprintf("%vL%dW", prefix, i)),
			G.WithInit(init),
		)

		var bias *G.Node
		if biases[i] {
			bias = G.NewMatrix(
				g,
				tensor.Float64,
				G.WithShape(1, out),
				G.WithName(fmt.Sprintf("%vL%dB", prefix, i)),
				G.WithInit(G.Zeroes()),
			)
		}

		layers = append(layers, &fcLayer{
			weights: weights,
			bias:    bias,
			act:     activations[i],
		})
		in = out
	}
	return layers, nil
}
