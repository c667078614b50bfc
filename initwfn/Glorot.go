package initwfn

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create(src rand.Source) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		in, out := fans(s...)
		limit := g.Gain * math.Sqrt(6.0/(in+out))
		dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}
		return sample(dt, dist.Rand, s...)
	}
}

// GlorotNConfig implements a configuration of the Glorot Normal
// initialization algorithm.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a new Glorot Normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) {
	config := GlorotNConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by the
// configuration.
func (g GlorotNConfig) Type() Type {
	return GlorotN
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotNConfig) Create(src rand.Source) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		in, out := fans(s...)
		std := g.Gain * math.Sqrt(2.0/(in+out))
		dist := distuv.Normal{Mu: 0, Sigma: std, Src: src}
		return sample(dt, dist.Rand, s...)
	}
}

// sample fills a backing slice of the given dtype for a tensor of
// shape s with draws from rnd
func sample(dt tensor.Dtype, rnd func() float64, s ...int) interface{} {
	n := size(s...)
	switch dt {
	case tensor.Float64:
		data := make([]float64, n)
		for i := range data {
			data[i] = rnd()
		}
		return data

	case tensor.Float32:
		data := make([]float32, n)
		for i := range data {
			data[i] = float32(rnd())
		}
		return data

	default:
		panic("sample: dtype must be one of Float64 or Float32")
	}
}
