// Package rewards implements computations over sequences of rewards
// such as discounted returns and generalized advantage estimates.
//
// Sequences may contain several concatenated episodes. An entry of
// dones equal to 1 marks the last step of an episode, after which
// nothing is carried over from later steps.
package rewards

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Discount returns the discounted returns of a sequence of rewards.
// For each step t, working backwards from bootstrap,
//
//	R_t = r_t + γ (1 - done_t) R_{t+1}
//
// where R_T = bootstrap. This function panics if rewards and dones
// have different lengths.
func Discount(gamma float64, rewards, dones []float64,
	bootstrap float64) []float64 {
	if len(rewards) != len(dones) {
		panic(fmt.Sprintf("discount: rewards (%v) and dones (%v) must "+
			"have the same length", len(rewards), len(dones)))
	}

	returns := make([]float64, len(rewards))
	r := bootstrap
	for t := len(rewards) - 1; t >= 0; t-- {
		r = rewards[t] + gamma*r*(1-dones[t])
		returns[t] = r
	}
	return returns
}

// TemporalDifference returns the one-step temporal difference errors
//
//	δ_t = r_t + γ (1 - done_t) v_{t+1} - v_t
//
// where v_T = nextValue is the value of the state following the last
// step. This function panics if the arguments have different lengths.
func TemporalDifference(gamma float64, rewards, dones, values []float64,
	nextValue float64) []float64 {
	n := len(rewards)
	if len(dones) != n || len(values) != n {
		panic(fmt.Sprintf("temporalDifference: rewards (%v), dones (%v), "+
			"and values (%v) must have the same length", n, len(dones),
			len(values)))
	}
	if n == 0 {
		return []float64{}
	}

	next := make([]float64, n)
	copy(next, values[1:])
	next[n-1] = nextValue

	notDone := make([]float64, n)
	for i, d := range dones {
		notDone[i] = 1 - d
	}

	nextVals := mat.NewVecDense(n, next)
	nextVals.MulElemVec(nextVals, mat.NewVecDense(n, notDone))

	deltas := mat.NewVecDense(n, nil)
	deltas.AddScaledVec(mat.NewVecDense(n, rewards), gamma, nextVals)
	deltas.SubVec(deltas, mat.NewVecDense(n, values))

	return deltas.RawVector().Data
}

// GeneralizedAdvantage returns the generalized advantage estimates,
// GAE(λ) of https://arxiv.org/abs/1506.02438. The advantages are the
// temporal difference errors discounted by γλ, and are reset at
// episode boundaries. The argument nextValue is the value of the state
// following the last step.
func GeneralizedAdvantage(gamma, lambda float64, rewards, dones,
	values []float64, nextValue float64) []float64 {
	deltas := TemporalDifference(gamma, rewards, dones, values, nextValue)
	return Discount(gamma*lambda, deltas, dones, 0)
}

// Normalize returns x shifted and scaled to have mean 0 and standard
// deviation 1, using the sample standard deviation. The argument eps
// is added to the standard deviation before dividing.
func Normalize(x []float64, eps float64) []float64 {
	mean, std := stat.MeanStdDev(x, nil)

	out := make([]float64, len(x))
	copy(out, x)
	floats.AddConst(-mean, out)
	floats.Scale(1/(std+eps), out)
	return out
}
