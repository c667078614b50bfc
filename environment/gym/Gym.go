//go:build gym
// +build gym

// Package gym provides access to OpenAI Gym environments through the
// GoGym bindings at https://github.com/samuelfneumann/GoGym.
//
// Gym environments use their default tasks and episode cutoffs. The
// package is only built with the gym build tag since GoGym requires a
// Python installation with Gym available.
package gym

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/pendulumac/environment"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// PendulumV0 is the Gym name of the pendulum swing up environment
const PendulumV0 = "Pendulum-v0"

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	name        string
	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite.
func New(name string, discount float64, seed uint64) (*GymEnv,
	ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}

	goGymEnv.Seed(int(seed))
	gymEnv := &GymEnv{
		Environment: goGymEnv,
		name:        name,
		discount:    discount,
	}

	t, err := gymEnv.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return gymEnv, t, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	return spec(g.ObservationSpace(), env.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return spec(g.ActionSpace(), env.Action)
}

// spec converts a GoGym space into a Spec
func spec(space interface{}, t env.SpecType) env.Spec {
	switch s := space.(type) {
	case *gogym.BoxSpace:
		low := s.Low()[0]
		high := s.High()[0]
		shape := mat.NewVecDense(low.Len(), nil)
		return env.NewSpec(shape, t, low, high, env.Continuous)

	default:
		panic(fmt.Sprintf("spec: invalid space type %T, package gym "+
			"supports only GoGym's BoxSpace", space))
	}
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, low, low, env.Continuous)
}

// RewardSpec returns the reward specification of the environment. Gym
// rewards are treated as unbounded.
func (g *GymEnv) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{math.Inf(-1)})
	high := mat.NewVecDense(1, []float64{math.Inf(1)})

	return env.NewSpec(shape, env.Reward, low, high, env.Continuous)
}

// String implements the fmt.Stringer interface
func (g *GymEnv) String() string {
	return fmt.Sprintf("GymEnv(%v)", g.name)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
