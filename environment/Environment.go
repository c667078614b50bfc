// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end
type Ender interface {
	// End returns whether the episode should end. If so, the StepType
	// of the argument TimeStep is changed to timestep.Last
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment. A Task also determines how episodes start and end.
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking action in state and
	// transitioning to nextState
	GetReward(state, action, nextState mat.Vector) float64

	// Min and Max return the bounds on the rewards of the Task
	Min() float64
	Max() float64
}

// Environment implements a simulated environment
type Environment interface {
	fmt.Stringer

	// Reset resets the environment between episodes and returns the
	// first TimeStep of the new episode
	Reset() (ts.TimeStep, error)

	// Step takes one environmental step given action and returns the
	// next TimeStep and whether the episode has ended
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
