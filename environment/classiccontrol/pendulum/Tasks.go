package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/pendulumac/environment"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the negative cost
//
//	θ² + 0.1 θ̇² + 0.001 u²
//
// where θ is the normalized angle from the positive y-axis and u is
// the applied torque, so the best possible reward of 0 is reached
// with the pendulum upright, motionless, and no torque applied.
type SwingUp struct {
	environment.Starter
	environment.Ender
}

// NewSwingUp creates and returns a new SwingUp task which ends
// episodes after cutoff steps
func NewSwingUp(s environment.Starter, cutoff int) *SwingUp {
	ender := environment.NewStepLimit(cutoff)
	return &SwingUp{s, ender}
}

// NewStarter returns the default starting state distribution of the
// pendulum, uniform over angles in [-π, π] and speeds in [-1, 1]
func NewStarter(seed uint64) environment.Starter {
	bounds := []r1.Interval{
		{Min: -AngleBound, Max: AngleBound},
		{Min: -StartSpeedBound, Max: StartSpeedBound},
	}
	return environment.NewUniformStarter(bounds, seed)
}

// GetReward returns the reward for applying action in state. The
// next state is ignored.
func (s *SwingUp) GetReward(state, action, _ mat.Vector) float64 {
	th := angleNormalize(state.AtVec(0))
	thdot := state.AtVec(1)
	u := action.AtVec(0)

	return -(th*th + 0.1*thdot*thdot + 0.001*u*u)
}

// Min returns the minimum possible reward
func (s *SwingUp) Min() float64 {
	return -(math.Pi*math.Pi + 0.1*SpeedBound*SpeedBound +
		0.001*TorqueBound*TorqueBound)
}

// Max returns the maximum possible reward
func (s *SwingUp) Max() float64 {
	return 0.0
}
