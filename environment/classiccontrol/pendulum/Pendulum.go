// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/pendulumac/environment"
	ts "github.com/samuelfneumann/pendulumac/timestep"
	"github.com/samuelfneumann/pendulumac/utils/floatutils"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	StartSpeedBound float64 = 1.0 // +/- Speed bounds of starting states

	dt      float64 = 0.05
	Gravity float64 = 10.0
	Mass    float64 = 1.0
	Length  float64 = 1.0

	ActionDims      int = 1
	ObservationDims int = 3
	stateDims       int = 2
)

// Pendulum implements the classic control environment Pendulum. In
// this environment, a pendulum is attached to a fixed base. An agent
// can swing the pendulum back and forth, but the swinging torque is
// underpowered. In order to be able to swing the pendulum straight up,
// it must first be rocked back and forth, using the momentum to
// gradually climb higher until the pendulum can point straight up.
//
// The underlying state consists of the angle θ of the pendulum from
// the positive y-axis and its angular velocity θ̇. Observations are
// the vector [cos θ, sin θ, θ̇]. The angular velocity is clipped to
// [-SpeedBound, SpeedBound] and the angle is kept in [-π, π).
//
// Actions are continuous and 1-dimensional. Actions determine the
// torque to apply to the pendulum at its fixed base and are clipped to
// [-TorqueBound, TorqueBound].
//
// Pendulum implements the environment.Environment interface
type Pendulum struct {
	environment.Task
	gravity      float64
	mass         float64
	length       float64
	speedBounds  r1.Interval
	torqueBounds r1.Interval

	state    *mat.VecDense
	lastStep ts.TimeStep
	discount float64
}

// New creates and returns a new Pendulum environment together with
// the first step of the first episode
func New(t environment.Task, discount float64) (*Pendulum, ts.TimeStep,
	error) {
	p := &Pendulum{
		Task:         t,
		gravity:      Gravity,
		mass:         Mass,
		length:       Length,
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     discount,
	}

	firstStep, err := p.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return p, firstStep, nil
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *Pendulum) Reset() (ts.TimeStep, error) {
	state := p.Start()
	if state.Len() != stateDims {
		return ts.TimeStep{}, fmt.Errorf("reset: starting state should "+
			"have %v dimensions but has %v", stateDims, state.Len())
	}
	if th := state.AtVec(0); th < -AngleBound || th > AngleBound {
		return ts.TimeStep{}, fmt.Errorf("reset: starting angle %v out of "+
			"bounds", th)
	}
	if thdot := state.AtVec(1); thdot < p.speedBounds.Min ||
		thdot > p.speedBounds.Max {
		return ts.TimeStep{}, fmt.Errorf("reset: starting speed %v out of "+
			"bounds %v", thdot, p.speedBounds)
	}

	p.state = state
	p.lastStep = ts.New(ts.First, 0, p.discount, observation(state), 0)
	return p.lastStep, nil
}

// Step takes one environmental step given action and returns the next
// timestep and a bool indicating whether or not the episode has ended
func (p *Pendulum) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be "+
			"%v-dimensional but got %v", ActionDims, action.Len())
	}

	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)
	clipped := mat.NewVecDense(ActionDims, []float64{torque})

	// Rewards depend on the state before the transition
	nextState := p.nextState(torque)
	reward := p.GetReward(p.state, clipped, nextState)

	nextStep := ts.New(ts.Mid, reward, p.discount, observation(nextState),
		p.lastStep.Number+1)
	p.End(&nextStep)

	p.state = nextState
	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the next state of the environment after applying
// torque to the fixed base of the pendulum
func (p *Pendulum) nextState(torque float64) *mat.VecDense {
	th, thdot := p.state.AtVec(0), p.state.AtVec(1)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*p.length*p.length)*torque)*dt
	newth := th + newthdot*dt

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)

	return mat.NewVecDense(stateDims, []float64{angleNormalize(newth),
		newthdot})
}

// State returns a copy of the underlying state [θ, θ̇]
func (p *Pendulum) State() *mat.VecDense {
	return mat.VecDenseCopyOf(p.state)
}

// LastTimeStep returns the last TimeStep that occurred in the
// environment
func (p *Pendulum) LastTimeStep() ts.TimeStep {
	return p.lastStep
}

// DiscountSpec returns the discount specification of the environment
func (p *Pendulum) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.discount})
	upperBound := mat.NewVecDense(1, []float64{p.discount})

	return environment.NewSpec(shape, environment.Discount, lowerBound,
		upperBound, environment.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Pendulum) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lowerBound := mat.NewVecDense(ObservationDims,
		[]float64{-1, -1, p.speedBounds.Min})
	upperBound := mat.NewVecDense(ObservationDims,
		[]float64{1, 1, p.speedBounds.Max})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// ActionSpec returns the action specification of the environment
func (p *Pendulum) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min})
	upperBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// RewardSpec returns the reward specification of the environment
func (p *Pendulum) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{p.Min()})
	upperBound := mat.NewVecDense(1, []float64{p.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// String converts the environment to a string representation
func (p *Pendulum) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	return fmt.Sprintf(str, p.state.AtVec(0), p.state.AtVec(1))
}

// observation returns the observation [cos θ, sin θ, θ̇] of state
func observation(state mat.Vector) *mat.VecDense {
	th, thdot := state.AtVec(0), state.AtVec(1)
	return mat.NewVecDense(ObservationDims, []float64{math.Cos(th),
		math.Sin(th), thdot})
}

// angleNormalize wraps th into [-π, π)
func angleNormalize(th float64) float64 {
	th = math.Mod(th+math.Pi, 2*math.Pi)
	if th < 0 {
		th += 2 * math.Pi
	}
	return th - math.Pi
}
