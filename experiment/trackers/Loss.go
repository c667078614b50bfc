package trackers

import (
	"github.com/samuelfneumann/pendulumac/experiment/tracker"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// LossReporter is an agent that reports the losses of its most recent
// update
type LossReporter interface {
	Updates() int
	PolicyLoss() float64
	ValueLoss() float64
}

// Loss tracks one of the losses of an agent, recording it each time
// the agent performs an update
type Loss struct {
	agent    LossReporter
	loss     func() float64
	updates  int
	losses   []float64
	filename string
}

// NewPolicyLoss returns a Loss tracking the policy loss of a
func NewPolicyLoss(filename string, a LossReporter) *Loss {
	return &Loss{agent: a, loss: a.PolicyLoss, filename: filename}
}

// NewValueLoss returns a Loss tracking the value function loss of a
func NewValueLoss(filename string, a LossReporter) *Loss {
	return &Loss{agent: a, loss: a.ValueLoss, filename: filename}
}

// Track records the loss if the agent has updated since the last call
func (l *Loss) Track(ts.TimeStep) {
	if updates := l.agent.Updates(); updates > l.updates {
		l.updates = updates
		l.losses = append(l.losses, l.loss())
	}
}

// Data returns the loss of each update
func (l *Loss) Data() []float64 {
	return l.losses
}

// Save saves the losses to disk
func (l *Loss) Save() error {
	return tracker.SaveData(l.filename, l.losses)
}
