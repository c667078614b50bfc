// Package checkpointer implements Checkpointers, which save agents
// during an experiment
package checkpointer

import (
	"github.com/samuelfneumann/pendulumac/agent"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// Checkpointer checkpoints/saves serializable agents based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}

// Serializable is an object that can be saved to a file
type Serializable = agent.Serializable
