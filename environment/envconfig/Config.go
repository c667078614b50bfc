// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/environment/classiccontrol/pendulum"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Pendulum EnvName = "Pendulum"
)

// TaskName stores the tasks that can be configured with this package.
// The tasks that can be used with each environment are as follows:
//
//	Environment			Task
//	Pendulum			SwingUp
type TaskName string

// Tasks available for configuration
const (
	SwingUp TaskName = "SwingUp"
)

// DefaultEpisodeCutoff is the episode cutoff of the Gym pendulum
const DefaultEpisodeCutoff = 200

// Config implements a specific configuration of a specific environment
// and specific task. If Gym is true, the environment is created through
// OpenAI Gym with Gym's default task and episode cutoff, which requires
// the gym build tag.
type Config struct {
	Environment   EnvName
	Task          TaskName
	EpisodeCutoff int
	Discount      float64
	Gym           bool
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff int,
	discount float64, gym bool) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
		Gym:           gym,
	}
}

// Default returns the default configuration of the pendulum swing up
// task
func Default() Config {
	return NewConfig(Pendulum, SwingUp, DefaultEpisodeCutoff, 0.99, false)
}

// Validate returns an error if the Config cannot be used to create an
// environment
func (c Config) Validate() error {
	if c.Environment != Pendulum {
		return fmt.Errorf("validate: no such environment %v", c.Environment)
	}
	if c.Task != SwingUp {
		return fmt.Errorf("validate: environment %v has no task %v",
			c.Environment, c.Task)
	}
	if c.EpisodeCutoff <= 0 {
		return fmt.Errorf("validate: episode cutoff must be positive")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1]")
	}
	return nil
}

// MaxEpisodeSteps returns the maximum number of steps in an episode of
// the environment described by the Config
func (c Config) MaxEpisodeSteps() int {
	if c.Gym {
		return DefaultEpisodeCutoff
	}
	return c.EpisodeCutoff
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %v", err)
	}

	if c.Gym {
		return createGym(c.Environment, c.Discount, seed)
	}
	return CreatePendulum(c.Task, c.EpisodeCutoff, seed, c.Discount)
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(taskName TaskName, cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep, error) {
	var task env.Task
	switch taskName {
	case SwingUp:
		task = pendulum.NewSwingUp(pendulum.NewStarter(seed), cutoff)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: Pendulum "+
			"environment has no task %v", taskName)
	}

	p, step, err := pendulum.New(task, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: %v", err)
	}
	return p, step, nil
}
