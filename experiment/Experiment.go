// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"go.uber.org/multierr"

	"github.com/samuelfneumann/pendulumac/agent"
	"github.com/samuelfneumann/pendulumac/environment/envconfig"
	"github.com/samuelfneumann/pendulumac/experiment/checkpointer"
	"github.com/samuelfneumann/pendulumac/experiment/tracker"
)

// Experiment outlines structs that can run experiments. Experiments
// send each TimeStep to their Trackers, which cache the data they
// need to later be saved to disk with Save(). Run() runs episodes
// until the maximum number of episodes is reached or the context is
// cancelled. RunEpisode() runs a single episode.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode runs a single episode and returns whether the
	// experiment has finished
	RunEpisode() (bool, error)

	// Save all tracked data to disk
	Save() error

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment
	Register(t tracker.Tracker)

	// AddCheckpointer adds a checkpointer.Checkpointer to the
	// experiment
	AddCheckpointer(c checkpointer.Checkpointer)

	// Agent returns the agent being trained
	Agent() agent.Agent

	// Close releases the resources of the agent and environment
	Close() error
}

// Type is the type of experiment
type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	MaxSteps  uint // Number of episodes
	EnvConf   envconfig.Config
	AgentConf agent.TypedConfig
}

// Validate returns an error if the Config cannot create an experiment
func (c Config) Validate() error {
	if c.Type != OnlineExp {
		return fmt.Errorf("validate: no such experiment type %v", c.Type)
	}
	if c.MaxSteps == 0 {
		return fmt.Errorf("validate: experiment must run at least 1 episode")
	}
	if err := c.EnvConf.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	if c.AgentConf.Config == nil {
		return fmt.Errorf("validate: no agent configuration")
	}
	if err := c.AgentConf.Validate(); err != nil {
		return fmt.Errorf("validate: %v", err)
	}
	return nil
}

// episodeCutoffer is an agent configuration that depends on the
// maximum length of episodes
type episodeCutoffer interface {
	WithEpisodeCutoff(cutoff int) agent.Config
}

// CreateExp creates the experiment described by the Config. The
// environment and agent are seeded with seed. Agent configurations
// that depend on the episode cutoff are given the cutoff of the
// environment.
func (c Config) CreateExp(seed uint64, logger log.Logger) (Experiment,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("createExp: %v", err)
	}

	agentConf := c.AgentConf.Config
	if cutoffer, ok := agentConf.(episodeCutoffer); ok {
		agentConf = cutoffer.WithEpisodeCutoff(c.EnvConf.MaxEpisodeSteps())
	}

	env, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %v",
			err)
	}
	a, err := agentConf.CreateAgent(env, seed)
	if err != nil {
		return nil, multierr.Append(
			fmt.Errorf("createExp: could not create agent: %v", err),
			closeAll(env),
		)
	}

	return NewOnline(env, a, c.MaxSteps, logger), nil
}
