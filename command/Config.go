// Package command implements the command line interface for training
// an actor-critic agent on Pendulum
package command

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/pendulumac/agent"
	"github.com/samuelfneumann/pendulumac/agent/nonlinear/continuous/vanillaac"
	"github.com/samuelfneumann/pendulumac/environment/envconfig"
	"github.com/samuelfneumann/pendulumac/experiment"
)

// Config is the configuration of a training run. Config files are JSON
// encoded Configs; fields missing from a file keep their defaults.
type Config struct {
	Agent    agent.TypedConfig
	Env      envconfig.Config
	MaxSteps uint // Number of episodes
	Seed     uint64
}

// DefaultConfig returns the default training run: a vanilla
// actor-critic agent trained for 100,000 episodes of the pendulum
// swing up task with seed 42
func DefaultConfig() Config {
	return Config{
		Agent:    agent.NewTypedConfig(vanillaac.DefaultGaussianMLPConfig()),
		Env:      envconfig.Default(),
		MaxSteps: 100_000,
		Seed:     42,
	}
}

// LoadConfig reads a Config from a JSON file
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadConfig: %v", err)
	}

	c := DefaultConfig()
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("loadConfig: could not decode %v: %v",
			filename, err)
	}
	return c, nil
}

// Experiment returns the configuration of the experiment that the
// Config runs
func (c Config) Experiment() experiment.Config {
	return experiment.Config{
		Type:      experiment.OnlineExp,
		MaxSteps:  c.MaxSteps,
		EnvConf:   c.Env,
		AgentConf: c.Agent,
	}
}
