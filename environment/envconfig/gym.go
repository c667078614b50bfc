//go:build gym
// +build gym

package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/environment/gym"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

// gymNames maps environments to their names in OpenAI Gym
var gymNames = map[EnvName]string{
	Pendulum: gym.PendulumV0,
}

func createGym(name EnvName, discount float64, seed uint64) (
	env.Environment, ts.TimeStep, error) {
	gymName, ok := gymNames[name]
	if !ok {
		return nil, ts.TimeStep{}, fmt.Errorf("createGym: no gym "+
			"environment for %v", name)
	}
	g, step, err := gym.New(gymName, discount, seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createGym: %v", err)
	}
	return g, step, nil
}
