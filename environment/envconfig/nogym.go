//go:build !gym
// +build !gym

package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/pendulumac/environment"
	ts "github.com/samuelfneumann/pendulumac/timestep"
)

func createGym(name EnvName, _ float64, _ uint64) (env.Environment,
	ts.TimeStep, error) {
	return nil, ts.TimeStep{}, fmt.Errorf("createGym: cannot create gym "+
		"environment %v, binary built without the gym build tag", name)
}
