package envconfig

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefault(t *testing.T) {
	env, step, err := Default().Create(42)
	require.NoError(t, err)
	assert.True(t, step.First())
	assert.Equal(t, 3, env.ObservationSpec().Dims())
	assert.Equal(t, 1, env.ActionSpec().Dims())

	// Same seed, same starting state
	_, other, err := Default().Create(42)
	require.NoError(t, err)
	assert.Equal(t, step.Observation.RawVector().Data,
		other.Observation.RawVector().Data)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.Task = "Balance"
	_, _, err := c.Create(0)
	assert.Error(t, err)

	c = Default()
	c.EpisodeCutoff = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Environment = "Cartpole"
	assert.Error(t, c.Validate())
}

func TestConfigJSON(t *testing.T) {
	in := `{"Environment": "Pendulum", "Task": "SwingUp",
		"EpisodeCutoff": 50, "Discount": 0.9}`
	var c Config
	require.NoError(t, json.Unmarshal([]byte(in), &c))
	assert.Equal(t, NewConfig(Pendulum, SwingUp, 50, 0.9, false), c)
}

func TestMaxEpisodeSteps(t *testing.T) {
	c := NewConfig(Pendulum, SwingUp, 75, 0.99, false)
	assert.Equal(t, 75, c.MaxEpisodeSteps())

	c.Gym = true
	assert.Equal(t, DefaultEpisodeCutoff, c.MaxEpisodeSteps())
}
