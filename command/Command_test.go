package command

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/pendulumac/agent/nonlinear/continuous/vanillaac"
	"github.com/samuelfneumann/pendulumac/experiment/tracker"
)

const smallConfig = `{
	"Agent": {
		"Type": "GaussianVanillaAC-MLP",
		"Config": {
			"PolicyLayers": [4],
			"PolicyBiases": [true],
			"PolicyActivations": ["tanh"],
			"ValueFnLayers": [4],
			"ValueFnBiases": [true],
			"ValueFnActivations": ["tanh"],
			"BatchSize": 15
		}
	},
	"Env": {"EpisodeCutoff": 10},
	"MaxSteps": 4
}`

func writeConfig(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(filename, []byte(smallConfig), 0644))
	return filename
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	c, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)

	assert.Equal(t, uint(4), c.MaxSteps)
	assert.Equal(t, uint64(42), c.Seed)
	assert.Equal(t, 10, c.Env.EpisodeCutoff)
	assert.Equal(t, 0.99, c.Env.Discount)

	vac, ok := c.Agent.Config.(vanillaac.GaussianMLPConfig)
	require.True(t, ok)
	assert.Equal(t, 15, vac.BatchSize)
	assert.Equal(t, 0.97, vac.TraceDecay)

	exp := c.Experiment()
	assert.Equal(t, uint(4), exp.MaxSteps)
	require.NoError(t, exp.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	filename := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(filename, []byte(`{"Agent": 3}`), 0644))
	_, err = LoadConfig(filename)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "warn")
	require.NoError(t, err)

	require.NoError(t, level.Info(logger).Log("msg", "hidden"))
	assert.Empty(t, buf.String())
	require.NoError(t, level.Warn(logger).Log("msg", "shown"))
	assert.Contains(t, buf.String(), "msg=shown")

	_, err = newLogger(&buf, "verbose")
	assert.Error(t, err)
}

func TestTrainSavesData(t *testing.T) {
	c, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "run")
	out := Output{SaveDir: dir, CheckpointEvery: 2, Plot: true}
	require.NoError(t, Train(context.Background(), c, out,
		log.NewNopLogger()))

	returns, err := tracker.LoadData(filepath.Join(dir, "returns.bin"))
	require.NoError(t, err)
	assert.Len(t, returns, 4)

	losses, err := tracker.LoadData(filepath.Join(dir, "value_loss.bin"))
	require.NoError(t, err)
	assert.Len(t, losses, 2)

	for _, name := range []string{"lengths.bin", "policy_loss.bin",
		"agent.bin", "checkpoint1.bin", "checkpoint2.bin", "returns.png",
		"value_loss.png"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestRootCommand(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	cmd := RootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", writeConfig(t), "--episodes", "2",
		"--seed", "3", "--save", dir, "--progress"})
	require.NoError(t, cmd.Execute())

	returns, err := tracker.LoadData(filepath.Join(dir, "returns.bin"))
	require.NoError(t, err)
	assert.Len(t, returns, 2)
	assert.Contains(t, stdout.String(), "100.00%")
	assert.Contains(t, stderr.String(), "starting training")
	assert.Contains(t, stderr.String(), "seed=3")
}

func TestTrainTimestampsCheckpoints(t *testing.T) {
	c, err := LoadConfig(writeConfig(t))
	require.NoError(t, err)

	dir := t.TempDir()
	out := Output{SaveDir: dir, CheckpointEvery: 2, TimestampCheckpoints: true}
	require.NoError(t, Train(context.Background(), c, out,
		log.NewNopLogger()))

	checkpoints, err := filepath.Glob(filepath.Join(dir, "checkpoint-*Z.bin"))
	require.NoError(t, err)
	assert.Len(t, checkpoints, 2)
	assert.NoFileExists(t, filepath.Join(dir, "checkpoint1.bin"))
}

func TestRootCommandRejectsBadLogLevel(t *testing.T) {
	cmd := RootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", writeConfig(t), "--log-level", "loud"})
	assert.Error(t, cmd.Execute())
}
