package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/samuelfneumann/pendulumac/agent"
	"github.com/samuelfneumann/pendulumac/experiment"
	"github.com/samuelfneumann/pendulumac/experiment/checkpointer"
	"github.com/samuelfneumann/pendulumac/experiment/trackers"
)

// progressWidth is the width of the progress bar in characters
const progressWidth = 40

// plotWindow is the number of points averaged in learning curves
const plotWindow = 100

// curve is a learning curve saved as a PNG
type curve struct {
	filename       string
	xLabel, yLabel string
	data           []float64
}

// Output determines which data a training run writes to disk
type Output struct {
	// SaveDir is the directory that data is saved to. If empty, no
	// data is saved.
	SaveDir string

	// CheckpointEvery is the number of episodes between agent
	// checkpoints. Agents are not checkpointed if CheckpointEvery < 1.
	CheckpointEvery int

	// TimestampCheckpoints names checkpoints by the time they were
	// saved instead of enumerating them
	TimestampCheckpoints bool

	// Plot determines whether learning curves are plotted
	Plot bool

	// Progress is where the progress bar is written, nil for no
	// progress bar
	Progress io.Writer
}

// Train runs the training run described by c. If ctx is cancelled,
// training stops after the current episode and all data collected so
// far is saved.
func Train(ctx context.Context, c Config, out Output,
	logger log.Logger) error {
	exp, err := c.Experiment().CreateExp(c.Seed, logger)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	defer exp.Close()

	level.Info(logger).Log("msg", "starting training", "agent",
		c.Agent.Type, "env", c.Env.Environment, "episodes", c.MaxSteps,
		"seed", c.Seed)

	var returns *trackers.Return
	var lengths *trackers.EpisodeLength
	var policyLoss, valueLoss *trackers.Loss
	if out.SaveDir != "" {
		if err := os.MkdirAll(out.SaveDir, 0755); err != nil {
			return fmt.Errorf("train: could not create save directory: %v",
				err)
		}

		returns = trackers.NewReturn(filepath.Join(out.SaveDir, "returns.bin"))
		lengths = trackers.NewEpisodeLength(filepath.Join(out.SaveDir,
			"lengths.bin"))
		exp.Register(returns)
		exp.Register(lengths)

		if reporter, ok := exp.Agent().(trackers.LossReporter); ok {
			policyLoss = trackers.NewPolicyLoss(filepath.Join(out.SaveDir,
				"policy_loss.bin"), reporter)
			valueLoss = trackers.NewValueLoss(filepath.Join(out.SaveDir,
				"value_loss.bin"), reporter)
			exp.Register(policyLoss)
			exp.Register(valueLoss)
		}

		saver, ok := exp.Agent().(agent.Serializable)
		if ok && out.CheckpointEvery > 0 {
			prefix := filepath.Join(out.SaveDir, "checkpoint")
			filename := checkpointer.FilenameEnumerator(0, prefix, ".bin")
			if out.TimestampCheckpoints {
				filename = checkpointer.FileTimer(prefix, ".bin")
			}
			exp.AddCheckpointer(checkpointer.NewNEpisode(out.CheckpointEvery,
				saver, filename))
		}
	}

	if online, ok := exp.(*experiment.Online); ok && out.Progress != nil {
		online.ShowProgress(out.Progress, progressWidth)
	}

	runErr := exp.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("train: %v", runErr)
	}

	if out.SaveDir == "" {
		return nil
	}

	if err := exp.Save(); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	if saver, ok := exp.Agent().(agent.Serializable); ok {
		if err := saver.Save(filepath.Join(out.SaveDir, "agent.bin")); err != nil {
			return fmt.Errorf("train: %v", err)
		}
	}
	level.Info(logger).Log("msg", "saved data", "dir", out.SaveDir)

	if out.Plot {
		curves := []curve{
			{"returns.png", "Episode", "Return", returns.Data()},
			{"lengths.png", "Episode", "Episode length", lengths.Data()},
		}
		if policyLoss != nil {
			curves = append(curves,
				curve{"policy_loss.png", "Update", "Policy loss",
					policyLoss.Data()},
				curve{"value_loss.png", "Update", "Value loss",
					valueLoss.Data()},
			)
		}

		for _, cv := range curves {
			if len(cv.data) == 0 {
				level.Warn(logger).Log("msg", "nothing to plot", "plot",
					cv.filename)
				continue
			}
			err := trackers.Plot(filepath.Join(out.SaveDir, cv.filename),
				string(c.Env.Environment), cv.xLabel, cv.yLabel, cv.data,
				plotWindow)
			if err != nil {
				return fmt.Errorf("train: %v", err)
			}
		}
	}

	return nil
}
