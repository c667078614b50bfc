package experiment

import (
	"context"
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/multierr"

	"github.com/samuelfneumann/pendulumac/agent"
	env "github.com/samuelfneumann/pendulumac/environment"
	"github.com/samuelfneumann/pendulumac/experiment/checkpointer"
	"github.com/samuelfneumann/pendulumac/experiment/tracker"
	"github.com/samuelfneumann/pendulumac/experiment/trackers"
	ts "github.com/samuelfneumann/pendulumac/timestep"
	"github.com/samuelfneumann/pendulumac/utils/progressbar"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed. Each iteration of the experiment is one
// episode, after which the agent may update.
type Online struct {
	env         env.Environment
	agent       agent.Agent
	maxEpisodes uint
	episodes    uint
	updates     int

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	logger        log.Logger
	progressBar   *progressbar.ManualProgressBar
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The episodes parameter determines
// how many episodes the experiment is run for.
func NewOnline(e env.Environment, a agent.Agent, episodes uint,
	logger log.Logger) *Online {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Online{
		env:         e,
		agent:       a,
		maxEpisodes: episodes,
		logger:      logger,
	}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// AddCheckpointer registers a checkpointer.Checkpointer with the
// experiment
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpointers = append(o.checkpointers, c)
}

// ShowProgress displays a progress bar of width characters on out,
// updated after every episode
func (o *Online) ShowProgress(out io.Writer, width int) {
	o.progressBar = progressbar.NewManualProgressBar(out, width,
		int(o.maxEpisodes))
}

// Agent returns the agent of the experiment
func (o *Online) Agent() agent.Agent {
	return o.agent
}

// Episodes returns the number of completed episodes
func (o *Online) Episodes() uint {
	return o.episodes
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.env.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: could not reset "+
			"environment: %v", err)
	}
	if err := o.agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}
	o.track(step)

	episodicReturn := 0.0
	for !step.Last() {
		action := o.agent.SelectAction(step)
		step, _, err = o.env.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: could not step "+
				"environment: %v", err)
		}
		episodicReturn += step.Reward

		if err := o.agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
		if err := o.agent.Step(); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}

		o.track(step)
		if err := o.checkpoint(step); err != nil {
			return false, fmt.Errorf("runEpisode: %v", err)
		}
	}
	o.agent.EndEpisode()
	o.episodes++

	level.Debug(o.logger).Log("msg", "episode finished", "episode",
		o.episodes, "return", episodicReturn, "length", step.Number)
	o.logUpdate()

	if o.progressBar != nil {
		o.progressBar.Increment()
		o.progressBar.Display()
	}

	return o.episodes >= o.maxEpisodes, nil
}

// logUpdate logs the losses of the agent if it has updated since the
// last call
func (o *Online) logUpdate() {
	reporter, ok := o.agent.(trackers.LossReporter)
	if !ok || reporter.Updates() <= o.updates {
		return
	}

	o.updates = reporter.Updates()
	level.Info(o.logger).Log("msg", "update", "iteration", o.episodes,
		"update", o.updates, "ploss", reporter.PolicyLoss(), "vloss",
		reporter.ValueLoss())
}

// Run runs episodes until the maximum number of episodes is reached.
// If ctx is cancelled, Run returns the context's error after the
// current episode.
func (o *Online) Run(ctx context.Context) error {
	if o.progressBar != nil {
		defer o.progressBar.Close()
	}

	for {
		select {
		case <-ctx.Done():
			level.Warn(o.logger).Log("msg", "experiment stopped",
				"episodes", o.episodes, "err", ctx.Err())
			return ctx.Err()

		default:
		}

		ended, err := o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: %v", err)
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// Close closes the agent and environment if they hold resources
func (o *Online) Close() error {
	if err := closeAll(o.agent, o.env); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	return nil
}

// closeAll closes each object that is an io.Closer, continuing past
// failures, and returns the combined errors
func closeAll(objects ...interface{}) error {
	var err error
	for _, obj := range objects {
		if closer, ok := obj.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint passes the current timestep to each Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}
	return nil
}
