package command

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/pendulumac/agent/nonlinear/continuous/vanillaac"
)

// RootCommand returns the command that trains an agent
func RootCommand() *cobra.Command {
	var (
		configFile string
		episodes   uint
		seed       uint64
		batchSize  int
		cutoff     int
		gym        bool
		logLevel   string
		progress   bool
		out        Output
	)

	cmd := &cobra.Command{
		Use:          "pendulumac",
		Short:        "Train a Gaussian actor-critic agent on Pendulum",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := DefaultConfig()
			if configFile != "" {
				var err error
				if conf, err = LoadConfig(configFile); err != nil {
					return err
				}
			}

			flags := cmd.Flags()
			if flags.Changed("episodes") {
				conf.MaxSteps = episodes
			}
			if flags.Changed("seed") {
				conf.Seed = seed
			}
			if flags.Changed("cutoff") {
				conf.Env.EpisodeCutoff = cutoff
			}
			if flags.Changed("gym") {
				conf.Env.Gym = gym
			}
			if flags.Changed("batch-size") {
				vac, ok := conf.Agent.Config.(vanillaac.GaussianMLPConfig)
				if !ok {
					return fmt.Errorf("--batch-size is not supported for "+
						"agent type %v", conf.Agent.Type)
				}
				vac.BatchSize = batchSize
				conf.Agent.Config = vac
			}

			logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
			if err != nil {
				return err
			}
			if progress {
				out.Progress = cmd.OutOrStdout()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if err := Train(ctx, conf, out, logger); err != nil {
				level.Error(logger).Log("msg", "training failed", "err", err)
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "",
		"JSON configuration file")
	flags.UintVarP(&episodes, "episodes", "e", 100_000,
		"Number of episodes to train for")
	flags.Uint64Var(&seed, "seed", 42, "Random seed")
	flags.IntVar(&batchSize, "batch-size", 2048,
		"Minimum number of transitions per update")
	flags.IntVar(&cutoff, "cutoff", 200, "Maximum episode length")
	flags.BoolVar(&gym, "gym", false,
		"Use the OpenAI Gym Pendulum-v0 environment (requires the gym "+
			"build tag)")
	flags.StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, or error")
	flags.BoolVar(&progress, "progress", false, "Display a progress bar")
	flags.StringVarP(&out.SaveDir, "save", "s", "",
		"Directory to save data in, data is not saved if empty")
	flags.IntVar(&out.CheckpointEvery, "checkpoint", 0,
		"Number of episodes between agent checkpoints, 0 to disable")
	flags.BoolVar(&out.TimestampCheckpoints, "timestamp-checkpoints", false,
		"Name checkpoints by the time they are saved")
	flags.BoolVar(&out.Plot, "plot", false,
		"Plot learning curves in the save directory")

	return cmd
}

// newLogger returns a logfmt logger writing to w which filters out
// log lines below lvl
func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("newLogger: unknown log level %q", lvl)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, opt), nil
}
