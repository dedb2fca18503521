package commands

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenanking/flappyrl/agent/deepq"
	"github.com/kenanking/flappyrl/tracker"
)

var (
	trainEpisodes   int
	trainGamma      float64
	trainEpsilon    float64
	trainDecay      float64
	trainEpsilonMin float64
	trainBatchSize  int
	trainMemory     int
	trainTargetFreq int
	trainHiddenDim  int
	trainRate       float64
	trainSingle     bool
	trainSeed       uint64
	trainDelay      time.Duration

	trainIn    string
	trainOut   string
	trainChart string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the agent for a number of episodes",
	Long: `Train runs the requested number of episodes against the headless
simulation, logging one event per episode.

Interrupting with SIGINT pauses training at the next simulation tick;
the partial run is still written to --out, and a later train --in run
resumes from it. Without --single, the agent uses a target network
synchronized every --target-sync episodes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		cfg := deepq.NewConfig()
		cfg.Gamma = trainGamma
		cfg.Epsilon = trainEpsilon
		cfg.EpsilonDecay = trainDecay
		cfg.EpsilonMin = trainEpsilonMin
		cfg.BatchSize = trainBatchSize
		cfg.MemoryMaxLen = trainMemory
		cfg.TargetUpdateFreq = trainTargetFreq
		cfg.HiddenDim = trainHiddenDim
		cfg.LearningRate = trainRate
		cfg.Doubled = !trainSingle
		cfg.Seed = trainSeed

		opts := []deepq.Option{deepq.WithNotifier(logNotifier(log))}
		if trainDelay > 0 {
			opts = append(opts, deepq.WithPacer(deepq.DelayPacer(trainDelay)))
		}

		trainer, err := deepq.New(newEnvironment(trainSeed), cfg, opts...)
		if err != nil {
			return err
		}
		defer trainer.Close()

		if trainIn != "" {
			checkpoint, err := deepq.ReadCheckpoint(trainIn)
			if err != nil {
				return err
			}
			if err := trainer.Restore(checkpoint); err != nil {
				return err
			}
			log.Info().
				Str("id", checkpoint.ID).
				Int("episode", checkpoint.Config.Episode).
				Msg("restored checkpoint")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT,
			syscall.SIGTERM)
		defer stop()

		if err := trainer.Train(ctx, trainEpisodes); err != nil {
			return err
		}

		if trainer.Status() == deepq.Paused {
			log.Warn().Msg("training interrupted; writing partial run")
		}

		if trainOut != "" {
			checkpoint := trainer.Checkpoint()
			if err := checkpoint.WriteFile(trainOut); err != nil {
				return err
			}
			log.Info().Str("id", checkpoint.ID).Str("path", trainOut).
				Msg("wrote checkpoint")
		}

		if trainChart != "" {
			if err := tracker.WriteChart(trainChart,
				trainer.Statistics()); err != nil {
				return err
			}
			log.Info().Str("path", trainChart).Msg("wrote training chart")
		}

		return nil
	},
}

func init() {
	flags := trainCmd.Flags()

	flags.IntVarP(&trainEpisodes, "episodes", "n", 1000,
		"episodes to run")
	flags.Float64Var(&trainGamma, "gamma", deepq.DefaultGamma,
		"discount factor")
	flags.Float64Var(&trainEpsilon, "epsilon", deepq.DefaultEpsilon,
		"initial exploration rate")
	flags.Float64Var(&trainDecay, "epsilon-decay", deepq.DefaultEpsilonDecay,
		"per-episode exploration decay")
	flags.Float64Var(&trainEpsilonMin, "epsilon-min", deepq.DefaultEpsilonMin,
		"exploration rate floor")
	flags.IntVar(&trainBatchSize, "batch-size", deepq.DefaultBatchSize,
		"learning batch size")
	flags.IntVar(&trainMemory, "memory", deepq.DefaultMemoryMaxLen,
		"replay memory capacity")
	flags.IntVar(&trainTargetFreq, "target-sync", deepq.DefaultTargetUpdateFreq,
		"episodes between target network syncs")
	flags.IntVar(&trainHiddenDim, "hidden", deepq.DefaultHiddenDim,
		"value network hidden width")
	flags.Float64Var(&trainRate, "lr", deepq.DefaultLearningRate,
		"optimizer learning rate")
	flags.BoolVar(&trainSingle, "single", false,
		"disable the target network (single-network variant)")
	flags.Uint64Var(&trainSeed, "seed", uint64(time.Now().UnixNano()),
		"RNG seed for the run")
	flags.DurationVar(&trainDelay, "delay", 0,
		"pacing delay between simulation ticks (0 = run flat out)")

	flags.StringVar(&trainIn, "in", "",
		"checkpoint to resume from")
	flags.StringVar(&trainOut, "out", "",
		"path to write the run's checkpoint to")
	flags.StringVar(&trainChart, "chart", "",
		"path to write an HTML chart of training curves to")
}
