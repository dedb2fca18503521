// Package commands provides CLI command implementations.
package commands

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/kenanking/flappyrl/agent/deepq"
	env "github.com/kenanking/flappyrl/environment"
	"github.com/kenanking/flappyrl/environment/flappy"
)

var verbose bool

// RootCmd is the flappyrl command tree
var RootCmd = &cobra.Command{
	Use:   "flappyrl",
	Short: "Train and evaluate a deep-Q agent on headless Flappy Bird",
	Long: `flappyrl trains a deep Q-learning agent against a headless Flappy
Bird simulation, the same agent that drives the in-browser demo.

Training runs entirely offline: per-episode progress is logged, and the
learned model can be exported as a JSON checkpoint consumable by the
browser demo, or reloaded for further training and evaluation.`,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"log at debug level")

	RootCmd.AddCommand(trainCmd, evalCmd)
}

// newLogger builds the zerolog logger the commands share
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.TimeOnly,
	}).Level(level).With().Timestamp().Logger()
}

// newEnvironment builds the flappy environment with the shaped training
// reward and seeded gap placement
func newEnvironment(seed uint64) env.Environment {
	starter := env.NewUniformStarter([]r1.Interval{
		{Min: flappy.MinGapCenter, Max: flappy.MaxGapCenter},
	}, seed)

	e, _ := flappy.New(flappy.NewShapedTask(), starter)
	return e
}

// logNotifier adapts a zerolog logger to the trainer's Notifier
// interface
func logNotifier(log zerolog.Logger) deepq.Notifier {
	return deepq.NotifierFunc(func(e deepq.Event) {
		event := log.Info()
		if e.Paused {
			event = log.Warn()
		}
		if e.Err != nil {
			event = log.Error().Err(e.Err)
		}

		event.
			Int("episode", e.Episode).
			Int("score", e.Score).
			Float64("reward", e.TotalReward).
			Float64("epsilon", e.Epsilon).
			Int("steps", e.Steps).
			Int("memory", e.MemorySize).
			Bool("paused", e.Paused).
			Msg("episode")
	})
}
