package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kenanking/flappyrl/agent/deepq"
)

var (
	evalEpisodes int
	evalIn       string
	evalSeed     uint64
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate a trained agent with greedy rollouts",
	Long: `Eval loads a checkpoint and runs greedy (no-exploration) episodes
against the simulation, reporting the game score of each.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger()

		checkpoint, err := deepq.ReadCheckpoint(evalIn)
		if err != nil {
			return err
		}

		cfg := deepq.NewConfig()
		cfg.Seed = evalSeed
		if checkpoint.Config.HiddenDim > 0 {
			cfg.HiddenDim = checkpoint.Config.HiddenDim
		}

		trainer, err := deepq.New(newEnvironment(evalSeed), cfg)
		if err != nil {
			return err
		}
		defer trainer.Close()

		if err := trainer.Restore(checkpoint); err != nil {
			return err
		}

		scores, err := trainer.Evaluate(cmd.Context(), evalEpisodes)
		if err != nil {
			return err
		}

		best, total := 0, 0
		for i, score := range scores {
			log.Info().Int("episode", i+1).Int("score", score).Msg("rollout")
			total += score
			if score > best {
				best = score
			}
		}
		if len(scores) > 0 {
			log.Info().
				Int("episodes", len(scores)).
				Int("best", best).
				Float64("mean", float64(total)/float64(len(scores))).
				Msg("evaluation complete")
		}

		return nil
	},
}

func init() {
	flags := evalCmd.Flags()

	flags.IntVarP(&evalEpisodes, "episodes", "n", 10, "episodes to run")
	flags.StringVar(&evalIn, "in", "model.json", "checkpoint to load")
	flags.Uint64Var(&evalSeed, "seed", uint64(time.Now().UnixNano()),
		"RNG seed for the run")
}
