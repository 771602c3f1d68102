package cmd

import (
	"fmt"

	"github.com/samuelfneumann/baselines/evaluation"
	"github.com/spf13/cobra"
)

// EvalCommand returns the command that evaluates a saved agent
func EvalCommand() *cobra.Command {
	var model string
	var episodes int

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the greedy policy of a saved agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if model == "" {
				model = c.Checkpoint.Name
			}

			ctx, cancel := interruptContext()
			defer cancel()
			agent, location, err := loadAgent(ctx, c, model)
			if err != nil {
				return err
			}

			// Evaluation episodes use a different seed than training
			env, _, err := c.Environment.Create(c.Seed + 1)
			if err != nil {
				return err
			}
			defer env.Close()

			mean, std, err := evaluation.Evaluate(env, agent, episodes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Evaluated %v over %v episodes\n", location,
				episodes)
			fmt.Fprintln(out, "==== Results ====")
			fmt.Fprintf(out, "Episode_reward=%.2f +/- %.2f\n", mean, std)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "",
		"Name of the saved agent (defaults to the best checkpoint)")
	cmd.Flags().IntVar(&episodes, "episodes", 100, "Number of episodes")

	return cmd
}
