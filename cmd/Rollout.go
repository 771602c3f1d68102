package cmd

import (
	"fmt"

	"github.com/gosuri/uilive"
	"github.com/logrusorgru/aurora"
	"github.com/samuelfneumann/baselines/evaluation"
	"github.com/samuelfneumann/baselines/plot"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
)

// RolloutCommand returns the command that records the returns of many
// episodes of a saved agent
func RolloutCommand() *cobra.Command {
	var model, outFile, histFile string
	var episodes, maxSteps, bins int
	var stochastic bool

	cmd := &cobra.Command{
		Use:   "rollout",
		Short: "Record the returns of episodes run with a saved agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if model == "" {
				model = c.ModelName()
			}

			ctx, cancel := interruptContext()
			defer cancel()
			agent, location, err := loadAgent(ctx, c, model)
			if err != nil {
				return err
			}
			if !stochastic {
				agent.Eval()
			}

			env, _, err := c.Environment.Create(c.Seed + 1)
			if err != nil {
				return err
			}
			defer env.Close()

			writer := uilive.New()
			writer.Out = cmd.OutOrStdout()
			status := writer.Newline()

			var cutoff int
			progress := func(i int, ret float64, length int, finished bool) {
				if !finished {
					cutoff++
				}
				fmt.Fprintf(writer, "Episode %v/%v\n", i+1, episodes)

				result := aurora.Green(fmt.Sprintf("return %.2f in %v steps",
					ret, length))
				if !finished {
					result = aurora.Red(fmt.Sprintf("cut off after %v steps",
						length))
				}
				fmt.Fprintf(status, "%v  (%v cut off)\n", result, cutoff)
				writer.Flush()
			}

			r, err := evaluation.Rollout(env, agent, episodes, maxSteps,
				progress)
			if err != nil {
				return err
			}
			r.Checkpoint = location

			out := cmd.OutOrStdout()
			if r.Len() > 0 {
				mean, std := stat.MeanStdDev(r.Returns, nil)
				fmt.Fprintf(out, "%v episodes finished: mean return %.2f "+
					"+/- %.2f\n", aurora.Bold(r.Len()), mean, std)
			} else {
				fmt.Fprintln(out, aurora.Yellow("no episode finished within "+
					"the step limit"))
			}

			if outFile != "" {
				if err := r.Save(outFile); err != nil {
					return err
				}
			}
			if histFile != "" && r.Len() > 0 {
				title := fmt.Sprintf("Returns of %v", model)
				if err := plot.Histogram(r.Returns, bins, title, histFile); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "",
		"Name of the saved agent (defaults to the final model)")
	cmd.Flags().IntVar(&episodes, "episodes", 1000, "Number of episodes")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 2000,
		"Steps after which an episode is cut off and not recorded")
	cmd.Flags().StringVar(&outFile, "out", "", "File to save rollouts to")
	cmd.Flags().StringVar(&histFile, "hist", "",
		"PNG file to save a histogram of returns to")
	cmd.Flags().IntVar(&bins, "bins", 20, "Number of histogram bins")
	cmd.Flags().BoolVar(&stochastic, "stochastic", false,
		"Sample actions instead of using the mean action")

	return cmd
}
