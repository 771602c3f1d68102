package cmd

import (
	"fmt"

	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/plot"
	"github.com/spf13/cobra"
)

// VisualizeCommand returns the command that saves a GIF of a saved
// agent acting in its environment
func VisualizeCommand() *cobra.Command {
	var model, outFile string
	var steps, fps int

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Save a GIF of a saved agent acting in its environment",
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
			agent, _, err := loadAgent(ctx, c, model)
			if err != nil {
				return err
			}
			agent.Eval()

			e, _, err := c.Environment.Create(c.Seed + 1)
			if err != nil {
				return err
			}
			defer e.Close()

			renderer, ok := e.(environment.Renderer)
			if !ok {
				return fmt.Errorf("visualize: %v cannot be rendered",
					c.Environment.ID())
			}

			frames, err := plot.GIF(renderer, agent, steps, fps, outFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %v frames to %v\n", frames,
				outFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "",
		"Name of the saved agent (defaults to the best checkpoint)")
	cmd.Flags().IntVar(&steps, "steps", 1000, "Maximum number of steps")
	cmd.Flags().IntVar(&fps, "fps", plot.DefaultFPS, "Frames per second")
	cmd.Flags().StringVar(&outFile, "out", "agent.gif", "Output GIF file")

	return cmd
}
