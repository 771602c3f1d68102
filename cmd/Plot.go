package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/plot"
	"github.com/spf13/cobra"
)

// PlotCommand returns the command that plots the results logs of runs
func PlotCommand() *cobra.Command {
	var dirs []string
	var title, outDir string
	var window int
	var maxX float64

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the learning curves of one or more runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(dirs) == 0 {
				c, err := loadConfig()
				if err != nil {
					return err
				}
				dirs = []string{c.LogDir}
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			runs := make([]plot.Run, 0, len(dirs))
			for _, dir := range dirs {
				eps, err := results.Load(dir)
				if err != nil {
					return err
				}
				name := filepath.Base(filepath.Clean(dir))
				runs = append(runs, plot.Run{Name: name, Episodes: eps})

				t := title
				if t == "" {
					t = name
				}
				if err := plotRun(eps, t, name, outDir, window, maxX); err != nil {
					return err
				}
			}

			html := filepath.Join(outDir, "curves.html")
			f, err := os.Create(html)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := plot.WriteHTML(f, title, window, runs...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %v\n", html)
			return f.Close()
		},
	}
	cmd.Flags().StringSliceVar(&dirs, "dir", nil,
		"Directories holding results logs (defaults to the log directory "+
			"of the configuration)")
	cmd.Flags().StringVar(&title, "title", "", "Plot title")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory")
	cmd.Flags().IntVar(&window, "window", plot.DefaultWindow,
		"Moving average window of the learning curve")
	cmd.Flags().Float64Var(&maxX, "max-timesteps", 0,
		"Largest timestep shown in the scatter plot (0 for no limit)")

	return cmd
}

// plotRun saves the learning curve and the timestep scatter plot of a
// single run
func plotRun(eps []results.Episode, title, name, outDir string, window int,
	maxX float64) error {
	curve := filepath.Join(outDir, name+"_curve.png")
	if err := plot.LearningCurve(eps, window, title, curve); err != nil {
		return fmt.Errorf("plotRun: %v: %w", name, err)
	}

	scatter := filepath.Join(outDir, name+"_scatter.png")
	err := plot.Scatter(eps, results.Timesteps, title, scatter, maxX)
	if err != nil {
		return fmt.Errorf("plotRun: %v: %w", name, err)
	}
	return nil
}
