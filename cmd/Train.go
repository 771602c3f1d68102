package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/samuelfneumann/baselines/agent/linear/continuous/actorcritic"
	"github.com/samuelfneumann/baselines/config"
	"github.com/samuelfneumann/baselines/environment/wrappers"
	"github.com/samuelfneumann/baselines/experiment"
	"github.com/samuelfneumann/baselines/experiment/checkpointer"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/experiment/trackers"
	"github.com/samuelfneumann/baselines/storage"
	"github.com/samuelfneumann/baselines/utils/matutils/initializers/weights"
	"github.com/samuelfneumann/baselines/utils/progressbar"
	"github.com/spf13/cobra"
)

// barWidth is the width of the training progress bar
const barWidth int = 50

// TrainCommand returns the command that trains an agent
func TrainCommand() *cobra.Command {
	var resume bool
	var steps int

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an agent, saving the agent with the best mean return",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			if steps > 0 {
				c.TotalTimesteps = steps
			}

			ctx, cancel := interruptContext()
			defer cancel()
			return Train(ctx, c, resume, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false,
		"Start from the best agent saved by a previous run. The results "+
			"log is written next to earlier logs, and the best mean "+
			"return is tracked afresh, so the first poll replaces the "+
			"saved best agent")
	cmd.Flags().IntVar(&steps, "steps", 0,
		"Total timesteps, overriding the configuration")

	return cmd
}

// Train trains the agent described by c. The results log, the tracked
// returns and episode lengths are written to the log directory of c.
// The agent with the best mean return is checkpointed to the storage
// of c as it trains, and the final agent is saved under c.ModelName().
// An interrupted run still saves the final agent.
//
// A resumed run starts from the best saved agent and writes its
// results log to a new file beside the logs of earlier runs.
func Train(ctx context.Context, c config.Config, resume bool,
	out io.Writer) error {
	e, _, err := c.Environment.Create(c.Seed)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	// A resumed run keeps the results logs of earlier runs
	var prefix string
	if resume {
		prefix = "resume-" + time.Now().Format("20060102-150405")
	}
	monitor, err := wrappers.NewPrefixedMonitor(e, c.LogDir, prefix,
		c.Environment.ID(), false)
	if err != nil {
		e.Close()
		return fmt.Errorf("train: %w", err)
	}
	defer monitor.Close()

	if err := c.Save(filepath.Join(c.LogDir, "config.yaml")); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	store, err := storage.New(ctx, c.StorageURI())
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	agent, err := actorcritic.NewLinearGaussian(monitor, c.Agent,
		weights.NewZero(), c.Seed)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if resume {
		if err := checkpointer.Load(store, c.Checkpoint.Name, agent); err != nil {
			return fmt.Errorf("train: resume: %w", err)
		}
		log.Printf("Resuming from %v", store.Location(c.Checkpoint.Name))
	}

	best, err := checkpointer.NewBestMean(store, checkpointer.BestMeanConfig{
		Cadence:      c.Checkpoint.Cadence,
		Window:       c.Checkpoint.Window,
		Name:         c.Checkpoint.Name,
		Verbose:      c.Checkpoint.Verbose,
		ConfirmWrite: c.Checkpoint.ConfirmWrite,
	})
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	returns := trackers.NewReturn(filepath.Join(c.LogDir, "returns.gob"))
	lengths := trackers.NewEpisodeLength(filepath.Join(c.LogDir,
		"lengths.gob"))
	exp := experiment.NewOnline(monitor, agent, c.TotalTimesteps, returns,
		lengths)
	if c.Checkpoint.Every > 0 {
		periodic, err := checkpointer.NewNStep(c.Checkpoint.Every, agent,
			store, checkpointer.FilenameEnumerator(0, c.Name+"_checkpoint",
				".gob"))
		if err != nil {
			return fmt.Errorf("train: %w", err)
		}
		exp.AddCheckpointer(periodic)
	}
	if c.LogFromDisk {
		exp.LogFromDisk(c.LogDir)
	}
	exp.AddCallback(best.OnStep)

	bar := progressbar.New(out, barWidth, c.TotalTimesteps)
	exp.AddCallback(func(step int, eps []results.Episode,
		_ checkpointer.Serializable) error {
		bar.Set(step)
		if step%c.Checkpoint.Cadence == 0 || step == c.TotalTimesteps {
			bar.SetStatus(fmt.Sprintf("episodes: %v  best: %.2f", len(eps),
				best.Best()))
			bar.Display()
		}
		return nil
	})

	runErr := exp.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("train: %w", runErr)
	}
	if runErr != nil {
		log.Printf("Interrupted after %v timesteps", exp.Steps())
	}

	if err := exp.Save(); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := checkpointer.Save(store, c.ModelName(), agent); err != nil {
		return fmt.Errorf("train: %w", err)
	}
	log.Printf("Saved final model to %v", store.Location(c.ModelName()))
	if best.Saves() > 0 {
		log.Printf("Best mean reward %.2f saved to %v", best.Best(),
			best.Path())
	}
	return nil
}
