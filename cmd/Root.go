// Package cmd implements the baselines command line interface
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/samuelfneumann/baselines/agent/linear/continuous/actorcritic"
	"github.com/samuelfneumann/baselines/config"
	"github.com/samuelfneumann/baselines/experiment/checkpointer"
	"github.com/samuelfneumann/baselines/storage"
	"github.com/spf13/cobra"
)

var configFile string

// RootCommand returns the baselines command
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "baselines",
		Short:         "Train, evaluate and inspect reinforcement learning agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"YAML run configuration (defaults are used if empty)")

	cmd.AddCommand(
		TrainCommand(),
		EvalCommand(),
		RolloutCommand(),
		PlotCommand(),
		VisualizeCommand(),
		ServeCommand(),
	)

	return cmd
}

// Execute runs the root command, exiting with a non-zero status on
// error
func Execute() {
	if err := RootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the run configuration from the --config flag
func loadConfig() (config.Config, error) {
	if configFile == "" {
		return config.Parse(nil)
	}
	return config.Load(configFile)
}

// interruptContext returns a context that is cancelled on an interrupt
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadAgent loads the agent saved under name in the storage of the run
func loadAgent(ctx context.Context, c config.Config,
	name string) (*actorcritic.LinearGaussian, string, error) {
	store, err := storage.New(ctx, c.StorageURI())
	if err != nil {
		return nil, "", err
	}

	var agent actorcritic.LinearGaussian
	if err := checkpointer.Load(store, name, &agent); err != nil {
		return nil, "", err
	}
	return &agent, store.Location(name), nil
}
