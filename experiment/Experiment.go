// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"

	"github.com/samuelfneumann/baselines/agent"
	"github.com/samuelfneumann/baselines/experiment/checkpointer"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/experiment/trackers"
)

// Experiment outlines structs that can run experiments. The Run()
// method runs episodes until the maximum timestep limit is reached,
// some callback fails, or the context is cancelled. RunEpisode() runs
// a single episode.
//
// Experiments send each TimeStep to their Trackers, which cache the
// data they need until Save() is called, usually after the experiment
// has been run.
type Experiment interface {
	Run(ctx context.Context) error

	// RunEpisode returns whether the step limit has been reached
	RunEpisode() (bool, error)

	// Save saves all tracked data
	Save() error

	// Register adds a new Tracker to the (possibly already running)
	// experiment
	Register(t trackers.Tracker)

	// AddCallback adds a callback called after every agent update
	AddCallback(c Callback)

	// AddCheckpointer adds a Checkpointer called after every agent
	// update
	AddCheckpointer(c checkpointer.Checkpointer)
}

// Agent is an agent.Agent that can be serialized, so that callbacks
// may save it during training
type Agent interface {
	agent.Agent
	checkpointer.Serializable
}

// Callback is called by an Experiment after every agent update with
// the total number of steps taken, the log of all finished episodes
// and the agent being trained. Returning an error stops the
// experiment.
//
// The episode log must not be modified.
type Callback func(step int, log []results.Episode,
	agent checkpointer.Serializable) error

// Episoder is an environment that keeps a log of its finished
// episodes, such as wrappers.Monitor
type Episoder interface {
	Episodes() []results.Episode
}
