package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	env "github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/experiment/checkpointer"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/experiment/trackers"
	ts "github.com/samuelfneumann/baselines/timestep"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
//
// The episode log passed to callbacks is taken from the environment if
// it is an Episoder, read from the results logs in a directory if
// LogFromDisk was called, and otherwise recorded by Online itself.
type Online struct {
	env.Environment
	agent        Agent
	maxSteps     int
	currentSteps int
	trackers     []trackers.Tracker
	callbacks    []Callback
	checkpoints  []checkpointer.Checkpointer

	logDir   string
	diskLog  []results.Episode
	stale    bool
	start    time.Time
	episodes []results.Episode
	ret      float64
	length   int
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, and t determines what data
// is tracked.
func NewOnline(e env.Environment, a Agent, steps int,
	t ...trackers.Tracker) *Online {
	return &Online{
		Environment: e,
		agent:       a,
		maxSteps:    steps,
		trackers:    t,
		start:       time.Now(),
	}
}

// Register registers a Tracker with the Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t trackers.Tracker) {
	o.trackers = append(o.trackers, t)
}

// AddCallback adds a callback to be called after every agent update
func (o *Online) AddCallback(c Callback) {
	o.callbacks = append(o.callbacks, c)
}

// AddCheckpointer adds a Checkpointer called after every agent update.
// Checkpointers see the total number of steps taken as the TimeStep
// number.
func (o *Online) AddCheckpointer(c checkpointer.Checkpointer) {
	o.checkpoints = append(o.checkpoints, c)
}

// LogFromDisk makes the experiment read the episode log passed to
// callbacks from the results logs in dir. The logs are re-read each
// time an episode ends.
func (o *Online) LogFromDisk(dir string) {
	o.logDir = dir
	o.stale = true
}

// Steps returns the number of steps taken so far
func (o *Online) Steps() int {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	return o.runEpisode(context.Background())
}

func (o *Online) runEpisode(ctx context.Context) (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: could not reset: %w", err)
	}
	if err := o.agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)
	o.ret, o.length = 0, 0

	for !step.Last() && o.currentSteps < o.maxSteps {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		o.currentSteps++

		// Select action, step in environment
		action := o.agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		o.track(step)
		o.record(step)

		// Observe the timestep and step the agent
		if err := o.agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.agent.Step(); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		if err := o.checkpoint(step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.callback(); err != nil {
			return false, fmt.Errorf("runEpisode: callback at step %v: %w",
				o.currentSteps, err)
		}
	}
	o.agent.EndEpisode()

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run(ctx context.Context) error {
	for {
		ended, err := o.runEpisode(ctx)
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Trackers
func (o *Online) Save() error {
	for _, tracker := range o.trackers {
		if err := tracker.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// record records finished episodes in case the environment does not
func (o *Online) record(t ts.TimeStep) {
	o.ret += t.Reward
	o.length++
	if !t.Last() {
		return
	}

	o.stale = o.logDir != ""
	o.episodes = append(o.episodes, results.Episode{
		Return: o.ret,
		Length: o.length,
		Time:   time.Since(o.start).Seconds(),
		Step:   o.currentSteps,
	})
}

// log returns the episode log passed to callbacks
func (o *Online) log() ([]results.Episode, error) {
	if o.logDir != "" {
		if o.stale {
			eps, err := results.Load(o.logDir)
			if err != nil && !errors.Is(err, results.ErrNoResults) {
				return nil, err
			}
			o.diskLog = eps
			o.stale = false
		}
		return o.diskLog, nil
	}

	if e, ok := o.Environment.(Episoder); ok {
		return e.Episodes(), nil
	}
	return o.episodes, nil
}

// checkpoint checkpoints the agent with all Checkpointers
func (o *Online) checkpoint(t ts.TimeStep) error {
	t.Number = o.currentSteps
	for _, c := range o.checkpoints {
		if err := c.Checkpoint(t); err != nil {
			return err
		}
	}
	return nil
}

func (o *Online) callback() error {
	if len(o.callbacks) == 0 {
		return nil
	}

	log, err := o.log()
	if err != nil {
		return err
	}
	for _, c := range o.callbacks {
		if err := c(o.currentSteps, log, o.agent); err != nil {
			return err
		}
	}
	return nil
}
