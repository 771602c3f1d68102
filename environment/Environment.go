// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"image"

	"github.com/samuelfneumann/baselines/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes should end. If an episode should end,
// End() adjusts the StepType of the argument TimeStep to timestep.Last
// and records the reason the episode ended.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
}

// Environment implements a simulated environment, which includes a
// Task to complete.
//
// Environments start ready to use: the constructor of a concrete
// Environment returns the first TimeStep of the first episode.
type Environment interface {
	Task

	// Reset resets the environment between episodes
	Reset() (timestep.TimeStep, error)

	// Step takes a single environmental step, returning the next
	// TimeStep and whether or not the episode has ended
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	// CurrentTimeStep returns the most recent TimeStep
	CurrentTimeStep() timestep.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}

// Renderer is an Environment that can draw its current state
type Renderer interface {
	Environment
	Frame() image.Image
}
