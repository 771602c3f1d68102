package crawler

import (
	"math"

	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// FlipAngle is the absolute body angle past which the body is
// considered flipped and the episode ends
const FlipAngle float64 = math.Pi / 2

// Forward implements the locomotion task: rewards are the forward
// velocity of the body less a quadratic control cost. Episodes end when
// the body flips over or after a step limit.
type Forward struct {
	environment.Starter
	environment.Ender
	ControlCost float64
}

// NewForward returns a new Forward task
func NewForward(s environment.Starter, maxSteps int,
	controlCost float64) *Forward {
	flip := environment.NewIntervalLimit(
		[]r1.Interval{{Min: -FlipAngle, Max: FlipAngle}},
		[]int{3},
		timestep.TerminalStateReached,
	)
	ender := environment.Enders{flip, environment.NewStepLimit(maxSteps)}

	return &Forward{s, ender, controlCost}
}

// GetReward returns the reward for transitioning to nextState after
// taking action
func (f *Forward) GetReward(_, action, nextState mat.Vector) float64 {
	velocity := nextState.AtVec(0)
	return velocity - f.ControlCost*mat.Dot(action, action)
}
