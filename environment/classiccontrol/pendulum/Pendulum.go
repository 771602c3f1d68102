// Package pendulum implements the pendulum classic control environment
package pendulum

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/timestep"
	"github.com/samuelfneumann/baselines/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	MaxContinuousAction float64 = TorqueBound
	MinContinuousAction float64 = -MaxContinuousAction

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2

	frameSize int = 250
)

// Pendulum implements the classic control environment Pendulum with
// continuous actions. In this environment, a pendulum is attached to
// a fixed base. An agent can swing the pendulum back and forth, but
// the swinging torque is underpowered. In order to be able to swing
// the pendulum straight up, it must first be rocked back and forth,
// using the momentum to gradually climb higher until the pendulum can
// point straight up.
//
// State features consist of the angle of the pendulum from the positive
// y-axis and the angular velocity of the pendulum. The angular
// velocity is clipped between [-SpeedBound, SpeedBound]. Angles are
// normalized to stay within [-AngleBound, AngleBound] = [-π, π].
//
// Actions are continuous and 1-dimensional. Actions determine the
// torque to apply to the pendulum at its fixed base and are clipped
// to [MinContinuousAction, MaxContinuousAction].
type Pendulum struct {
	environment.Task
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     timestep.TimeStep
	discount     float64
}

// New creates and returns a new Pendulum environment along with its
// first timestep
func New(t environment.Task, discount float64) (*Pendulum,
	timestep.TimeStep, error) {
	p := &Pendulum{
		Task:         t,
		angleBounds:  r1.Interval{Min: -AngleBound, Max: AngleBound},
		speedBounds:  r1.Interval{Min: -SpeedBound, Max: SpeedBound},
		torqueBounds: r1.Interval{Min: -TorqueBound, Max: TorqueBound},
		discount:     discount,
	}

	step, err := p.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return p, step, nil
}

// CurrentTimeStep returns the last TimeStep that occurred in the
// environment
func (p *Pendulum) CurrentTimeStep() timestep.TimeStep {
	return p.lastStep
}

// Reset resets the environment and returns a starting state drawn from the
// Starter
func (p *Pendulum) Reset() (timestep.TimeStep, error) {
	state := p.Start()
	if err := p.validateState(state); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	p.lastStep = timestep.New(timestep.First, 0, p.discount, state, 0)
	return p.lastStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (p *Pendulum) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions should "+
			"be %v-dimensional, got %v", ActionDims, action.Len())
	}
	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)

	nextState := p.nextState(p.lastStep.Observation, torque)
	reward := p.GetReward(p.lastStep.Observation, action, nextState)
	nextStep := timestep.New(timestep.Mid, reward, p.discount, nextState,
		p.lastStep.Number+1)
	p.End(&nextStep)

	p.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// nextState computes the next state of the environment given the
// current state and an amount of torque to apply to the fixed base
func (p *Pendulum) nextState(obs mat.Vector, torque float64) *mat.VecDense {
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	newthdot := thdot + (-3*Gravity/(2*Length)*math.Sin(th+math.Pi)+
		3.0/(Mass*Length*Length)*torque)*dt
	newth := th + newthdot*dt

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = floatutils.Wrap(newth, p.angleBounds.Min, p.angleBounds.Max)

	return mat.NewVecDense(ObservationDims, []float64{newth, newthdot})
}

// ActionSpec returns the action specification of the environment
func (p *Pendulum) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Min})
	upperBound := mat.NewVecDense(ActionDims, []float64{p.torqueBounds.Max})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (p *Pendulum) DiscountSpec() environment.Spec {
	return environment.NewDiscountSpec(p.discount)
}

// ObservationSpec returns the observation specification of the environment
func (p *Pendulum) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	minObs := []float64{p.angleBounds.Min, p.speedBounds.Min}
	lowerBound := mat.NewVecDense(ObservationDims, minObs)

	maxObs := []float64{p.angleBounds.Max, p.speedBounds.Max}
	upperBound := mat.NewVecDense(ObservationDims, maxObs)

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// Close implements the environment.Environment interface
func (p *Pendulum) Close() error { return nil }

// Frame draws the pendulum in its current position
func (p *Pendulum) Frame() image.Image {
	dc := gg.NewContext(frameSize, frameSize)
	dc.SetColor(color.White)
	dc.Clear()

	centre := float64(frameSize) / 2
	rodLength := 0.4 * float64(frameSize)

	// Angles are measured from the positive y-axis
	th := p.lastStep.Observation.AtVec(0)
	x := centre + rodLength*math.Sin(th)
	y := centre - rodLength*math.Cos(th)

	dc.SetRGB255(204, 77, 77)
	dc.SetLineWidth(12)
	dc.DrawLine(centre, centre, x, y)
	dc.Stroke()

	dc.SetColor(color.Black)
	dc.DrawCircle(centre, centre, 5)
	dc.Fill()

	return dc.Image()
}

// String converts the environment to a string representation
func (p *Pendulum) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}

// validateState validates the state to ensure that the angle and angular
// velocity are within the environmental limits
func (p *Pendulum) validateState(obs mat.Vector) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("state should have %v features, got %v",
			ObservationDims, obs.Len())
	}
	if th := obs.AtVec(0); th > p.angleBounds.Max || th < p.angleBounds.Min {
		return fmt.Errorf("theta %v is not within bounds %v", th,
			p.angleBounds)
	}
	if thdot := obs.AtVec(1); thdot > p.speedBounds.Max ||
		thdot < p.speedBounds.Min {
		return fmt.Errorf("theta dot %v is not within bounds %v", thdot,
			p.speedBounds)
	}
	return nil
}
