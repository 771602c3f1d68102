// Package gym provides access to OpenAI Gym environments, such as the
// PyBullet humanoid, through GoGym.
//
// Gym environments come with their own tasks and episode cutoffs, so
// the Task methods of GymEnv are fixed: the environment decides rewards
// and episode termination itself.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/baselines/environment"
	ts "github.com/samuelfneumann/baselines/timestep"
	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"
)

// DefaultEnv is the Gym id of the environment used when none is given
const DefaultEnv string = "HumanoidBulletEnv-v0"

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	name        string
	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite or a registered third-party suite.
func New(name string, discount float64, seed uint64) (*GymEnv,
	ts.TimeStep, error) {
	if name == "" {
		name = DefaultEnv
	}

	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment %v: %w", name, err)
	}
	goGymEnv.Seed(int(seed))

	gymEnv := &GymEnv{
		Environment: goGymEnv,
		name:        name,
		discount:    discount,
	}

	t, err := gymEnv.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	return gymEnv, t, nil
}

// Name returns the Gym id of the environment
func (g *GymEnv) Name() string {
	return g.name
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %w", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %w", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() environment.Spec {
	return boxSpec(g.ObservationSpace(), environment.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() environment.Spec {
	return boxSpec(g.ActionSpace(), environment.Action)
}

// gymSpace is the part of a GoGym space needed to construct a Spec
type gymSpace interface {
	Low() []*mat.VecDense
	High() []*mat.VecDense
}

// boxSpec converts a GoGym space into a Spec
func boxSpec(space gymSpace, t environment.SpecType) environment.Spec {
	switch space.(type) {
	case *gogym.BoxSpace:
		low := space.Low()[0]
		high := space.High()[0]
		shape := mat.NewVecDense(low.Len(), nil)
		return environment.NewSpec(shape, t, low, high, environment.Continuous)

	case *gogym.DiscreteSpace:
		low := space.Low()[0]
		high := space.High()[0]
		shape := mat.NewVecDense(low.Len(), nil)
		return environment.NewSpec(shape, t, low, high, environment.Discrete)
	}

	panic(fmt.Sprintf("boxSpec: invalid space type %T, package gym supports "+
		"only GoGym's BoxSpace or DiscreteSpace", space))
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() environment.Spec {
	return environment.NewDiscountSpec(g.discount)
}

// Start implements the environment.Environment interface. This function
// panics.
func (g *GymEnv) Start() *mat.VecDense {
	panic("start: cannot calculate starting state for GymEnv")
}

// GetReward implements the environment.Environment interface. This
// function panics.
func (g *GymEnv) GetReward(_, _, _ mat.Vector) float64 {
	panic("getReward: cannot calculate reward for transition in GymEnv")
}

// End implements the environment.Environment interface. This
// function panics.
func (g *GymEnv) End(*ts.TimeStep) bool {
	panic("end: cannot calculate ending for GymEnv")
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
