// Package crawler implements a small box2d locomotion environment. A
// rigid box rests on flat ground and is driven forward by a thruster
// and a reaction wheel. The agent must learn to move the box as far
// to the right as possible without flipping it over.
package crawler

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/timestep"
	"github.com/samuelfneumann/baselines/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	FPS float64 = 50

	XGravity float64 = 0.0
	YGravity float64 = -10.0

	ThrustPower float64 = 40.0
	TorquePower float64 = 8.0

	BodyHalfWidth  float64 = 0.5
	BodyHalfHeight float64 = 0.25
	GroundLength   float64 = 1000.0

	// Action
	ActionDims          int     = 2
	MaxContinuousAction float64 = 1.0
	MinContinuousAction float64 = -MaxContinuousAction

	// State observations: x velocity, y velocity, height, angle,
	// angular velocity
	ObservationDims int     = 5
	MaxVelocity     float64 = 2.0 * FPS // Box2D limit of 2 units per step
	MinVelocity     float64 = -MaxVelocity
	MaxHeight       float64 = 10.0

	ViewportW float64 = 400
	ViewportH float64 = 200
	Scale     float64 = 40.0

	velocityIterations int = 6
	positionIterations int = 2
)

// Crawler implements the crawler environment with continuous actions.
//
// Actions are 2-dimensional and bounded by [-1, 1]. The first action
// dimension is a horizontal thrust applied at the centre of the body,
// the second a torque applied by the reaction wheel. Actions outside
// of the legal range are clipped.
//
// Observations are the horizontal and vertical velocity of the body,
// its height above the ground, its angle and its angular velocity.
// The starting state is sampled from the Task's Starter, which must
// return the starting angle of the body in its first dimension.
type Crawler struct {
	environment.Task

	world  box2d.B2World
	ground *box2d.B2Body
	body   *box2d.B2Body

	actionBounds r1.Interval
	angleBounds  r1.Interval

	discount float64
	prevStep timestep.TimeStep
	prevX    float64
}

// New returns a new Crawler environment along with its first TimeStep
func New(task environment.Task, discount float64) (*Crawler,
	timestep.TimeStep, error) {
	c := &Crawler{
		Task:         task,
		actionBounds: r1.Interval{Min: MinContinuousAction, Max: MaxContinuousAction},
		angleBounds:  r1.Interval{Min: -math.Pi, Max: math.Pi},
		discount:     discount,
	}

	step, err := c.Reset()
	if err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %v", err)
	}
	return c, step, nil
}

// Reset resets the environment, rebuilding the physics world
func (c *Crawler) Reset() (timestep.TimeStep, error) {
	start := c.Start()
	if start.Len() < 1 {
		return timestep.TimeStep{}, fmt.Errorf("reset: starter must " +
			"sample at least the starting angle")
	}
	angle := start.AtVec(0)
	if angle <= c.angleBounds.Min || angle >= c.angleBounds.Max {
		return timestep.TimeStep{}, fmt.Errorf("reset: starting angle %v "+
			"is not within %v", angle, c.angleBounds)
	}

	c.world = box2d.MakeB2World(box2d.MakeB2Vec2(XGravity, YGravity))

	// Ground
	groundDef := box2d.MakeB2BodyDef()
	c.ground = c.world.CreateBody(&groundDef)
	groundShape := box2d.MakeB2EdgeShape()
	groundShape.Set(
		box2d.MakeB2Vec2(-GroundLength, 0.0),
		box2d.MakeB2Vec2(GroundLength, 0.0),
	)
	groundFix := box2d.MakeB2FixtureDef()
	groundFix.Shape = &groundShape
	groundFix.Friction = 0.6
	c.ground.CreateFixtureFromDef(&groundFix)

	// Body
	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = 2 // Dynamic body
	bodyDef.Position = box2d.MakeB2Vec2(0.0, BodyHalfHeight+0.01)
	bodyDef.Angle = angle
	c.body = c.world.CreateBody(&bodyDef)

	bodyShape := box2d.MakeB2PolygonShape()
	bodyShape.SetAsBox(BodyHalfWidth, BodyHalfHeight)
	bodyFix := box2d.MakeB2FixtureDef()
	bodyFix.Shape = &bodyShape
	bodyFix.Density = 1.0
	bodyFix.Friction = 0.6
	c.body.CreateFixtureFromDef(&bodyFix)

	c.prevX = c.body.GetPosition().X
	c.prevStep = timestep.New(timestep.First, 0, c.discount, c.observe(), 0)

	return c.prevStep, nil
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended.
func (c *Crawler) Step(a *mat.VecDense) (timestep.TimeStep, bool, error) {
	if a.Len() != ActionDims {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions should "+
			"be %v-dimensional, got %v", ActionDims, a.Len())
	}
	thrust := floatutils.ClipInterval(a.AtVec(0), c.actionBounds)
	torque := floatutils.ClipInterval(a.AtVec(1), c.actionBounds)
	clipped := mat.NewVecDense(ActionDims, []float64{thrust, torque})

	c.body.ApplyForceToCenter(box2d.MakeB2Vec2(thrust*ThrustPower, 0), true)
	c.body.ApplyTorque(torque*TorquePower, true)
	c.world.Step(1.0/FPS, velocityIterations, positionIterations)

	state := c.observe()
	reward := c.GetReward(c.prevStep.Observation, clipped, state)

	t := timestep.New(timestep.Mid, reward, c.discount, state,
		c.prevStep.Number+1)
	c.End(&t)

	c.prevStep = t
	c.prevX = c.body.GetPosition().X
	return t, t.Last(), nil
}

// observe returns the current state observation
func (c *Crawler) observe() *mat.VecDense {
	vel := c.body.GetLinearVelocity()
	pos := c.body.GetPosition()

	return mat.NewVecDense(ObservationDims, []float64{
		vel.X,
		vel.Y,
		pos.Y,
		floatutils.Wrap(c.body.GetAngle(), c.angleBounds.Min,
			c.angleBounds.Max),
		c.body.GetAngularVelocity(),
	})
}

// Position returns the horizontal position of the body
func (c *Crawler) Position() float64 {
	return c.body.GetPosition().X
}

// CurrentTimeStep returns the most recent TimeStep
func (c *Crawler) CurrentTimeStep() timestep.TimeStep {
	return c.prevStep
}

// ActionSpec returns the action specification of the environment
func (c *Crawler) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lower := mat.NewVecDense(ActionDims, []float64{c.actionBounds.Min,
		c.actionBounds.Min})
	upper := mat.NewVecDense(ActionDims, []float64{c.actionBounds.Max,
		c.actionBounds.Max})

	return environment.NewSpec(shape, environment.Action, lower, upper,
		environment.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Crawler) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)
	lower := mat.NewVecDense(ObservationDims, []float64{
		MinVelocity, MinVelocity, 0, c.angleBounds.Min, MinVelocity,
	})
	upper := mat.NewVecDense(ObservationDims, []float64{
		MaxVelocity, MaxVelocity, MaxHeight, c.angleBounds.Max, MaxVelocity,
	})

	return environment.NewSpec(shape, environment.Observation, lower, upper,
		environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (c *Crawler) DiscountSpec() environment.Spec {
	return environment.NewDiscountSpec(c.discount)
}

// Close implements the environment.Environment interface
func (c *Crawler) Close() error {
	c.world.Destroy()
	return nil
}

// Frame draws the current state of the environment. The camera
// follows the body horizontally.
func (c *Crawler) Frame() image.Image {
	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetColor(color.RGBA{R: 30, G: 30, B: 30, A: 255})
	dc.Clear()

	camera := c.body.GetPosition().X
	toPixel := func(v box2d.B2Vec2) (float64, float64) {
		return ViewportW/2 + Scale*(v.X-camera), ViewportH - 40 - Scale*v.Y
	}

	// Ground with tick marks so that motion is visible
	dc.SetColor(color.RGBA{R: 255, G: 166, B: 0, A: 255})
	dc.SetLineWidth(3)
	_, groundY := toPixel(box2d.MakeB2Vec2(0, 0))
	dc.DrawLine(0, groundY, ViewportW, groundY)
	dc.Stroke()
	for x := math.Floor(camera - ViewportW/Scale); x < camera+ViewportW/Scale; x++ {
		px, py := toPixel(box2d.MakeB2Vec2(x, 0))
		dc.DrawLine(px, py, px, py+8)
	}
	dc.Stroke()

	// Body
	shape := c.body.GetFixtureList().GetShape().(*box2d.B2PolygonShape)
	for i := 0; i < shape.M_count; i++ {
		vertex := box2d.B2TransformVec2Mul(c.body.GetTransform(),
			shape.M_vertices[i])
		x, y := toPixel(vertex)
		dc.LineTo(x, y)
	}
	dc.ClosePath()
	dc.SetColor(color.RGBA{R: 128, G: 102, B: 230, A: 255})
	dc.Fill()

	return dc.Image()
}

// String returns a string representation of the environment
func (c *Crawler) String() string {
	pos := c.body.GetPosition()
	return fmt.Sprintf("Crawler  |  x: %.2f  |  y: %.2f  |  angle: %.2f",
		pos.X, pos.Y, c.body.GetAngle())
}
