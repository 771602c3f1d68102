package actorcritic

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"github.com/samuelfneumann/baselines/agent/linear/continuous/policy"
	"github.com/samuelfneumann/baselines/environment"
	ts "github.com/samuelfneumann/baselines/timestep"
	"github.com/samuelfneumann/baselines/utils/floatutils"
	"github.com/samuelfneumann/baselines/utils/matutils"
	"github.com/samuelfneumann/baselines/utils/matutils/initializers/weights"
	"gonum.org/v1/gonum/mat"
)

// LinearGaussian implements the Linear-Gaussian Actor-Critic algorithm:
//
// https://hal.inria.fr/hal-00764281/PDF/DegrisACC2012.pdf
//
// This algorithm uses linear function approximation to learn both
// a linear state value function critic and a Gaussian policy actor.
// The policy itself may select n-dimensional actions. The algorithm
// uses eligibility traces for both actor and critic gradients.
//
// LinearGaussian can be gob encoded, which saves its configuration
// and weights but not its eligibility traces.
type LinearGaussian struct {
	*policy.Gaussian

	step     ts.TimeStep
	action   *mat.VecDense
	nextStep ts.TimeStep

	seed   uint64
	config Config

	// Weights for linear function approximation
	meanWeights   *mat.Dense
	stdWeights    *mat.Dense
	criticWeights *mat.VecDense

	// Eligibility traces
	meanTrace   *mat.Dense
	stdTrace    *mat.Dense
	criticTrace *mat.VecDense

	obsDims    int
	actionDims int
}

// NewLinearGaussian returns a new LinearGaussian
func NewLinearGaussian(env environment.Environment, c Config,
	init weights.Initializer, seed uint64) (*LinearGaussian, error) {
	actionSpec := env.ActionSpec()
	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newLinearGaussian: actions must be " +
			"continuous")
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newLinearGaussian: %w", err)
	}

	l := newLinearGaussian(c, seed, env.ObservationSpec().Shape.Len(),
		actionSpec.Shape.Len())
	init.Initialize(l.meanWeights)
	init.Initialize(l.stdWeights)

	criticWeights := mat.NewDense(1, l.criticWeights.Len(),
		l.criticWeights.RawVector().Data)
	init.Initialize(criticWeights)

	return l, nil
}

// newLinearGaussian returns a LinearGaussian with zero weights
func newLinearGaussian(c Config, seed uint64, obsDims,
	actionDims int) *LinearGaussian {
	p := policy.New(seed, obsDims, actionDims)
	w := p.Weights()
	features := p.NumFeatures()

	return &LinearGaussian{
		Gaussian: p,
		seed:     seed,
		config:   c,

		meanWeights:   w[policy.MeanWeightsKey],
		stdWeights:    w[policy.StdWeightsKey],
		criticWeights: mat.NewVecDense(features, nil),

		meanTrace:   mat.NewDense(actionDims, features, nil),
		stdTrace:    mat.NewDense(actionDims, features, nil),
		criticTrace: mat.NewVecDense(features, nil),

		obsDims:    obsDims,
		actionDims: actionDims,
	}
}

// Config returns the agent's configuration
func (l *LinearGaussian) Config() Config {
	return l.config
}

// Value returns the critic's estimate of the value of an observation
func (l *LinearGaussian) Value(obs mat.Vector) float64 {
	return mat.Dot(l.criticWeights, policy.Features(obs))
}

// Step updates the algorithm's weights
func (l *LinearGaussian) Step() error {
	// If in evaluation mode, do not step
	if l.IsEval() {
		return nil
	}
	if l.action == nil {
		return fmt.Errorf("step: no action observed")
	}

	state := policy.Features(l.step.Observation)
	nextState := policy.Features(l.nextStep.Observation)

	// Calculate TD error δ. Terminal states have zero value.
	r := l.nextStep.Reward
	ℽ := l.nextStep.Discount
	stateValue := mat.Dot(l.criticWeights, state)
	nextStateValue := mat.Dot(l.criticWeights, nextState)
	if l.nextStep.Last() &&
		l.nextStep.EndType() == ts.TerminalStateReached {
		nextStateValue = 0
	}
	δ := r + ℽ*nextStateValue - stateValue

	// Update the critic trace and weights
	l.criticTrace.AddScaledVec(state, ℽ*l.config.Decay, l.criticTrace)
	l.criticWeights.AddScaledVec(l.criticWeights,
		l.config.CriticLearningRate*δ, l.criticTrace)

	mean := l.Gaussian.Mean(state)
	std := l.Gaussian.Std(state)
	row, col := l.meanWeights.Dims()

	// Gradient of the log density with respect to the mean weights
	meanGradScale := mat.NewVecDense(l.actionDims, nil)
	meanGradScale.SubVec(l.action, mean)
	variance := mat.NewVecDense(l.actionDims, nil)
	variance.MulElemVec(std, std)
	meanGradScale.DivElemVec(meanGradScale, variance)
	meanGrad := mat.NewDense(row, col, nil)
	meanGrad.Outer(1.0, meanGradScale, state)

	// Gradient of the log density with respect to the log standard
	// deviation weights
	stdGradScale := mat.NewVecDense(l.actionDims, nil)
	stdGradScale.SubVec(l.action, mean)
	stdGradScale.MulElemVec(stdGradScale, stdGradScale)
	stdGradScale.DivElemVec(stdGradScale, variance)
	ones := mat.NewVecDense(l.actionDims, floatutils.Ones(l.actionDims))
	stdGradScale.SubVec(stdGradScale, ones)
	stdGrad := mat.NewDense(row, col, nil)
	stdGrad.Outer(1.0, stdGradScale, state)

	// Actor traces
	l.meanTrace.Scale(ℽ*l.config.Decay, l.meanTrace)
	l.meanTrace.Add(meanGrad, l.meanTrace)
	l.stdTrace.Scale(ℽ*l.config.Decay, l.stdTrace)
	l.stdTrace.Add(stdGrad, l.stdTrace)

	actorLR := l.config.ActorLearningRate
	if l.config.ScaleActorLR && std.Len() == 1 {
		actorLR *= math.Pow(std.AtVec(0), 2)
	}

	addMean := mat.NewDense(row, col, nil)
	addMean.Scale(actorLR*δ, l.meanTrace)
	l.meanWeights.Add(l.meanWeights, addMean)

	addStd := mat.NewDense(row, col, nil)
	addStd.Scale(actorLR*δ, l.stdTrace)
	l.stdWeights.Add(l.stdWeights, addStd)

	return nil
}

// Observe records the previously selected action and the timestep
// that it led to
func (l *LinearGaussian) Observe(a mat.Vector, nextStep ts.TimeStep) error {
	if a.Len() != l.actionDims {
		return fmt.Errorf("observe: expected %v-dimensional action, got %v",
			l.actionDims, a.Len())
	}
	l.step = l.nextStep
	l.action = mat.VecDenseCopyOf(a)
	l.nextStep = nextStep
	return nil
}

// ObserveFirst observes the first timestep in an episode
func (l *LinearGaussian) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "warning: ObserveFirst() called on %v "+
			"timestep\n", t.StepType)
	}
	l.step = t
	l.nextStep = t
	l.action = nil
	return nil
}

// EndEpisode zeroes the eligibility traces after an episode has
// completed
func (l *LinearGaussian) EndEpisode() {
	l.criticTrace.Zero()
	l.stdTrace.Zero()
	l.meanTrace.Zero()
}

// snapshot is the gob encoded form of a LinearGaussian
type snapshot struct {
	Config     Config
	Seed       uint64
	ObsDims    int
	ActionDims int
	Mean       []float64
	Std        []float64
	Critic     []float64
}

// GobEncode implements the gob.GobEncoder interface
func (l *LinearGaussian) GobEncode() ([]byte, error) {
	_, _, mean := matutils.DenseData(l.meanWeights)
	_, _, std := matutils.DenseData(l.stdWeights)

	s := snapshot{
		Config:     l.config,
		Seed:       l.seed,
		ObsDims:    l.obsDims,
		ActionDims: l.actionDims,
		Mean:       mean,
		Std:        std,
		Critic:     l.criticWeights.RawVector().Data,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("gobEncode: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded agent
// replaces the receiver entirely, so the receiver may be a zero value.
// The decoded agent is in training mode with zeroed traces.
func (l *LinearGaussian) GobDecode(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}

	if s.ObsDims < 1 || s.ActionDims < 1 {
		return fmt.Errorf("gobDecode: invalid dimensions: %v-dimensional "+
			"observations and %v-dimensional actions", s.ObsDims,
			s.ActionDims)
	}
	if err := s.Config.Validate(); err != nil {
		return fmt.Errorf("gobDecode: %w", err)
	}

	decoded := newLinearGaussian(s.Config, s.Seed, s.ObsDims, s.ActionDims)
	features := decoded.NumFeatures()
	if len(s.Mean) != s.ActionDims*features ||
		len(s.Std) != s.ActionDims*features || len(s.Critic) != features {
		return fmt.Errorf("gobDecode: weights do not match %v-dimensional "+
			"observations and %v-dimensional actions", s.ObsDims,
			s.ActionDims)
	}

	decoded.meanWeights.Copy(mat.NewDense(s.ActionDims, features, s.Mean))
	decoded.stdWeights.Copy(mat.NewDense(s.ActionDims, features, s.Std))
	decoded.criticWeights.CopyVec(mat.NewVecDense(features, s.Critic))

	*l = *decoded
	return nil
}

// Save saves the agent to a file
func (l *LinearGaussian) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(l); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return file.Close()
}

// Load loads an agent saved with Save into l
func (l *LinearGaussian) Load(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(l); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}
