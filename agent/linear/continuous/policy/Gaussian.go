// Package policy implements linear continuous-action policies
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/timestep"
	"github.com/samuelfneumann/baselines/utils/matutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

const StdOffset float64 = 1e-3

const (
	// Keys for weights map: map[string]*mat.Dense
	MeanWeightsKey   string = "mean"
	StdWeightsKey    string = "standard deviation"
	CriticWeightsKey string = "critic"
)

// Features returns the feature vector of an observation: the
// observation with a constant bias unit appended
func Features(obs mat.Vector) *mat.VecDense {
	n := obs.Len()
	features := mat.NewVecDense(n+1, nil)
	for i := 0; i < n; i++ {
		features.SetVec(i, obs.AtVec(i))
	}
	features.SetVec(n, 1.0)
	return features
}

// Gaussian implements a multi-dimensional linear Gaussian policy with
// a diagonal covariance. The policy uses linear function approximation
// of the features of an observation to compute the mean and the log
// standard deviation of each action dimension.
//
// In evaluation mode the policy is deterministic and always selects
// the mean action.
type Gaussian struct {
	meanWeights *mat.Dense
	stdWeights  *mat.Dense
	actionDims  int
	features    int
	source      rand.Source
	eval        bool
}

// NewGaussian creates a new Gaussian policy for the observations and
// actions of env
func NewGaussian(seed uint64, env environment.Environment) *Gaussian {
	return New(seed, env.ObservationSpec().Shape.Len(),
		env.ActionSpec().Shape.Len())
}

// New creates a new Gaussian policy for observations with obsDims
// dimensions and actions with actionDims dimensions. All weights are
// initialized to zero.
func New(seed uint64, obsDims, actionDims int) *Gaussian {
	features := obsDims + 1
	return &Gaussian{
		meanWeights: mat.NewDense(actionDims, features, nil),
		stdWeights:  mat.NewDense(actionDims, features, nil),
		actionDims:  actionDims,
		features:    features,
		source:      rand.NewSource(seed),
	}
}

// Std gets the standard deviation of the policy given the features of
// some state observation
func (g *Gaussian) Std(features mat.Vector) *mat.VecDense {
	stdVec := mat.NewVecDense(g.actionDims, nil)
	stdVec.MulVec(g.stdWeights, features)
	for i := 0; i < stdVec.Len(); i++ {
		std := math.Exp(stdVec.AtVec(i))
		stdVec.SetVec(i, std+StdOffset)
	}
	return stdVec
}

// Mean gets the mean of the policy given the features of some state
// observation
func (g *Gaussian) Mean(features mat.Vector) *mat.VecDense {
	mean := mat.NewVecDense(g.actionDims, nil)
	mean.MulVec(g.meanWeights, features)
	return mean
}

// SelectAction selects an action from the policy for a given timestep
func (g *Gaussian) SelectAction(t timestep.TimeStep) *mat.VecDense {
	features := Features(t.Observation)
	mean := g.Mean(features)
	if g.eval {
		return mean
	}

	stdVec := g.Std(features)
	variance := make([]float64, stdVec.Len())
	for i := range variance {
		variance[i] = stdVec.AtVec(i) * stdVec.AtVec(i)
	}

	cov := mat.NewDiagDense(len(variance), variance)
	dist, ok := distmv.NewNormal(mean.RawVector().Data, cov, g.source)
	if !ok {
		msg := fmt.Sprintf("selectAction: non-positive-definite "+
			"covariance %v", matutils.Format(cov))
		panic(msg)
	}

	return mat.NewVecDense(g.actionDims, dist.Rand(nil))
}

// Eval sets the policy to evaluation mode
func (g *Gaussian) Eval() { g.eval = true }

// Train sets the policy to training mode
func (g *Gaussian) Train() { g.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (g *Gaussian) IsEval() bool { return g.eval }

// ActionDims returns the dimension of actions
func (g *Gaussian) ActionDims() int { return g.actionDims }

// NumFeatures returns the number of features the policy is linear in
func (g *Gaussian) NumFeatures() int { return g.features }

// Weights gets and returns the weights of the policy. The returned
// matrices are the policy's own weights.
func (g *Gaussian) Weights() map[string]*mat.Dense {
	weights := make(map[string]*mat.Dense)

	weights[MeanWeightsKey] = g.meanWeights
	weights[StdWeightsKey] = g.stdWeights

	return weights
}

// SetWeights sets the weight pointers to point to a new set of weights.
func (g *Gaussian) SetWeights(weights map[string]*mat.Dense) error {
	meanWeights, ok := weights[MeanWeightsKey]
	if !ok {
		return fmt.Errorf("setWeights: no weights named \"%v\"",
			MeanWeightsKey)
	}
	stdWeights, ok := weights[StdWeightsKey]
	if !ok {
		return fmt.Errorf("setWeights: no weights named \"%v\"",
			StdWeightsKey)
	}

	for key, w := range map[string]*mat.Dense{MeanWeightsKey: meanWeights,
		StdWeightsKey: stdWeights} {
		if r, c := w.Dims(); r != g.actionDims || c != g.features {
			return fmt.Errorf("setWeights: %v weights must be %vx%v, "+
				"got %vx%v", key, g.actionDims, g.features, r, c)
		}
	}

	g.meanWeights = meanWeights
	g.stdWeights = stdWeights

	return nil
}
