// Package weights defines interfaces for weight initializations
package weights

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Initializer initializes weights
type Initializer interface {
	Initialize(weights *mat.Dense) // initializes weights
}

// LinearUV initializes a single linear layer of weights, drawn from
// a univariate distribution
type LinearUV struct {
	distuv.Rander
}

// NewLinearUV  creates and returns a new LinearUV
func NewLinearUV(rand distuv.Rander) LinearUV {
	if rand == nil {
		panic("rand cannot be nil")
	}
	return LinearUV{rand}
}

// Initialize initializes a matrix of weights using values drawn from
// a univariate distribution
func (l LinearUV) Initialize(weights *mat.Dense) {
	if weights == nil {
		return
	}

	r, c := weights.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			weights.Set(i, j, l.Rand())
		}
	}
}

// ZeroUV implements the distuv.Rander interface so that zero
// initialization can be accomplished thorugh the weight initialization
// structs which take a distuv.Rander argument
type ZeroUV struct{}

// NewZeroUV returns a new ZeroUV
func NewZeroUV() ZeroUV {
	return ZeroUV{}
}

// Rand draws a random number from the interval [0, 0]
func (z ZeroUV) Rand() float64 {
	return 0.0
}

// NewZero returns an Initializer that sets all weights to 0
func NewZero() Initializer {
	return NewLinearUV(NewZeroUV())
}

// NewGaussian returns an Initializer that draws weights from a
// Gaussian with the given mean and standard deviation
func NewGaussian(mean, std float64, seed uint64) Initializer {
	normal := distuv.Normal{Mu: mean, Sigma: std, Src: rand.NewSource(seed)}
	return NewLinearUV(normal)
}
