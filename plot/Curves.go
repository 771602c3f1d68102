package plot

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/samuelfneumann/baselines/experiment/results"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the moving average window of learning curves
const DefaultWindow int = 50

// ScatterWindow is the rolling mean window drawn over scatter plots
const ScatterWindow int = 100

// ErrTooFewEpisodes is returned when there are not enough episodes to
// compute a moving average
var ErrTooFewEpisodes = fmt.Errorf("too few episodes to plot")

// Curve returns the learning curve of a run: the moving average of the
// episodic returns over window episodes against the number of
// timesteps taken.
func Curve(eps []results.Episode, window int) (x, y []float64, err error) {
	x, y, err = results.XY(eps, results.Timesteps)
	if err != nil {
		return nil, nil, fmt.Errorf("curve: %w", err)
	}

	y = results.MovingAverage(y, window)
	if len(y) == 0 {
		return nil, nil, fmt.Errorf("curve: %w: %v episodes, window %v",
			ErrTooFewEpisodes, len(eps), window)
	}

	// Truncate x
	x = x[len(x)-len(y):]
	return x, y, nil
}

// LearningCurve plots the smoothed learning curve of a run and saves
// it as a PNG
func LearningCurve(eps []results.Episode, window int, title,
	filename string) error {
	f, err := learningCurve(eps, window, title)
	if err != nil {
		return fmt.Errorf("learningCurve: %w", err)
	}
	return f.save(filename)
}

// WriteLearningCurve plots the smoothed learning curve of a run and
// writes it to w as a PNG
func WriteLearningCurve(w io.Writer, eps []results.Episode, window int,
	title string) error {
	f, err := learningCurve(eps, window, title)
	if err != nil {
		return fmt.Errorf("writeLearningCurve: %w", err)
	}
	return f.encode(w)
}

func learningCurve(eps []results.Episode, window int,
	title string) (*figure, error) {
	x, y, err := Curve(eps, window)
	if err != nil {
		return nil, err
	}

	yMin, yMax := bounds(y)
	f := newFigure(title+" Smoothed", "Number of Timesteps", "Rewards",
		x[0], x[len(x)-1], yMin, yMax)
	f.line(x, y, lineColour)
	return f, nil
}

// Scatter plots the return of every episode against the given axis,
// together with a rolling mean, and saves it as a PNG. Episodes with
// an x value above maxX are not drawn. If maxX is not positive all
// episodes are drawn.
func Scatter(eps []results.Episode, axis results.Axis, title,
	filename string, maxX float64) error {
	x, y, err := results.XY(eps, axis)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}

	if maxX > 0 {
		n := sort.Search(len(x), func(i int) bool { return x[i] > maxX })
		x, y = x[:n], y[:n]
	}
	if len(x) == 0 {
		return fmt.Errorf("scatter: %w", ErrTooFewEpisodes)
	}

	xMin, xMax := bounds(x)
	yMin, yMax := bounds(y)
	f := newFigure(title, axis.Label(), "Episode Rewards", xMin, xMax,
		yMin, yMax)
	f.scatter(x, y, lineColour)

	if mean := results.MovingAverage(y, ScatterWindow); len(mean) > 0 {
		f.line(x[len(x)-len(mean):], mean, meanColour)
	}
	return f.save(filename)
}

// Histogram plots a histogram of values with the given number of bins
// and saves it as a PNG
func Histogram(values []float64, bins int, title, filename string) error {
	if len(values) == 0 {
		return fmt.Errorf("histogram: no values")
	}
	if bins <= 0 {
		return fmt.Errorf("histogram: bins must be positive, got %v", bins)
	}

	dividers, counts := histogram(values, bins)
	_, maxCount := bounds(counts)
	f := newFigure(title, "Episode Rewards", "Count", dividers[0],
		dividers[len(dividers)-1], 0, maxCount)

	for i, count := range counts {
		f.bar(dividers[i], dividers[i+1], count, lineColour)
	}
	return f.save(filename)
}

// histogram returns the bin dividers and the count of values in each
// bin
func histogram(values []float64, bins int) ([]float64, []float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	min, max := sorted[0], sorted[len(sorted)-1]
	if min == max {
		min, max = min-0.5, max+0.5
	}

	// The last divider must be strictly greater than the maximum
	dividers := make([]float64, bins+1)
	floats.Span(dividers, min, max)
	dividers[bins] = math.Nextafter(max, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)
	return dividers, counts
}
