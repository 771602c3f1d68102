package results

import "fmt"

// Axis determines the x-axis of a learning curve
type Axis string

const (
	Timesteps Axis = "timesteps"
	Episodes  Axis = "episodes"
	WallTime  Axis = "walltime_hrs"
)

// Label returns the axis label of a learning curve plotted against a
func (a Axis) Label() string {
	switch a {
	case Timesteps:
		return "Number of Timesteps"
	case Episodes:
		return "Number of Episodes"
	case WallTime:
		return "Walltime (hours)"
	default:
		return string(a)
	}
}

// XY returns the x and y values of a learning curve, where y is the
// episodic return and x is determined by axis.
func XY(episodes []Episode, axis Axis) (x, y []float64, err error) {
	x = make([]float64, len(episodes))
	y = Returns(episodes)

	for i, ep := range episodes {
		switch axis {
		case Timesteps:
			x[i] = float64(ep.Step)
		case Episodes:
			x[i] = float64(i)
		case WallTime:
			x[i] = ep.Time / 3600.0
		default:
			return nil, nil, fmt.Errorf("xy: unknown axis %q", axis)
		}
	}

	return x, y, nil
}

// MovingAverage smooths values with a moving average over window
// consecutive values. Only windows fully contained in values are
// used, so the result holds len(values) - window + 1 values. If there
// are fewer values than the window, nil is returned.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || len(values) < window {
		return nil
	}

	averages := make([]float64, 0, len(values)-window+1)
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			averages = append(averages, sum/float64(window))
		}
	}
	return averages
}
