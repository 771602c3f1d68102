// Package wrappers implements environment wrappers
package wrappers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/timestep"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEarlyReset is returned when a Monitor is reset before the
	// current episode has ended and early resets are not allowed
	ErrEarlyReset = errors.New("tried to reset an environment before " +
		"the episode ended")

	// ErrNeedsReset is returned when a Monitor is stepped after the
	// episode has ended without first being reset
	ErrNeedsReset = errors.New("tried to step an environment that " +
		"needs reset")
)

// Monitor wraps an environment and records the return, length, and
// wall time of each episode. Every finished episode is kept in memory
// and appended as a row to a CSV results log on disk, which can later
// be read with the results package.
//
// Monitor itself implements the environment.Environment interface.
type Monitor struct {
	environment.Environment

	runID            string
	filename         string
	file             *os.File
	writer           *csv.Writer
	start            time.Time
	allowEarlyResets bool

	episodeReturn float64
	episodeSteps  int
	totalSteps    int
	needsReset    bool
	episodes      []results.Episode
}

// NewMonitor returns a new Monitor which writes its results log to the
// directory dir, creating the directory if needed. The envID is
// recorded in the log header. If allowEarlyResets is false, then
// resetting the environment before an episode ends is an error.
//
// If dir is empty, episodes are only recorded in memory.
func NewMonitor(env environment.Environment, dir, envID string,
	allowEarlyResets bool) (*Monitor, error) {
	return NewPrefixedMonitor(env, dir, "", envID, allowEarlyResets)
}

// NewPrefixedMonitor is like NewMonitor, but names its results log
// <prefix>.monitor.csv so that it does not replace other logs in dir.
// An empty prefix gives the same log as NewMonitor.
func NewPrefixedMonitor(env environment.Environment, dir, prefix,
	envID string, allowEarlyResets bool) (*Monitor, error) {
	m := &Monitor{
		Environment:      env,
		runID:            uuid.New().String(),
		start:            time.Now(),
		allowEarlyResets: allowEarlyResets,
	}

	if dir == "" {
		return m, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("newPrefixedMonitor: could not create log "+
			"directory: %w", err)
	}

	name := results.FileSuffix
	if prefix != "" {
		name = prefix + "." + results.FileSuffix
	}
	m.filename = filepath.Join(dir, name)
	file, err := os.Create(m.filename)
	if err != nil {
		return nil, fmt.Errorf("newPrefixedMonitor: could not create "+
			"results log: %w", err)
	}
	m.file = file

	header, err := json.Marshal(results.Header{
		TStart: float64(m.start.UnixNano()) / 1e9,
		EnvID:  envID,
		RunID:  m.runID,
	})
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("newPrefixedMonitor: %w", err)
	}
	if _, err := fmt.Fprintf(file, "#%s\n", header); err != nil {
		file.Close()
		return nil, fmt.Errorf("newPrefixedMonitor: could not write "+
			"header: %w", err)
	}

	m.writer = csv.NewWriter(file)
	if err := m.writeRow("r", "l", "t"); err != nil {
		file.Close()
		return nil, fmt.Errorf("newPrefixedMonitor: %w", err)
	}

	return m, nil
}

// Reset resets the environment between episodes
func (m *Monitor) Reset() (timestep.TimeStep, error) {
	if !m.allowEarlyResets && m.episodeSteps > 0 && !m.needsReset {
		return timestep.TimeStep{}, fmt.Errorf("reset: %w", ErrEarlyReset)
	}

	m.episodeReturn = 0
	m.episodeSteps = 0
	m.needsReset = false
	return m.Environment.Reset()
}

// Step takes an environmental step, recording the episode if it ends
func (m *Monitor) Step(action *mat.VecDense) (timestep.TimeStep, bool,
	error) {
	if m.needsReset {
		return timestep.TimeStep{}, true, fmt.Errorf("step: %w",
			ErrNeedsReset)
	}

	step, done, err := m.Environment.Step(action)
	if err != nil {
		return step, done, err
	}

	m.episodeReturn += step.Reward
	m.episodeSteps++
	m.totalSteps++

	if done {
		m.needsReset = true
		if err := m.record(); err != nil {
			return step, done, fmt.Errorf("step: %w", err)
		}
	}

	return step, done, nil
}

// record records the just-finished episode
func (m *Monitor) record() error {
	ep := results.Episode{
		Return: round(m.episodeReturn),
		Length: m.episodeSteps,
		Time:   round(time.Since(m.start).Seconds()),
		Step:   m.totalSteps,
	}
	m.episodes = append(m.episodes, ep)

	if m.writer == nil {
		return nil
	}
	return m.writeRow(
		strconv.FormatFloat(ep.Return, 'f', -1, 64),
		strconv.Itoa(ep.Length),
		strconv.FormatFloat(ep.Time, 'f', -1, 64),
	)
}

func (m *Monitor) writeRow(row ...string) error {
	if err := m.writer.Write(row); err != nil {
		return fmt.Errorf("could not write results log: %w", err)
	}
	m.writer.Flush()
	if err := m.writer.Error(); err != nil {
		return fmt.Errorf("could not flush results log: %w", err)
	}
	return nil
}

// Episodes returns all episodes finished so far in order. The returned
// slice is owned by the Monitor and must not be modified.
func (m *Monitor) Episodes() []results.Episode {
	return m.episodes
}

// TotalSteps returns the number of environment steps taken
func (m *Monitor) TotalSteps() int {
	return m.totalSteps
}

// RunID returns the unique id of the monitored run
func (m *Monitor) RunID() string {
	return m.runID
}

// Filename returns the path of the results log, or the empty string
// if the Monitor keeps episodes in memory only
func (m *Monitor) Filename() string {
	return m.filename
}

// Close closes the results log and the wrapped environment
func (m *Monitor) Close() error {
	var fileErr error
	if m.file != nil {
		m.writer.Flush()
		fileErr = m.file.Close()
		m.file = nil
	}

	if err := m.Environment.Close(); err != nil {
		return err
	}
	return fileErr
}

// String returns a string representation of the Monitor
func (m *Monitor) String() string {
	return fmt.Sprintf("Monitor: %v", m.Environment)
}

func round(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
