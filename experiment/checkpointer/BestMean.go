package checkpointer

import (
	"fmt"
	"log"
	"math"

	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/storage"
	"github.com/samuelfneumann/baselines/utils/floatutils"
)

const (
	// DefaultWindow is the number of most recent episodes averaged
	DefaultWindow = 100

	// DefaultName is the name the best agent is saved under
	DefaultName = "best_model.gob"
)

// BestMeanConfig configures a BestMean checkpointer
type BestMeanConfig struct {
	// Cadence is the number of steps between polls of the episode log
	Cadence int

	// Window is the number of most recent episodes whose returns are
	// averaged at each poll
	Window int

	// Name is the name the agent is saved under in the store
	Name string

	// Verbose logs every poll and save
	Verbose bool

	// ConfirmWrite only raises the best mean once the agent has been
	// written successfully. By default the best mean is raised before
	// writing and stays raised when the write fails.
	ConfirmWrite bool
}

// Validate returns an error if the config is invalid
func (c BestMeanConfig) Validate() error {
	if c.Cadence <= 0 {
		return fmt.Errorf("validate: cadence must be positive, got %v",
			c.Cadence)
	}
	if c.Window <= 0 {
		return fmt.Errorf("validate: window must be positive, got %v",
			c.Window)
	}
	if c.Name == "" {
		return fmt.Errorf("validate: name must not be empty")
	}
	return nil
}

// BestMean saves an agent whenever the mean return over the most
// recent episodes exceeds the best mean seen so far. The episode log is
// only polled every Cadence steps.
type BestMean struct {
	best         float64
	name         string
	cadence      int
	window       int
	verbose      bool
	confirmWrite bool

	store storage.Store
	saves int
}

// NewBestMean returns a new BestMean which saves to store. The store's
// directory is created if it does not exist.
func NewBestMean(store storage.Store, c BestMeanConfig) (*BestMean, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newBestMean: %w", err)
	}

	if err := store.EnsureDir(); err != nil {
		return nil, &StorageError{Op: "ensureDir", Path: store.Location(""),
			Err: err}
	}

	return &BestMean{
		best:         math.Inf(-1),
		name:         c.Name,
		cadence:      c.Cadence,
		window:       c.Window,
		verbose:      c.Verbose,
		confirmWrite: c.ConfirmWrite,
		store:        store,
	}, nil
}

// OnStep should be called after every training step with the total
// number of steps taken, the log of finished episodes, and the agent
// being trained. If step is a multiple of the cadence and the log is
// not empty, the agent is saved when the mean return of the last
// Window episodes is strictly greater than the best mean so far.
//
// A failed save returns a *StorageError.
func (b *BestMean) OnStep(step int, episodes []results.Episode,
	agent Serializable) error {
	if step%b.cadence != 0 || len(episodes) == 0 {
		return nil
	}

	mean := floatutils.Mean(results.Returns(episodes), b.window)
	if b.verbose {
		log.Printf("Num timesteps: %v", step)
		log.Printf("Best mean reward: %.2f - Last mean reward per "+
			"episode: %.2f", b.best, mean)
	}

	if !(mean > b.best) {
		return nil
	}

	if !b.confirmWrite {
		b.best = mean
	}
	if b.verbose {
		log.Printf("Saving new best model to %v", b.Path())
	}
	if err := Save(b.store, b.name, agent); err != nil {
		return err
	}

	b.best = mean
	b.saves++
	return nil
}

// Best returns the best mean return seen so far. It is negative
// infinity before the first poll of a non-empty log.
func (b *BestMean) Best() float64 {
	return b.best
}

// Path returns the location the agent is saved to
func (b *BestMean) Path() string {
	return b.store.Location(b.name)
}

// Saves returns the number of successful saves
func (b *BestMean) Saves() int {
	return b.saves
}
