package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/baselines/storage"
	ts "github.com/samuelfneumann/baselines/timestep"
)

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	object   Serializable // Object to save
	store    storage.Store

	// filename returns the name to save the next checkpoint under.
	//
	// If each serialized object should be saved in a separate file with
	// each file having an incremented number as a suffix (e.g.
	// file1.gob, file2.gob, ..., fileK.gob), then use
	// FilenameEnumerator. If the name does not matter, use FileTimer:
	//
	// n := NewNStep(10, object, store, FileTimer("agent", ".gob"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints object to store
// every n steps
func NewNStep(n int, object Serializable, store storage.Store,
	filename func() string) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNStep: interval must be positive")
	}
	if err := store.EnsureDir(); err != nil {
		return nil, &StorageError{Op: "ensureDir", Path: store.Location(""),
			Err: err}
	}

	return &nStep{
		interval: n,
		object:   object,
		store:    store,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if the TimeStep number is a
// multiple of the checkpointing interval
func (n *nStep) Checkpoint(t ts.TimeStep) error {
	if t.Number%n.interval != 0 {
		return nil
	}

	return Save(n.store, n.filename(), n.object)
}
