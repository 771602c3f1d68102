// Package checkpointer implements functionality for saving agents
// during training
package checkpointer

import (
	"bytes"
	"encoding/gob"

	"github.com/samuelfneumann/baselines/storage"
	ts "github.com/samuelfneumann/baselines/timestep"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}

// encode gob encodes object
func encode(object Serializable) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(object); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Restore decodes a snapshot written by a Checkpointer or BestMean into
// object
func Restore(data []byte, object Serializable) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(object)
}

// Save saves object to store under name. A failed save returns a
// *StorageError.
func Save(store storage.Store, name string, object Serializable) error {
	data, err := encode(object)
	if err != nil {
		return &StorageError{Op: "encode", Path: store.Location(name), Err: err}
	}
	if err := store.Put(name, data); err != nil {
		return &StorageError{Op: "put", Path: store.Location(name), Err: err}
	}
	return nil
}

// Load restores object from the snapshot saved in store under name
func Load(store storage.Store, name string, object Serializable) error {
	data, err := store.Get(name)
	if err != nil {
		return &StorageError{Op: "get", Path: store.Location(name), Err: err}
	}
	if err := Restore(data, object); err != nil {
		return &StorageError{Op: "decode", Path: store.Location(name), Err: err}
	}
	return nil
}
