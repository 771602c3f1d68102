package checkpointer

import "fmt"

// StorageError is returned when a checkpoint cannot be persisted
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (s *StorageError) Error() string {
	return fmt.Sprintf("%v %v: %v", s.Op, s.Path, s.Err)
}

func (s *StorageError) Unwrap() error {
	return s.Err
}
