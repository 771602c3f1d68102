// Package storage implements the locations that checkpoints are saved
// to: a directory on the local filesystem or a prefix in an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no object exists with the given
// name
var ErrNotFound = errors.New("object not found")

// Store is a flat collection of named objects. Put overwrites any
// object already stored under the same name.
type Store interface {
	// EnsureDir makes sure the location objects are stored in exists.
	// It is safe to call more than once.
	EnsureDir() error

	Put(name string, data []byte) error
	Get(name string) ([]byte, error)

	// Location returns a human readable location of the named object
	Location(name string) string
}

// New returns the Store described by uri. URIs of the form
// s3://bucket/prefix return an S3 store using the default AWS
// configuration; anything else is treated as a local directory.
func New(ctx context.Context, uri string) (Store, error) {
	if !strings.HasPrefix(uri, s3Scheme) {
		if uri == "" {
			return nil, fmt.Errorf("new: empty storage location")
		}
		return NewLocal(uri), nil
	}

	bucket, prefix, err := parseS3URI(uri)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	store, err := NewS3(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	return store, nil
}
