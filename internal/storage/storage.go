// Package storage defines the blob store used for wishlist images: a small
// per-backend Driver and a Bucket that applies the object naming scheme and
// maps object keys to public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrObjectNotFound is returned when the object does not exist.
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidObjectURL is returned for URLs that do not point into the bucket.
	ErrInvalidObjectURL = errors.New("url does not reference an object in this bucket")
)

// Object describes a stored blob.
type Object struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Driver is the capability every blob backend implements.
type Driver interface {
	// Put streams r into key. size is -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Remove deletes key, returning ErrObjectNotFound if it does not exist.
	Remove(ctx context.Context, key string) error
	// Stat returns object metadata or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (Object, error)
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// WriteError reports a failed upload.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write object %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DeleteError reports a failed removal.
type DeleteError struct {
	Key string
	Err error
}

func (e *DeleteError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("delete object: %v", e.Err)
	}
	return fmt.Sprintf("delete object %q: %v", e.Key, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
