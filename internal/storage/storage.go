package storage

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned when an object key is blank.
var ErrEmptyKey = errors.New("storage: empty object key")

// ImageStore keeps recipe images addressable by URL.
type ImageStore interface {
	// Upload stores data under key, replacing any previous object.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the address clients fetch key from.
	PublicURL(key string) string
}
