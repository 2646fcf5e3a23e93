// Package media stores grow-post photos in an object store. Two backends
// are supported: MinIO (self-hosted) and Google Cloud Storage.
package media

import (
	"context"
	"io"
)

// Backend defines the object operations the media library needs.
type Backend interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Library wraps a backend with a stable API for photo storage.
type Library struct {
	backend Backend
}

// NewLibrary constructs a Library for the provided backend.
func NewLibrary(backend Backend) *Library {
	return &Library{backend: backend}
}

// EnsureBucket ensures the configured bucket exists.
func (l *Library) EnsureBucket(ctx context.Context) error {
	return l.backend.EnsureBucket(ctx)
}

// PutPhoto uploads a photo under the given key.
func (l *Library) PutPhoto(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return l.backend.Put(ctx, key, r, size, contentType)
}

// GetPhoto opens a reader for a stored photo.
func (l *Library) GetPhoto(ctx context.Context, key string) (io.ReadCloser, error) {
	return l.backend.Get(ctx, key)
}

// DeletePhoto removes a stored photo. Used to clean up when a post
// insert fails after its photo was already uploaded.
func (l *Library) DeletePhoto(ctx context.Context, key string) error {
	return l.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name.
func (l *Library) Bucket() string {
	return l.backend.Bucket()
}
