// Package storage abstracts object storage for binary assets: team flag
// images and admin data exports.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader is the object storage surface the services depend on.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	// GetPublicURL maps a stored key to its public, cache-friendly URL.
	GetPublicURL(key string) string
}
