// Package blob defines the outbound port for remote object storage, where
// captured receipt images live so the analysis service can fetch them by URL.
package blob

import (
	"context"
	"io"
)

// Store is the remote object store. Uploads are at-least-once: retrying with
// the same key overwrites rather than duplicating.
type Store interface {
	// Upload writes the object under key and returns a URL the analysis
	// service can download it from.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (downloadURL string, err error)

	// Delete removes the object. Used to clean up after a failed
	// ingestion so no remote object is left referenced by nothing.
	Delete(ctx context.Context, key string) error
}
