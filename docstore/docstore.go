/*
Package docstore provides durable storage for closing statement documents.

PURPOSE:
  The closing engine treats document storage as a narrow boundary:
  upload with overwrite (retry-safe), remove (compensation), and a
  resolvable public URL for downloads. The production implementation
  keeps documents on the local filesystem next to the SQLite database
  and serves them over HTTP; a cloud bucket slots in behind the same
  interface.

PATHS:
  Callers build paths with billing.DocumentPath, which sanitizes pilot
  names. Implementations must still reject any path escaping their root.
*/
package docstore

import "context"

// Store persists opaque document bytes under deterministic paths.
type Store interface {
	// Upload writes data at path. With overwrite set an existing
	// document is replaced, making retried closes idempotent.
	Upload(ctx context.Context, path string, data []byte, overwrite bool) (string, error)

	// Remove deletes the document at path. Removing a missing document
	// returns billing.ErrDocumentNotFound.
	Remove(ctx context.Context, path string) error

	// PublicURL resolves path to a URL a client can download from.
	PublicURL(path string) string
}
