// Package filestore uploads and deletes binary receipt attachments in a
// folder-scoped remote store. Google Drive is the primary backend; a Cloud
// Storage backend is available for bucket-based deployments.
package filestore

import "context"

// Store is the attachment storage contract. Upload returns an opaque storage
// key identifying the created file. Delete is idempotent: deleting a key
// that no longer exists succeeds.
type Store interface {
	Upload(ctx context.Context, data []byte, filename, mimeType string) (key string, err error)
	Delete(ctx context.Context, key string) error
}
