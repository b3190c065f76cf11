package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DriveStore stores attachments as files in one Google Drive folder. The
// storage key is the Drive file ID.
type DriveStore struct {
	svc      *drive.Service
	folderID string
}

// NewDrive creates a Drive-backed store writing into the given folder.
func NewDrive(ctx context.Context, folderID string, opts ...option.ClientOption) (*DriveStore, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("filestore: create drive service: %w", err)
	}
	return NewDriveWithService(svc, folderID), nil
}

// NewDriveWithService creates a Drive-backed store using an existing service.
func NewDriveWithService(svc *drive.Service, folderID string) *DriveStore {
	return &DriveStore{svc: svc, folderID: folderID}
}

// Upload creates the file in the destination folder and returns its file ID.
// Once the ID is returned the remote file is durably created.
func (d *DriveStore) Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	meta := &drive.File{
		Name:    filename,
		Parents: []string{d.folderID},
	}

	f, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload %q: %w", filename, err)
	}
	return f.Id, nil
}

// Delete permanently removes the file. A file that is already gone counts
// as deleted.
func (d *DriveStore) Delete(ctx context.Context, key string) error {
	err := d.svc.Files.Delete(key).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("drive delete %q: %w", key, err)
	}
	return nil
}

// ViewURL returns a browser link for a stored file, for table rows that
// offer an attachment preview.
func ViewURL(key string) string {
	return "https://drive.google.com/file/d/" + key + "/view"
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

var _ Store = (*DriveStore)(nil)
