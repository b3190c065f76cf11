package receipt

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const idPrefix = "rec"

// filenameExtensions are the extensions an attachment filename may keep;
// anything else falls back to jpg.
var filenameExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"pdf":  true,
}

// NewID generates a unique receipt identifier of the form
// rec_YYYYMMDD_<12 hex chars>. Uniqueness relies on randomness alone; there
// is no collision check against existing records.
func NewID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%s_%s", idPrefix, time.Now().Format("20060102"), suffix)
}

// AttachmentFilename derives the storage filename for a receipt attachment:
// the record ID plus the lowercase original extension when supported, else jpg.
func AttachmentFilename(id, originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !filenameExtensions[ext] {
		ext = "jpg"
	}
	return id + "." + ext
}
