// Package upload stores user-submitted images and hands back a reference the
// identity service can persist on the user record.
//
// The identity service only knows this interface — whether bytes land on the
// local disk (development) or in an S3-compatible bucket (production, MinIO
// in docker-compose) is wiring decided in the composition root.
package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
)

// Uploader stores an image and returns a reference (URL or path) to it.
type Uploader interface {
	// Upload reads the image bytes from r and stores them under a key
	// derived from the owning user's ID and the original filename.
	// It returns the stored-image reference to persist on the user record.
	Upload(ctx context.Context, userID, filename string, r io.Reader) (string, error)
}

// MaxImageSize is the largest thumbnail we accept, in bytes.
// Handlers enforce this on the multipart part before calling Upload.
const MaxImageSize = 5 << 20 // 5 MiB

// storageKey builds the object key for an upload:
//
//	thumbnails/<userID>/<year>/<month>/<xid><ext>
//
// The xid makes every upload unique so a new thumbnail never overwrites the
// old one mid-request; the date prefix keeps listings manageable.
func storageKey(userID, filename string) string {
	now := time.Now()
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("thumbnails/%s/%d/%02d/%s%s",
		userID, now.Year(), int(now.Month()), xid.New().String(), ext)
}
