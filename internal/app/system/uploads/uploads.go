// Package uploads stores user-submitted files with unique, date-bucketed
// paths. Handlers pass the multipart file plus the top-level prefix for the
// feature (e.g. "registrations", "events").
package uploads

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
)

// MaxImageSize bounds a single uploaded image.
const MaxImageSize = 5 << 20 // 5 MB

// imageTypes is the accepted set of image content types.
var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// IsImageType reports whether ct is an accepted image content type.
func IsImageType(ct string) bool {
	return imageTypes[ct]
}

// Info contains metadata about an uploaded file.
type Info struct {
	Path        string
	FileName    string
	Size        int64
	ContentType string
}

// Put stores a file with a unique path and returns upload info.
// The path is generated as: <prefix>/YYYY/MM/uuid-filename
func Put(ctx context.Context, store storage.Store, prefix, filename string, reader io.Reader, size int64, contentType string) (Info, error) {
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("%s/%04d/%02d", prefix, now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(filename))
	path := filepath.ToSlash(filepath.Join(dateDir, uniqueName))

	opts := &storage.PutOptions{
		ContentType: contentType,
	}
	if err := store.Put(ctx, path, reader, opts); err != nil {
		return Info{}, fmt.Errorf("failed to upload file: %w", err)
	}

	return Info{
		Path:        path,
		FileName:    filename,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// PutImage validates and stores one image from a multipart form.
func PutImage(ctx context.Context, store storage.Store, prefix string, file multipart.File, header *multipart.FileHeader) (Info, error) {
	if header.Size > MaxImageSize {
		return Info{}, fmt.Errorf("file %q exceeds the %d MB limit", header.Filename, MaxImageSize>>20)
	}
	ct := header.Header.Get("Content-Type")
	if !IsImageType(ct) {
		return Info{}, fmt.Errorf("file %q must be a JPEG, PNG or WebP image", header.Filename)
	}
	return Put(ctx, store, prefix, header.Filename, file, header.Size, ct)
}

// sanitizeFilename removes or replaces characters that could be problematic
// in filenames.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}

	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
