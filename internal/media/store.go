// Package media stores uploaded story media and profile images.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store persists an upload and returns the URL clients use to fetch it.
type Store interface {
	Save(ctx context.Context, folder, filename string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// objectKey builds a collision-free key such as "stories/<uuid>_photo.jpg".
func objectKey(folder, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." || name == ".." || name == "_" {
		name = "upload"
	}
	return fmt.Sprintf("%s/%s_%s", strings.Trim(folder, "/"), uuid.New(), name)
}
