// Package storage keeps uploaded files either on the local filesystem or in
// an S3 compatible bucket.
package storage

import (
	"context"
	"io"
	"regexp"
	"time"

	"github.com/Laisky/errors/v2"
)

// ErrNotExist is returned when the requested file is missing.
var ErrNotExist = errors.New("file does not exist")

var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// FileInfo describes a stored file
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Store is the upload backend. dir is a single path segment such as "posts".
type Store interface {
	Save(ctx context.Context, dir, name string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, dir, name string) error
	List(ctx context.Context, dir string) ([]FileInfo, error)
	// URL is the public address clients use to fetch the file
	URL(dir, name string) string
	// Path is the backend location, a filesystem path or an object key
	Path(dir, name string) string
}

// ValidateName rejects anything that could escape the upload directory.
func ValidateName(name string) error {
	if !validName.MatchString(name) || name == "." || name == ".." {
		return errors.Errorf("invalid file name %q", name)
	}
	return nil
}

func validate(dir, name string) error {
	if err := ValidateName(dir); err != nil {
		return errors.Wrap(err, "dir")
	}
	if err := ValidateName(name); err != nil {
		return errors.Wrap(err, "name")
	}
	return nil
}
