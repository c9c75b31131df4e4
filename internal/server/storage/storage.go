// Package storage writes accepted uploads to their destination directory.
// Every backend overwrites an existing file of the same name.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
)

// Writer persists one file.
type Writer interface {
	Write(ctx context.Context, dir, filename string, body io.Reader, size int64) error
}

var (
	ErrBucketNotFound   = errors.New("bucket not found")
	ErrPermissionDenied = errors.New("storage permission denied")
	ErrAuthInvalid      = errors.New("storage credentials rejected")
	ErrUnavailable      = errors.New("storage unavailable")
	ErrInvalidPath      = errors.New("invalid storage path")
)

// objectPath joins dir and filename into a cleaned absolute path. Filenames
// carrying directory parts are rejected.
func objectPath(dir, filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", errors.Wrapf(ErrInvalidPath, "filename %q", filename)
	}
	return path.Join("/", dir, filename), nil
}

// objectKey is objectPath without the leading slash, as used for buckets.
func objectKey(dir, filename string) (string, error) {
	p, err := objectPath(dir, filename)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(p, "/"), nil
}

// contentType guesses the MIME type stored alongside object uploads.
func contentType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(lower, ".csv"):
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
