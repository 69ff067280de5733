// Package filestore is the client side of the remote repository that holds
// posts and the resource collection. Every read returns a version marker and
// every overwrite or delete must present the marker it observed; a stale
// marker fails with apperr.ErrConflict. Nothing here retries.
package filestore

import (
	"context"
	"path"
	"strings"
)

// File is one remote file together with the version marker it was read at.
type File struct {
	Path    string
	Content []byte
	Version string
}

// Entry is a file listed inside a remote directory.
type Entry struct {
	Name string
	Path string
}

// Store is implemented by every remote driver.
//
// Put with an empty version creates the file and fails with ErrConflict when
// it already exists. Put or Delete with a version succeed only when that
// version is still current.
type Store interface {
	Get(ctx context.Context, path string) (*File, error)
	Put(ctx context.Context, path string, content []byte, message, version string) error
	Delete(ctx context.Context, path, message, version string) error
	List(ctx context.Context, dir string) ([]Entry, error)
}

// CleanPath normalizes a repository path: forward slashes, no leading or
// trailing slash, no dot segments.
func CleanPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
