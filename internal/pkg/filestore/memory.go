package filestore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/adminblog/core/internal/pkg/apperr"
)

// Memory is an in-process Store. Versions are git blob hashes of the content,
// so a rewrite with identical bytes keeps its version like the GitHub driver.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Seed writes content at path without any version check.
func (m *Memory) Seed(path string, content []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = CleanPath(path)
	m.files[path] = append([]byte(nil), content...)
	return BlobVersion(content)
}

func (m *Memory) Get(ctx context.Context, path string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Remote("get", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	path = CleanPath(path)
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}
	return &File{
		Path:    path,
		Content: append([]byte(nil), content...),
		Version: BlobVersion(content),
	}, nil
}

func (m *Memory) Put(ctx context.Context, path string, content []byte, message, version string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Remote("put", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	path = CleanPath(path)
	current, exists := m.files[path]
	switch {
	case version == "" && exists:
		return fmt.Errorf("%w: %s already exists", apperr.ErrConflict, path)
	case version != "" && !exists:
		return fmt.Errorf("%w: %s no longer exists", apperr.ErrConflict, path)
	case version != "" && BlobVersion(current) != version:
		return fmt.Errorf("%w: %s is not at version %s", apperr.ErrConflict, path, version)
	}
	m.files[path] = append([]byte(nil), content...)
	return nil
}

func (m *Memory) Delete(ctx context.Context, path, message, version string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Remote("delete", path, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	path = CleanPath(path)
	current, exists := m.files[path]
	if !exists {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, path)
	}
	if BlobVersion(current) != version {
		return fmt.Errorf("%w: %s is not at version %s", apperr.ErrConflict, path, version)
	}
	delete(m.files, path)
	return nil
}

func (m *Memory) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Remote("list", dir, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := CleanPath(dir) + "/"
	var entries []Entry
	found := false
	for p := range m.files {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok {
			continue
		}
		found = true
		if strings.Contains(rest, "/") {
			continue
		}
		entries = append(entries, Entry{Name: rest, Path: p})
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, dir)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// BlobVersion returns the git blob SHA-1 of content.
func BlobVersion(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
