// Package resource manages the resource collection: a single JSON array file
// rewritten whole on every mutation.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/adminblog/core/internal/pkg/filestore"
	"go.uber.org/zap"
)

type Service struct {
	store filestore.Store
	path  string
	log   *zap.Logger
}

// NewService returns a resource service backed by the JSON file at path.
func NewService(store filestore.Store, path string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store: store,
		path:  filestore.CleanPath(path),
		log:   logger.Named("resource"),
	}
}

// List returns the collection in stored order. An absent file is empty.
func (s *Service) List(ctx context.Context) ([]json.RawMessage, error) {
	items, _, err := s.load(ctx)
	return items, err
}

// Append adds value at the end of the collection.
func (s *Service) Append(ctx context.Context, value json.RawMessage) error {
	return s.mutate(ctx, "Add resource", func(items []json.RawMessage) ([]json.RawMessage, error) {
		return append(items, value), nil
	})
}

// Replace overwrites the element at index.
func (s *Service) Replace(ctx context.Context, index int, value json.RawMessage) error {
	return s.mutate(ctx, "Update resource", func(items []json.RawMessage) ([]json.RawMessage, error) {
		if err := checkIndex(index, len(items)); err != nil {
			return nil, err
		}
		items[index] = value
		return items, nil
	})
}

// Remove deletes the element at index, shifting later elements down.
func (s *Service) Remove(ctx context.Context, index int) error {
	return s.mutate(ctx, "Delete resource", func(items []json.RawMessage) ([]json.RawMessage, error) {
		if err := checkIndex(index, len(items)); err != nil {
			return nil, err
		}
		return append(items[:index], items[index+1:]...), nil
	})
}

// mutate is the read-modify-write cycle shared by every change. The write
// carries the version from the read, so a concurrent writer that landed in
// between makes this one fail with ErrConflict instead of being merged.
func (s *Service) mutate(ctx context.Context, message string, apply func([]json.RawMessage) ([]json.RawMessage, error)) error {
	items, version, err := s.load(ctx)
	if err != nil {
		return err
	}
	items, err = apply(items)
	if err != nil {
		return err
	}
	content, err := encode(items)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.path, content, message, version); err != nil {
		return err
	}
	s.log.Info(message, zap.Int("count", len(items)))
	return nil
}

func (s *Service) load(ctx context.Context) ([]json.RawMessage, string, error) {
	file, err := s.store.Get(ctx, s.path)
	if errors.Is(err, apperr.ErrNotFound) {
		return []json.RawMessage{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	items, err := decode(file.Content)
	if err != nil {
		return nil, "", err
	}
	return items, file.Version, nil
}

func decode(content []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return []json.RawMessage{}, nil
	}
	if trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: resource collection is not a JSON array", apperr.ErrFormat)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: resource collection: %v", apperr.ErrFormat, err)
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

func encode(items []json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, apperr.Invalid("resource is not valid JSON: %v", err)
	}
	return buf.Bytes(), nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return apperr.Invalid("index %d out of range, collection has %d resources", index, n)
	}
	return nil
}
