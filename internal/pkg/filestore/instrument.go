package filestore

import (
	"context"
	"errors"
	"time"

	"github.com/adminblog/core/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Instrument wraps s so that every call runs under a fixed deadline and is
// logged. A zero timeout leaves the caller's context untouched.
func Instrument(s Store, logger *zap.Logger, timeout time.Duration) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumented{next: s, log: logger.Named("filestore"), timeout: timeout}
}

type instrumented struct {
	next    Store
	log     *zap.Logger
	timeout time.Duration
}

func (s *instrumented) Get(ctx context.Context, path string) (*File, error) {
	var f *File
	err := s.do(ctx, "get", path, func(ctx context.Context) (err error) {
		f, err = s.next.Get(ctx, path)
		return err
	})
	return f, err
}

func (s *instrumented) Put(ctx context.Context, path string, content []byte, message, version string) error {
	return s.do(ctx, "put", path, func(ctx context.Context) error {
		return s.next.Put(ctx, path, content, message, version)
	})
}

func (s *instrumented) Delete(ctx context.Context, path, message, version string) error {
	return s.do(ctx, "delete", path, func(ctx context.Context) error {
		return s.next.Delete(ctx, path, message, version)
	})
}

func (s *instrumented) List(ctx context.Context, dir string) ([]Entry, error) {
	var entries []Entry
	err := s.do(ctx, "list", dir, func(ctx context.Context) (err error) {
		entries, err = s.next.List(ctx, dir)
		return err
	})
	return entries, err
}

func (s *instrumented) do(ctx context.Context, op, path string, fn func(context.Context) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("path", path),
		zap.Duration("latency", time.Since(start)),
	}
	switch {
	case err == nil:
		s.log.Debug("remote call", fields...)
	case errors.Is(err, apperr.ErrNotFound):
		s.log.Debug("remote call: not found", fields...)
	case errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, apperr.ErrRemote):
		s.log.Warn("remote call timed out", append(fields, zap.Error(err))...)
		return apperr.Remote(op, path, err)
	default:
		s.log.Warn("remote call failed", append(fields, zap.Error(err))...)
	}
	return err
}
