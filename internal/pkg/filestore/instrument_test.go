package filestore

import (
	"context"
	"testing"
	"time"

	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type slowStore struct{ Store }

func (s slowStore) Get(ctx context.Context, path string) (*File, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestInstrument_PassesThrough(t *testing.T) {
	m := NewMemory()
	s := Instrument(m, zap.NewNop(), time.Second)

	require.NoError(t, s.Put(context.Background(), "a.md", []byte("x"), "m", ""))
	f, err := s.Get(context.Background(), "a.md")
	require.NoError(t, err)
	assert.Equal(t, "x", string(f.Content))

	_, err = s.Get(context.Background(), "b.md")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestInstrument_DeadlineBecomesRemoteError(t *testing.T) {
	s := Instrument(slowStore{NewMemory()}, nil, 10*time.Millisecond)

	_, err := s.Get(context.Background(), "a.md")
	assert.ErrorIs(t, err, apperr.ErrRemote)
}
