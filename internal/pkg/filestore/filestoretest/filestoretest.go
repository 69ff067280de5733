// Package filestoretest provides Store decorators for tests: call counting
// and hooks that run between a caller's read and its write.
package filestoretest

import (
	"context"
	"sync"

	"github.com/adminblog/core/internal/pkg/filestore"
)

// Counting records how many times each Store method was invoked.
type Counting struct {
	filestore.Store

	mu                       sync.Mutex
	gets, puts, dels, listed int
}

// NewCounting wraps s.
func NewCounting(s filestore.Store) *Counting {
	return &Counting{Store: s}
}

func (c *Counting) Get(ctx context.Context, path string) (*filestore.File, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.Store.Get(ctx, path)
}

func (c *Counting) Put(ctx context.Context, path string, content []byte, message, version string) error {
	c.mu.Lock()
	c.puts++
	c.mu.Unlock()
	return c.Store.Put(ctx, path, content, message, version)
}

func (c *Counting) Delete(ctx context.Context, path, message, version string) error {
	c.mu.Lock()
	c.dels++
	c.mu.Unlock()
	return c.Store.Delete(ctx, path, message, version)
}

func (c *Counting) List(ctx context.Context, dir string) ([]filestore.Entry, error) {
	c.mu.Lock()
	c.listed++
	c.mu.Unlock()
	return c.Store.List(ctx, dir)
}

// Calls returns the total number of calls made through c.
func (c *Counting) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gets + c.puts + c.dels + c.listed
}

// Writes returns the number of Put and Delete calls.
func (c *Counting) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts + c.dels
}

// AfterGet runs Hook once, right after the first successful Get, before the
// result is handed back. Tests use it to slip a competing write in between a
// read and the write that depends on it.
type AfterGet struct {
	filestore.Store
	Hook func()

	once sync.Once
}

func (a *AfterGet) Get(ctx context.Context, path string) (*filestore.File, error) {
	f, err := a.Store.Get(ctx, path)
	if err == nil && a.Hook != nil {
		a.once.Do(a.Hook)
	}
	return f, err
}

// Failing is a Store whose every call returns Err.
type Failing struct {
	Err error
}

func (f Failing) Get(context.Context, string) (*filestore.File, error) { return nil, f.Err }

func (f Failing) Put(context.Context, string, []byte, string, string) error { return f.Err }

func (f Failing) Delete(context.Context, string, string, string) error { return f.Err }

func (f Failing) List(context.Context, string) ([]filestore.Entry, error) { return nil, f.Err }
