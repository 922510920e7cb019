package store

import (
	"context"
	"path/filepath"
	"sync"
)

// DirLocks serializes runs that write into the same output directory.
type DirLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewDirLocks() *DirLocks {
	return &DirLocks{locks: make(map[string]chan struct{})}
}

// Lock waits until dir is free or ctx is done. On success it returns the
// unlock function; otherwise it returns ctx.Err() and holds nothing.
func (l *DirLocks) Lock(ctx context.Context, dir string) (func(), error) {
	key := filepath.Clean(dir)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	l.mu.Lock()
	sem, ok := l.locks[key]
	if !ok {
		sem = make(chan struct{}, 1)
		l.locks[key] = sem
	}
	l.mu.Unlock()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
