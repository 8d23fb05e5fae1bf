package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// LoaderFunc loads a catalog from a source.
type LoaderFunc func(ctx context.Context, source string) (*Catalog, error)

// Store publishes the current catalog snapshot and swaps it on reload.
// Readers never block.
type Store struct {
	source  string
	load    LoaderFunc
	logger  *zap.Logger
	current atomic.Pointer[Catalog]
	mu      sync.Mutex // serializes reloads
}

// NewStore publishes initial and reloads it from source with Load.
func NewStore(initial *Catalog, source string, logger *zap.Logger) *Store {
	return NewStoreWithLoader(initial, source, Load, logger)
}

// NewStoreWithLoader is NewStore with a custom loader.
func NewStoreWithLoader(initial *Catalog, source string, load LoaderFunc, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{source: source, load: load, logger: logger}
	s.current.Store(initial)
	return s
}

// Current returns the published snapshot. Take it once per query.
func (s *Store) Current() *Catalog {
	return s.current.Load()
}

// Reload loads a fresh catalog and publishes it. On failure the previous
// snapshot stays in place and the error is returned.
func (s *Store) Reload(ctx context.Context) (*Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.load(ctx, s.source)
	if err != nil {
		s.logger.Error("catalog reload failed, keeping previous snapshot",
			zap.String("source", displaySource(s.source)),
			zap.Error(err))
		return nil, err
	}

	prev := s.current.Swap(next)
	s.logger.Info("catalog reloaded",
		zap.String("source", next.Source()),
		zap.Int("records", next.Len()),
		zap.Int("skipped", next.Skipped()),
		zap.Int("previous_records", prev.Len()))
	return next, nil
}
