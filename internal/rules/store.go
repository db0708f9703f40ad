package rules

import (
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// #region store

// Store is a read-through cache of table snapshots keyed by path. Snapshots are
// pinned at first use and only dropped by Invalidate or Reload, so concurrent
// requests share one immutable copy of each table.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*Table
	group     singleflight.Group
	logger    *zap.Logger
	loads     int
	// gen advances on every Invalidate and Reload; a load that started under
	// an older generation is returned to its callers but not cached.
	gen  uint64
	load func(path string, logger *zap.Logger) *Table
}

// NewStore creates an empty store. logger may be nil.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		snapshots: make(map[string]*Table),
		logger:    logger,
		load:      Load,
	}
}

// #endregion store

// #region get

// Get returns the snapshot for path, loading it on a miss. Concurrent misses for
// the same path share one load. An empty path yields an empty table.
func (s *Store) Get(path string) *Table {
	if path == "" {
		return &Table{}
	}
	key := filepath.Clean(path)

	s.mu.RLock()
	t, ok := s.snapshots[key]
	s.mu.RUnlock()
	if ok {
		return t
	}

	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.RLock()
		cached, ok := s.snapshots[key]
		gen := s.gen
		s.mu.RUnlock()
		if ok {
			return cached, nil
		}
		loaded := s.load(key, s.logger)
		s.mu.Lock()
		s.loads++
		if s.gen == gen {
			s.snapshots[key] = loaded
		}
		s.mu.Unlock()
		return loaded, nil
	})
	return v.(*Table)
}

// Put installs a snapshot directly, replacing any cached copy.
func (s *Store) Put(path string, t *Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[filepath.Clean(path)] = t
}

// #endregion get

// #region invalidate

// Invalidate drops the snapshot for path; the next Get reloads it.
func (s *Store) Invalidate(path string) {
	key := filepath.Clean(path)
	s.mu.Lock()
	_, ok := s.snapshots[key]
	delete(s.snapshots, key)
	s.gen++
	s.mu.Unlock()
	s.group.Forget(key)
	if ok {
		s.logger.Info("rule table invalidated", zap.String("path", key))
	}
}

// Reload drops every snapshot.
func (s *Store) Reload() {
	s.mu.Lock()
	n := len(s.snapshots)
	s.snapshots = make(map[string]*Table)
	s.gen++
	s.mu.Unlock()
	s.logger.Info("rule tables reloaded", zap.Int("dropped", n))
}

// Cached reports whether a snapshot for path is currently held.
func (s *Store) Cached(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshots[filepath.Clean(path)]
	return ok
}

// Loads returns how many file loads the store has performed.
func (s *Store) Loads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads
}

// #endregion invalidate
