package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/arcview/internal/loader"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

// DefaultMaxWorkspaces bounds the number of live workspaces in a Store.
const DefaultMaxWorkspaces = 256

// Store keeps one workspace per session.
type Store struct {
	mu         sync.RWMutex
	cfg        Config
	limit      int
	workspaces map[string]*Workspace

	defaultName string
	defaultDS   *grid.Dataset
}

// NewStore creates an empty store. limit <= 0 selects DefaultMaxWorkspaces.
func NewStore(cfg Config, limit int) *Store {
	if limit <= 0 {
		limit = DefaultMaxWorkspaces
	}
	return &Store{
		cfg:        cfg.withDefaults(),
		limit:      limit,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace for id.
func (s *Store) Get(id string) (*Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, ok := s.workspaces[id]
	return ws, ok
}

// GetOrCreate returns the workspace for id, creating a new one under a
// fresh ID when id is unknown. The returned ID is the one to keep.
func (s *Store) GetOrCreate(id string) (string, *Workspace) {
	if ws, ok := s.Get(id); ok {
		return id, ws
	}
	return s.Create()
}

// Create adds a workspace seeded with the default dataset, if any.
func (s *Store) Create() (string, *Workspace) {
	ws := New(s.cfg)
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultDS != nil {
		ws.setDefault(s.defaultName, s.defaultDS)
	}
	if len(s.workspaces) >= s.limit {
		s.evictOldestLocked()
	}
	s.workspaces[id] = ws
	s.cfg.Logger.Debug("workspace created", "id", id, "count", len(s.workspaces))
	return id, ws
}

// Len returns the number of live workspaces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// SetDefault installs ds as the dataset new workspaces start with and
// refreshes every workspace still showing the previous default.
func (s *Store) SetDefault(name string, ds *grid.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultName = name
	s.defaultDS = ds
	for _, ws := range s.workspaces {
		if ws.ShowsDefault() {
			ws.setDefault(name, ds)
		}
	}
}

// ReloadDefault loads path and installs it as the default. On error the
// current default is kept.
func (s *Store) ReloadDefault(path string) error {
	ds, err := loader.LoadFile(path)
	if err != nil {
		s.cfg.Logger.Warn("default task reload failed", "path", path, "error", err)
		return err
	}
	s.SetDefault(path, ds)
	s.cfg.Logger.Info("default task reloaded", "path", path, "train", len(ds.Train), "test", len(ds.Test))
	return nil
}

// Default returns the default dataset and its name.
func (s *Store) Default() (string, *grid.Dataset) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultName, s.defaultDS
}

func (s *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, ws := range s.workspaces {
		used := ws.idleSince()
		if oldestID == "" || used.Before(oldest) {
			oldestID, oldest = id, used
		}
	}
	if oldestID != "" {
		delete(s.workspaces, oldestID)
		s.cfg.Logger.Debug("workspace evicted", "id", oldestID)
	}
}
