package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/config"
)

// Store is an append-only per-user snapshot history.
type Store interface {
	// Append records a snapshot. It fails with ErrEmptyUserID,
	// ErrDuplicateSession or a storage error.
	Append(ctx context.Context, s SessionSnapshot) error
	// Latest returns the most recently appended snapshot, or nil, nil when
	// the user has no history.
	Latest(ctx context.Context, userID string) (*SessionSnapshot, error)
	// History returns up to limit snapshots, newest first. limit <= 0
	// returns all.
	History(ctx context.Context, userID string, limit int) ([]SessionSnapshot, error)
	Close() error
}

// NewStore opens the backend selected by cfg.
func NewStore(cfg config.MemoryConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewInMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(BadgerConfig{
			Path:     cfg.Badger.Path,
			InMemory: cfg.Badger.InMemory,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", cfg.Backend)
	}
}

const backendMemory = "memory"

// InMemoryStore keeps history in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[string][]SessionSnapshot
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[string][]SessionSnapshot)}
}

// Append implements Store.
func (s *InMemoryStore) Append(ctx context.Context, snap SessionSnapshot) error {
	if snap.UserID == "" {
		observeAppend(backendMemory, ErrEmptyUserID)
		return ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.users[snap.UserID], func(prev SessionSnapshot) bool {
		return prev.SessionID == snap.SessionID
	}) {
		err := fmt.Errorf("%w: %s", ErrDuplicateSession, snap.SessionID)
		observeAppend(backendMemory, err)
		return err
	}
	s.users[snap.UserID] = append(s.users[snap.UserID], snap)
	observeAppend(backendMemory, nil)
	return nil
}

// Latest implements Store.
func (s *InMemoryStore) Latest(ctx context.Context, userID string) (*SessionSnapshot, error) {
	if userID == "" {
		observeLookup(backendMemory, false, ErrEmptyUserID)
		return nil, ErrEmptyUserID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.users[userID]
	if len(history) == 0 {
		observeLookup(backendMemory, false, nil)
		return nil, nil
	}
	latest := history[len(history)-1]
	observeLookup(backendMemory, true, nil)
	return &latest, nil
}

// History implements Store.
func (s *InMemoryStore) History(ctx context.Context, userID string, limit int) ([]SessionSnapshot, error) {
	if userID == "" {
		observeLookup(backendMemory, false, ErrEmptyUserID)
		return nil, ErrEmptyUserID
	}
	s.mu.RLock()
	history := slices.Clone(s.users[userID])
	s.mu.RUnlock()

	slices.Reverse(history)
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	observeLookup(backendMemory, len(history) > 0, nil)
	if history == nil {
		history = []SessionSnapshot{}
	}
	return history, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }
