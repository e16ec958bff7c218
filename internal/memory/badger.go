package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	backendBadger = "badger"
	keyPrefix     = "snapshot:"
	// sessionPrefix indexes session ids per user to reject duplicates.
	sessionPrefix = "session:"
	// maxSeq sorts after every zero-padded 19 digit sequence.
	maxSeq = "9999999999999999999"
)

// BadgerConfig configures the on-disk store.
type BadgerConfig struct {
	Path     string
	InMemory bool
}

// BadgerStore persists snapshots in badger under
// snapshot:{user}:{arrival nanos}:{session}. The zero-padded arrival stamp
// keeps keys in arrival order within a user prefix. A session:{user}:{session}
// key written in the same transaction makes session ids unique per user.
type BadgerStore struct {
	db     *badger.DB
	logger *zap.Logger

	mu      sync.Mutex
	lastSeq int64
}

// OpenBadgerStore opens (or creates) the database at cfg.Path.
func OpenBadgerStore(cfg BadgerConfig, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Path != "":
		opts = badger.DefaultOptions(cfg.Path)
	default:
		return nil, errors.New("badger path is required unless in_memory is set")
	}
	opts = opts.WithLogger(nil).WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", cfg.Path, err)
	}
	logger.Info("progress history opened",
		zap.String("backend", backendBadger),
		zap.String("path", cfg.Path),
		zap.Bool("in_memory", cfg.InMemory),
	)
	return NewBadgerStore(db, logger), nil
}

// NewBadgerStore wraps an open database.
func NewBadgerStore(db *badger.DB, logger *zap.Logger) *BadgerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgerStore{db: db, logger: logger}
}

func sessionKey(userID, sessionID string) []byte {
	return []byte(sessionPrefix + url.QueryEscape(userID) + ":" + url.QueryEscape(sessionID))
}

func userPrefix(userID string) []byte {
	return []byte(keyPrefix + url.QueryEscape(userID) + ":")
}

// nextSeq returns a strictly increasing arrival stamp.
func (s *BadgerStore) nextSeq() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := time.Now().UnixNano()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq
	return seq
}

// Append implements Store.
func (s *BadgerStore) Append(ctx context.Context, snap SessionSnapshot) (err error) {
	defer func() { observeAppend(backendBadger, err) }()

	if snap.UserID == "" {
		return ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	key := fmt.Sprintf("%s%019d:%s", userPrefix(snap.UserID), s.nextSeq(), snap.SessionID)

	index := sessionKey(snap.UserID, snap.SessionID)
	err = s.db.Update(func(txn *badger.Txn) error {
		switch _, err := txn.Get(index); {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrDuplicateSession, snap.SessionID)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(index, []byte(key)); err != nil {
			return err
		}
		return txn.Set([]byte(key), value)
	})
	if errors.Is(err, ErrDuplicateSession) {
		return err
	}
	if err != nil {
		return fmt.Errorf("writing snapshot %s: %w", snap.SessionID, err)
	}
	s.logger.Debug("snapshot appended", zap.String("key", key))
	return nil
}

// Latest implements Store.
func (s *BadgerStore) Latest(ctx context.Context, userID string) (*SessionSnapshot, error) {
	snaps, err := s.scan(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[0], nil
}

// History implements Store.
func (s *BadgerStore) History(ctx context.Context, userID string, limit int) ([]SessionSnapshot, error) {
	return s.scan(ctx, userID, limit)
}

// scan walks a user's keys newest first.
func (s *BadgerStore) scan(ctx context.Context, userID string, limit int) (snaps []SessionSnapshot, err error) {
	defer func() { observeLookup(backendBadger, len(snaps) > 0, err) }()

	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snaps = []SessionSnapshot{}
	prefix := userPrefix(userID)
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, prefix...), maxSeq...)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(snaps) == limit {
				break
			}
			var snap SessionSnapshot
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &snap)
			})
			if err != nil {
				return fmt.Errorf("decoding %s: %w", it.Item().Key(), err)
			}
			snaps = append(snaps, snap)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
