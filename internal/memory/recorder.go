package memory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/coachd/internal/logging"
)

// Recorder reads a user's prior snapshot and appends the new one as a
// single step per user.
type Recorder struct {
	store      Store
	modalities []Modality
	logger     *logging.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewRecorder returns a recorder over store. extra lists the modalities
// compared in addition to voice.
func NewRecorder(store Store, logger *logging.Logger, extra ...Modality) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{
		store:      store,
		modalities: extra,
		logger:     logger,
		locks:      make(map[string]*userLock),
	}, nil
}

// Store returns the underlying store.
func (r *Recorder) Store() Store { return r.store }

// Record looks up the latest snapshot, computes deltas against it and appends
// snap. A lookup failure degrades to a baseline with a warning. The returned
// error is the append error only; prior and deltas are valid either way.
func (r *Recorder) Record(ctx context.Context, snap SessionSnapshot) (*SessionSnapshot, []ProgressDelta, error) {
	if snap.UserID == "" {
		return nil, []ProgressDelta{}, ErrEmptyUserID
	}

	unlock := r.lock(snap.UserID)
	defer unlock()

	prior, err := r.store.Latest(ctx, snap.UserID)
	if err != nil {
		r.logger.Warn(ctx, "prior session lookup failed, treating as baseline", zap.Error(err))
		prior = nil
	}

	deltas := ComputeDelta(prior, snap, r.modalities...)

	if err := r.store.Append(ctx, snap); err != nil {
		return prior, deltas, err
	}
	return prior, deltas, nil
}

func (r *Recorder) lock(userID string) func() {
	r.mu.Lock()
	l, ok := r.locks[userID]
	if !ok {
		l = &userLock{}
		r.locks[userID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, userID)
		}
		r.mu.Unlock()
	}
}
