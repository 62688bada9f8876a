// Package sessions persists the full modeling session in a WAL. Every save
// appends a complete snapshot; loading replays the log and keeps the last
// record, so a torn write at worst loses the final mutation.
package sessions

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/b3ncr0w/financial-tools/internal/domain"
)

const (
	defaultSessionDir   = "./wal/sessions"
	sessionSegmentLimit = 1000
	sessionMaxSegments  = 10
	sessionKey          = "session_state"
)

// ErrNoSession is returned by Load when nothing has been persisted yet.
var ErrNoSession = errors.New("no session in store")

// WALStore persists session snapshots in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed session store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultSessionDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "session_",
		SegmentThreshold: sessionSegmentLimit,
		MaxSegments:      sessionMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init session WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the full session snapshot to the WAL.
func (s *WALStore) Save(session *domain.Session) error {
	if s == nil || s.wal == nil {
		return errors.New("session store is not initialized")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "marshal session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, sessionKey, payload)
}

// Load returns the most recently saved session, or ErrNoSession when the
// store is empty or holds no decodable snapshot.
func (s *WALStore) Load() (*domain.Session, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("session store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current == 0 {
		return nil, ErrNoSession
	}

	// walk backwards so a corrupt tail falls through to an older snapshot
	for idx := current; idx >= 1; idx-- {
		key, payload, err := s.wal.Get(idx)
		if err != nil || key != sessionKey {
			continue
		}

		var session domain.Session
		if err := json.Unmarshal(payload, &session); err != nil {
			continue
		}
		if err := session.Validate(); err != nil {
			continue
		}
		return &session, nil
	}

	return nil, ErrNoSession
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("session store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
