// Package data keeps the live catalog sessions of the server.
// The SessionStore is safe for concurrent use and tracks aggregated fetch
// statistics with atomic values.
package data

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/interfaces"
	"github.com/giygas/medications-catalog/logging"
	"github.com/giygas/medications-catalog/metrics"
	"github.com/giygas/medications-catalog/session"
	"github.com/google/uuid"
)

// Compile-time check to ensure SessionStore implements SessionRegistry
var _ interfaces.SessionRegistry = (*SessionStore)(nil)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
)

// SessionStore holds every live session keyed by id
type SessionStore struct {
	fetcher     interfaces.Fetcher
	pageSize    int
	maxSessions int
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session.Session

	successes   atomic.Int64
	failures    atomic.Int64
	lastSuccess atomic.Value // time.Time
	lastFailure atomic.Value // time.Time
	lastError   atomic.Value // string
}

// StoreOption configures a SessionStore
type StoreOption func(*SessionStore)

// WithPageSize sets the initial page size of new sessions
func WithPageSize(size int) StoreOption {
	return func(st *SessionStore) {
		st.pageSize = size
	}
}

// WithMaxSessions caps the number of live sessions, 0 means unlimited
func WithMaxSessions(n int) StoreOption {
	return func(st *SessionStore) {
		st.maxSessions = n
	}
}

// WithClock replaces time.Now for the store and its sessions
func WithClock(now func() time.Time) StoreOption {
	return func(st *SessionStore) {
		st.now = now
	}
}

// NewSessionStore creates an empty store whose sessions load from fetcher
func NewSessionStore(fetcher interfaces.Fetcher, opts ...StoreOption) *SessionStore {
	st := &SessionStore{
		fetcher:  fetcher,
		pageSize: catalog.DefaultPageSize,
		now:      time.Now,
		sessions: make(map[string]*session.Session),
	}
	for _, opt := range opts {
		opt(st)
	}
	st.lastSuccess.Store(time.Time{})
	st.lastFailure.Store(time.Time{})
	st.lastError.Store("")
	return st
}

// Create registers a new session and starts its fetch. The fetch outlives
// ctx cancellation; it ends when the session is deleted or swept.
func (st *SessionStore) Create(ctx context.Context) (*session.Session, error) {
	id := uuid.NewString()
	s := session.New(id, st.fetcher,
		session.WithPageSize(st.pageSize),
		session.WithOnSettled(st.recordFetch),
		session.WithClock(st.now),
	)

	st.mu.Lock()
	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		st.mu.Unlock()
		logging.Warn("Session limit reached", "max_sessions", st.maxSessions)
		return nil, ErrTooManySessions
	}
	st.sessions[id] = s
	st.mu.Unlock()

	s.Start(context.WithoutCancel(ctx))
	logging.Debug("Session created", "session_id", id)

	return s, nil
}

// Get returns the session with id and records the access
func (st *SessionStore) Get(id string) (*session.Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	s.Touch()
	return s, nil
}

// Delete closes and removes the session with id
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	s.Close()
	logging.Debug("Session deleted", "session_id", id)
	return nil
}

// Sweep closes and removes sessions idle for longer than ttl
func (st *SessionStore) Sweep(ttl time.Duration) int {
	cutoff := st.now().Add(-ttl)

	var expired []*session.Session
	st.mu.Lock()
	for id, s := range st.sessions {
		if s.LastAccess().Before(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		logging.Info("Swept idle sessions", "count", len(expired), "ttl", ttl.String())
	}
	return len(expired)
}

// Close tears down every session
func (st *SessionStore) Close() {
	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*session.Session)
	st.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// CountByStatus returns the number of live sessions per status name
func (st *SessionStore) CountByStatus() map[string]int {
	counts := map[string]int{
		session.Loading.String(): 0,
		session.Ready.String():   0,
		session.Failed.String():  0,
	}

	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, s := range st.sessions {
		counts[s.Status().String()]++
	}
	return counts
}

// FetchStats returns the aggregated outcome of every settled fetch
func (st *SessionStore) FetchStats() interfaces.FetchStats {
	stats := interfaces.FetchStats{
		Successes: st.successes.Load(),
		Failures:  st.failures.Load(),
	}
	if v, ok := st.lastSuccess.Load().(time.Time); ok {
		stats.LastSuccess = v
	}
	if v, ok := st.lastFailure.Load().(time.Time); ok {
		stats.LastFailure = v
	}
	if v, ok := st.lastError.Load().(string); ok {
		stats.LastError = v
	}
	return stats
}

func (st *SessionStore) recordFetch(id string, status session.Status, duration time.Duration, err error) {
	metrics.ObserveFetch(duration, err)

	if status == session.Ready {
		st.successes.Add(1)
		st.lastSuccess.Store(st.now())
		return
	}

	st.failures.Add(1)
	st.lastFailure.Store(st.now())
	if err != nil {
		st.lastError.Store(err.Error())
	}
}
