// Package session runs one catalog view: it fetches the medication list
// once, then applies filter, sort and page actions to an immutable
// catalog.State. A Session is the only place that state changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/interfaces"
	"github.com/giygas/medications-catalog/logging"
)

var (
	// ErrNotReady is returned for view actions while loading or after a failed fetch
	ErrNotReady = errors.New("session is not ready")
	// ErrClosed is returned for any action after Close
	ErrClosed = errors.New("session is closed")
)

// UnknownErrorMessage replaces empty fetch error messages
const UnknownErrorMessage = "An unknown error occurred."

// Status is the lifecycle state of a session
type Status int

const (
	Loading Status = iota
	Ready
	Failed
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "loading"
	}
}

// MarshalText encodes the status as loading, ready or failed
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SettledFunc is called once when the fetch of a session completes
type SettledFunc func(id string, status Status, duration time.Duration, err error)

// Snapshot is a consistent read of a session. State is only set when the
// session is Ready.
type Snapshot struct {
	ID         string
	Status     Status
	Error      string
	CreatedAt  time.Time
	LastAccess time.Time
	State      *catalog.State
}

// Session is one catalog view
type Session struct {
	id        string
	fetcher   interfaces.Fetcher
	pageSize  int
	onSettled SettledFunc
	now       func() time.Time

	startOnce sync.Once
	done      chan struct{}

	mu         sync.Mutex
	status     Status
	errMsg     string
	state      catalog.State
	closed     bool
	cancel     context.CancelFunc
	createdAt  time.Time
	lastAccess time.Time
}

// Option configures a Session
type Option func(*Session)

// WithPageSize sets the initial page size. Invalid sizes fall back to catalog.DefaultPageSize.
func WithPageSize(size int) Option {
	return func(s *Session) {
		s.pageSize = size
	}
}

// WithOnSettled registers a callback for the end of the fetch
func WithOnSettled(fn SettledFunc) Option {
	return func(s *Session) {
		s.onSettled = fn
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates a session in the Loading state. Nothing is fetched until Start.
func New(id string, fetcher interfaces.Fetcher, opts ...Option) *Session {
	s := &Session{
		id:       id,
		fetcher:  fetcher,
		pageSize: catalog.DefaultPageSize,
		now:      time.Now,
		done:     make(chan struct{}),
		status:   Loading,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.createdAt = s.now()
	s.lastAccess = s.createdAt
	return s
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Start launches the catalog fetch in the background. Only the first call
// has an effect, and none after Close. Cancelling ctx cancels the fetch.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		fetchCtx, cancel := context.WithCancel(ctx)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			cancel()
			close(s.done)
			return
		}
		s.cancel = cancel
		s.mu.Unlock()

		go s.load(fetchCtx)
	})
}

func (s *Session) load(ctx context.Context) {
	defer close(s.done)

	start := s.now()
	records, err := s.fetcher.FetchAll(ctx)
	duration := s.now().Sub(start)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logging.Debug("Discarding fetch result of closed session", "session_id", s.id)
		return
	}
	if err != nil {
		s.status = Failed
		s.errMsg = errorMessage(err)
	} else {
		s.status = Ready
		s.state = catalog.NewState(records, s.pageSize)
	}
	status := s.status
	s.mu.Unlock()

	if err != nil {
		logging.Warn("Catalog fetch failed", "session_id", s.id, "error", err, "duration_ms", duration.Milliseconds())
	} else {
		logging.Info("Catalog loaded", "session_id", s.id, "medication_count", len(records), "duration_ms", duration.Milliseconds())
	}

	if s.onSettled != nil {
		s.onSettled(s.id, status, duration, err)
	}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}

// Wait blocks until the fetch has settled, the session is closed or ctx is done
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the fetch has settled or the session was closed before starting
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down. An in-flight fetch is cancelled and its
// result discarded. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Never started: release waiters and keep Start from running later
	s.startOnce.Do(func() {
		close(s.done)
	})
}

// Touch records an access for idle tracking
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastAccess = s.now()
	s.mu.Unlock()
}

// LastAccess returns the time of the last access
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

// Status returns the current lifecycle state
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the current view of the session
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Status:     s.status,
		Error:      s.errMsg,
		CreatedAt:  s.createdAt,
		LastAccess: s.lastAccess,
	}
	if s.status == Ready {
		state := s.state
		snap.State = &state
	}
	return snap
}

// update runs one transition on the Ready state
func (s *Session) update(action string, fn func(catalog.State) (catalog.State, error)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.snapshotLocked(), ErrClosed
	}
	if s.status != Ready {
		return s.snapshotLocked(), fmt.Errorf("%w: %s while %s", ErrNotReady, action, s.status)
	}

	next, err := fn(s.state)
	if err != nil {
		return s.snapshotLocked(), err
	}

	s.state = next
	s.lastAccess = s.now()
	return s.snapshotLocked(), nil
}

// EditConstraint changes the pending constraint on field
func (s *Session) EditConstraint(field catalog.Field, value string) (Snapshot, error) {
	return s.update("edit constraint", func(st catalog.State) (catalog.State, error) {
		return st.EditConstraint(field, value)
	})
}

// ApplyFilters filters the full catalog with the pending constraints
func (s *Session) ApplyFilters() (Snapshot, error) {
	return s.update("apply filters", func(st catalog.State) (catalog.State, error) {
		return st.ApplyFilters(), nil
	})
}

// Reset clears constraints and sort order
func (s *Session) Reset() (Snapshot, error) {
	return s.update("reset", func(st catalog.State) (catalog.State, error) {
		return st.Reset(), nil
	})
}

// ToggleSort advances the price order none -> asc -> desc -> none
func (s *Session) ToggleSort() (Snapshot, error) {
	return s.update("toggle sort", func(st catalog.State) (catalog.State, error) {
		return st.ToggleSort(), nil
	})
}

// SetPage moves to a zero based page index
func (s *Session) SetPage(index int) (Snapshot, error) {
	return s.update("change page", func(st catalog.State) (catalog.State, error) {
		return st.WithPage(index), nil
	})
}

// SetPageSize changes the page size and returns to the first page
func (s *Session) SetPageSize(size int) (Snapshot, error) {
	return s.update("change page size", func(st catalog.State) (catalog.State, error) {
		return st.WithPageSize(size)
	})
}
