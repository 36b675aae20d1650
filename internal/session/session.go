package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weathersight/weathersight/internal/chat"
	"github.com/weathersight/weathersight/internal/forecast"
	"github.com/weathersight/weathersight/internal/geo"
	"github.com/weathersight/weathersight/internal/weather"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")

	// ErrNoSelection is returned when an operation needs weather data but
	// the session has no applied selection yet.
	ErrNoSelection = errors.New("session has no area selection yet")
)

// Selection is the user's current map selection, resolved once.
type Selection struct {
	Bounds   geo.BoundingBox   `json:"bounds"`
	Centroid geo.Coordinate    `json:"centroid"`
	Place    string            `json:"place,omitempty"`
	Range    weather.DateRange `json:"range"`
}

// Session holds all state for one user session. Observations and forecasts
// are replaced together whenever the selection changes; the chat transcript
// survives selection changes and lives until the session expires.
type Session struct {
	ID           string
	Selection    *Selection
	Observations *weather.ObservationSeries
	Forecasts    map[weather.Metric]forecast.Series
	Transcript   []chat.Turn
	LastActive   time.Time
}

// Store is a concurrency-safe in-memory session registry with idle expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewStore creates a Store. ttl <= 0 disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a fresh empty session and returns its ID.
func (s *Store) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &Session{
		ID:         id,
		LastActive: s.now(),
	}
	return id
}

// ApplySelection replaces the session's selection, observations, and
// forecasts in one step. Prior chat turns are kept.
func (s *Store) ApplySelection(id string, sel Selection, obs weather.ObservationSeries, fcs map[weather.Metric]forecast.Series) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Selection = &sel
	sess.Observations = &obs
	sess.Forecasts = fcs
	sess.LastActive = s.now()
	return nil
}

// AppendTurns appends chat turns to the transcript.
func (s *Store) AppendTurns(id string, turns ...chat.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrNotFound
	}
	sess.Transcript = append(sess.Transcript, turns...)
	sess.LastActive = s.now()
	return nil
}

// Snapshot returns a copy of the session safe to read without holding the
// store lock. The transcript slice is copied; series values are immutable
// once stored.
func (s *Store) Snapshot(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess.LastActive = s.now()

	out := Session{
		ID:         sess.ID,
		Selection:  sess.Selection,
		LastActive: sess.LastActive,
	}
	out.Observations = sess.Observations
	if sess.Forecasts != nil {
		out.Forecasts = make(map[weather.Metric]forecast.Series, len(sess.Forecasts))
		for m, fc := range sess.Forecasts {
			out.Forecasts[m] = fc
		}
	}
	out.Transcript = append([]chat.Turn(nil), sess.Transcript...)
	return out, nil
}

// SweepExpired removes sessions idle longer than the TTL and reports how
// many were dropped.
func (s *Store) SweepExpired() int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for id, sess := range s.sessions {
		if sess.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
