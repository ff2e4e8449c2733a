package filter

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sessions keeps one State per dashboard session in memory. States are
// never persisted; idle sessions are evicted by Janitor.
type Sessions struct {
	mu     sync.Mutex
	states map[string]*session
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
	logger *zap.SugaredLogger
}

type session struct {
	state    *State
	lastSeen time.Time
}

// NewSessions creates a registry whose new states start at the current date in loc.
func NewSessions(ttl time.Duration, loc *time.Location, logger *zap.SugaredLogger) *Sessions {
	if loc == nil {
		loc = time.UTC
	}
	return &Sessions{
		states: make(map[string]*session),
		ttl:    ttl,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

func (s *Sessions) lookup(id string) *session {
	now := s.now()
	sess, ok := s.states[id]
	if !ok {
		sess = &session{state: New(now.In(s.loc))}
		s.states[id] = sess
	}
	sess.lastSeen = now
	return sess
}

// Get returns a copy of the session's state, creating it if needed.
// An empty id yields a fresh state that is not stored.
func (s *Sessions) Get(id string) *State {
	if id == "" {
		return New(s.now().In(s.loc))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id).state.Clone()
}

// Update runs fn against the session's state under the registry lock and
// returns a copy of the result. fn must leave the state unchanged on error.
func (s *Sessions) Update(id string, fn func(*State) error) (*State, error) {
	if id == "" {
		st := New(s.now().In(s.loc))
		if err := fn(st); err != nil {
			return nil, err
		}
		return st, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.lookup(id)
	if err := fn(sess.state); err != nil {
		return nil, err
	}
	return sess.state.Clone(), nil
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}

// Evict drops sessions idle for longer than the TTL and returns how many went.
func (s *Sessions) Evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, sess := range s.states {
		if sess.lastSeen.Before(cutoff) {
			delete(s.states, id)
			n++
		}
	}
	return n
}

// Janitor evicts idle sessions every interval until ctx is done.
func (s *Sessions) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Evict(); n > 0 {
				s.logger.Debugw("Evicted idle filter sessions", "count", n)
			}
		}
	}
}
