package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"visa-locker/internal/common/logger"
	"visa-locker/internal/locker"
	"visa-locker/internal/questionnaire/navigation"
)

// SessionFactory builds an unauthenticated locker session.
type SessionFactory func() *locker.Session

type entry struct {
	session  *locker.Session
	lastSeen time.Time
}

// Sessions keeps the logged-in applicants of this process, keyed by an
// opaque session id. Idle sessions are flushed and dropped by Sweep.
type Sessions struct {
	mu         sync.Mutex
	items      map[string]*entry
	newSession SessionFactory
	idle       time.Duration
	logger     logger.Logger
	now        func() time.Time
}

func NewSessions(factory SessionFactory, idle time.Duration, log logger.Logger) *Sessions {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &Sessions{
		items:      make(map[string]*entry),
		newSession: factory,
		idle:       idle,
		logger:     logger.Component(log, "sessions"),
		now:        time.Now,
	}
}

// Open logs in a new session. Nothing is kept when login fails.
func (s *Sessions) Open(ctx context.Context, token, password string) (string, *locker.Session, navigation.State, error) {
	session := s.newSession()
	state, err := session.Login(ctx, token, password)
	if err != nil {
		return "", nil, navigation.State{}, err
	}

	id := uuid.New().String()
	s.mu.Lock()
	s.items[id] = &entry{session: session, lastSeen: s.now()}
	s.mu.Unlock()
	return id, session, state, nil
}

// Get returns the session and marks it as used.
func (s *Sessions) Get(id string) (*locker.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = s.now()
	return e.session, true
}

// Close drains the session's pending saves and forgets it.
func (s *Sessions) Close(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	e, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, e.session.Close(ctx)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep closes sessions idle for longer than the idle timeout and reports
// how many were dropped.
func (s *Sessions) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.idle)

	s.mu.Lock()
	var stale []*locker.Session
	for id, e := range s.items {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.session)
			delete(s.items, id)
		}
	}
	s.mu.Unlock()

	for _, session := range stale {
		if err := session.Close(ctx); err != nil {
			s.logger.Warn("idle session closed with pending saves", map[string]interface{}{"error": err.Error()})
		}
	}
	if len(stale) > 0 {
		s.logger.Info("idle sessions dropped", map[string]interface{}{"count": len(stale)})
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done, then closes every session.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			s.closeAll()
			return
		}
	}
}

func (s *Sessions) closeAll() {
	s.mu.Lock()
	items := s.items
	s.items = make(map[string]*entry)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, e := range items {
		if err := e.session.Close(ctx); err != nil {
			s.logger.Warn("session closed with pending saves", map[string]interface{}{"error": err.Error()})
		}
	}
}
