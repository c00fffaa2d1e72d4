// Package session is the single place the rest of the service goes for the
// current user and the active defect of a test case. Lookups are cached for
// a short TTL; reconciliation and anything acting on a defect uses the Fresh
// variants or invalidates explicitly. Hidden defects never leave this
// package: consumers always see them as "no defect".
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

// Backend is the slice of the repository client this package needs.
type Backend interface {
	Me(ctx context.Context, session string) (*domain.User, error)
	TestCase(ctx context.Context, session, id string) (*domain.TestCase, error)
	ActiveDefect(ctx context.Context, session, testSpecID string) (*domain.Defect, error)
	CompleteTask(ctx context.Context, session, id string) error
	ReopenTask(ctx context.Context, session, id string) error
}

type Context struct {
	backend Backend
	ttl     time.Duration
	log     *logrus.Entry
	now     func() time.Time

	mu      sync.Mutex
	users   map[string]userEntry
	defects map[string]defectEntry
}

type userEntry struct {
	user      *domain.User
	fetchedAt time.Time
}

type defectEntry struct {
	defect    *domain.Defect
	fetchedAt time.Time
}

func New(backend Backend, ttl time.Duration, log *logrus.Logger) *Context {
	return &Context{
		backend: backend,
		ttl:     ttl,
		log:     log.WithField("component", "session"),
		now:     time.Now,
		users:   make(map[string]userEntry),
		defects: make(map[string]defectEntry),
	}
}

// CurrentUser resolves the caller's identity and role, cached per session
// credential.
func (s *Context) CurrentUser(ctx context.Context, session string) (*domain.User, error) {
	s.mu.Lock()
	entry, ok := s.users[session]
	s.mu.Unlock()
	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return entry.user, nil
	}

	user, err := s.backend.Me(ctx, session)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.users[session] = userEntry{user: user, fetchedAt: s.now()}
	s.mu.Unlock()
	return user, nil
}

// ActiveDefect returns the cached active defect for a test case, refetching
// once the TTL lapses. nil means no active defect.
func (s *Context) ActiveDefect(ctx context.Context, session, testCaseID string) (*domain.Defect, error) {
	s.mu.Lock()
	entry, ok := s.defects[testCaseID]
	s.mu.Unlock()
	if ok && s.now().Sub(entry.fetchedAt) < s.ttl {
		return entry.defect, nil
	}
	return s.FreshDefect(ctx, session, testCaseID)
}

// FreshDefect bypasses the cache. Rerun outcomes are decided on fresh state
// because the rerun's effects are applied by an external system.
func (s *Context) FreshDefect(ctx context.Context, session, testCaseID string) (*domain.Defect, error) {
	defect, err := s.backend.ActiveDefect(ctx, session, testCaseID)
	if err != nil {
		return nil, err
	}
	if defect != nil && defect.Hidden {
		defect = nil
	}

	s.mu.Lock()
	s.defects[testCaseID] = defectEntry{defect: defect, fetchedAt: s.now()}
	s.mu.Unlock()
	return defect, nil
}

// TestCase always fetches fresh; test statuses move under our feet while a
// rerun is in flight.
func (s *Context) TestCase(ctx context.Context, session, id string) (*domain.TestCase, error) {
	return s.backend.TestCase(ctx, session, id)
}

// InvalidateDefect drops the cached defect for a test case.
func (s *Context) InvalidateDefect(testCaseID string) {
	s.mu.Lock()
	delete(s.defects, testCaseID)
	s.mu.Unlock()
}

// CompleteTask completes a defect and drops every cached defect entry; the
// completed record leaves the active set and must not be served stale.
func (s *Context) CompleteTask(ctx context.Context, session, defectID string) error {
	if err := s.backend.CompleteTask(ctx, session, defectID); err != nil {
		return err
	}
	s.dropDefect(defectID)
	return nil
}

// ReopenTask moves a Done defect back to To Do.
func (s *Context) ReopenTask(ctx context.Context, session, defectID string) error {
	if err := s.backend.ReopenTask(ctx, session, defectID); err != nil {
		return err
	}
	s.dropDefect(defectID)
	return nil
}

func (s *Context) dropDefect(defectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.defects {
		if entry.defect != nil && entry.defect.ID == defectID {
			delete(s.defects, key)
		}
	}
}
