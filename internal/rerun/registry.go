package rerun

import (
	"fmt"
	"sync"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

// registry is a single-slot task registry keyed by test case id. A second
// rerun for the same test case while one is running is rejected outright
// rather than relying on UI-layer button disabling.
type registry struct {
	mu    sync.Mutex
	slots map[string]*session
}

func newRegistry() *registry {
	return &registry{slots: make(map[string]*session)}
}

func (r *registry) acquire(testCaseID string, s *session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.slots[testCaseID]; ok && existing.running() {
		return &domain.ConflictError{
			Message: fmt.Sprintf("a rerun for test case %s is already in flight", testCaseID),
		}
	}
	r.slots[testCaseID] = s
	return nil
}

func (r *registry) get(testCaseID string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[testCaseID]
	return s, ok
}
