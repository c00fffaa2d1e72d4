package rerun

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of a rerun session.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Snapshot is the caller-visible view of a rerun session.
type Snapshot struct {
	ID          string    `json:"sessionId"`
	TestCaseID  string    `json:"testCaseId"`
	TestName    string    `json:"testName"`
	Progress    int       `json:"progress"`
	Status      Status    `json:"status"`
	BuildNumber int64     `json:"buildNumber,omitempty"`
	QueueURL    string    `json:"queueUrl,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
}

// session is one rerun in flight. It is ephemeral: a new rerun for the same
// test case replaces the finished one.
type session struct {
	mu     sync.Mutex
	snap   Snapshot
	cancel context.CancelFunc
}

func newSession(testCaseID, testName string) *session {
	return &session{
		snap: Snapshot{
			ID:         uuid.NewString(),
			TestCaseID: testCaseID,
			TestName:   testName,
			Status:     StatusRunning,
			StartedAt:  time.Now(),
		},
	}
}

func (s *session) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *session) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Status == StatusRunning
}

func (s *session) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

func (s *session) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Status != StatusRunning || s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}

func (s *session) setQueueURL(queueURL string) {
	s.mu.Lock()
	s.snap.QueueURL = queueURL
	s.mu.Unlock()
}

func (s *session) setBuildNumber(buildNumber int64) {
	s.mu.Lock()
	s.snap.BuildNumber = buildNumber
	s.mu.Unlock()
}

func (s *session) setProgress(progress int) {
	s.mu.Lock()
	s.snap.Progress = progress
	s.mu.Unlock()
}

func (s *session) succeed() {
	s.mu.Lock()
	s.snap.Progress = 100
	s.snap.Status = StatusSuccess
	s.mu.Unlock()
}

func (s *session) fail(err error) {
	s.mu.Lock()
	s.snap.Status = StatusError
	s.snap.Error = err.Error()
	s.mu.Unlock()
}
