// Package rerun drives one test-spec rerun end-to-end: trigger CI, resolve
// the queue reference to a build number, poll the build until it finishes.
// Sessions are ephemeral and inspectable while the UI polls for progress.
package rerun

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/clients/ci"
	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/metrics"
)

// CI is the slice of the CI client the orchestrator needs.
type CI interface {
	TriggerSpecRerun(ctx context.Context, session, specPath, testSpecID string) (string, error)
	ResolveQueue(ctx context.Context, session, queueURL string) (int64, error)
	BuildProgress(ctx context.Context, session string, buildNumber int64) (ci.Progress, error)
}

// Config bounds the polling loops.
type Config struct {
	// PollInterval separates consecutive queue and progress polls.
	PollInterval time.Duration
	// MaxWait is the deadline for the whole rerun; exceeding it fails the
	// session with TimeoutError instead of polling a stuck build forever.
	MaxWait time.Duration
}

type Orchestrator struct {
	ci       CI
	cfg      Config
	metrics  *metrics.Rerun
	log      *logrus.Entry
	registry *registry
}

func New(ciClient CI, cfg Config, m *metrics.Rerun, log *logrus.Logger) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 15 * time.Minute
	}
	return &Orchestrator{
		ci:       ciClient,
		cfg:      cfg,
		metrics:  m,
		log:      log.WithField("component", "rerun"),
		registry: newRegistry(),
	}
}

// Start validates, claims the test case's rerun slot and drives the rerun on
// a background goroutine. The returned snapshot carries the session id the
// UI polls with.
func (o *Orchestrator) Start(session string, testCase domain.TestCase) (Snapshot, error) {
	sess, err := o.begin(testCase)
	if err != nil {
		return Snapshot{}, err
	}

	go func() {
		if err := o.run(context.Background(), session, sess, testCase); err != nil {
			o.log.WithError(err).WithField("test_case", testCase.ID).Error("rerun failed")
		}
	}()

	return sess.snapshot(), nil
}

// Rerun drives a rerun synchronously. Same contract as Start, but the caller
// waits for the terminal state.
func (o *Orchestrator) Rerun(ctx context.Context, session string, testCase domain.TestCase) error {
	sess, err := o.begin(testCase)
	if err != nil {
		return err
	}
	return o.run(ctx, session, sess, testCase)
}

// Session returns the snapshot of the most recent rerun for a test case.
func (o *Orchestrator) Session(testCaseID string) (Snapshot, bool) {
	sess, ok := o.registry.get(testCaseID)
	if !ok {
		return Snapshot{}, false
	}
	return sess.snapshot(), true
}

// Cancel stops an in-flight rerun. Returns false when nothing is running.
func (o *Orchestrator) Cancel(testCaseID string) bool {
	sess, ok := o.registry.get(testCaseID)
	if !ok {
		return false
	}
	return sess.stop()
}

func (o *Orchestrator) begin(testCase domain.TestCase) (*session, error) {
	if testCase.ID == "" {
		return nil, &domain.ValidationError{Field: "testSpecId", Message: "id not found"}
	}
	if testCase.SpecPath == "" {
		return nil, &domain.ValidationError{Field: "specPath", Message: "specPath not found"}
	}

	sess := newSession(testCase.ID, testCase.TestName)
	if err := o.registry.acquire(testCase.ID, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (o *Orchestrator) run(ctx context.Context, session string, sess *session, testCase domain.TestCase) error {
	log := o.log.WithFields(logrus.Fields{"test_case": testCase.ID, "session": sess.snapshot().ID})

	ctx, cancel := context.WithTimeout(ctx, o.cfg.MaxWait)
	sess.setCancel(cancel)
	defer cancel()

	o.metrics.Triggered.Inc()
	o.metrics.InFlight.Inc()
	defer o.metrics.InFlight.Dec()

	if err := o.steps(ctx, session, sess, testCase); err != nil {
		err = o.classify(ctx, err)
		sess.fail(err)
		o.metrics.Failed.Inc()
		return err
	}

	sess.succeed()
	o.metrics.Succeeded.Inc()
	log.Info("rerun finished")
	return nil
}

func (o *Orchestrator) steps(ctx context.Context, session string, sess *session, testCase domain.TestCase) error {
	queueURL, err := o.ci.TriggerSpecRerun(ctx, session, testCase.SpecPath, testCase.ID)
	if err != nil {
		return err
	}
	sess.setQueueURL(queueURL)

	buildNumber, err := o.resolveQueue(ctx, session, queueURL)
	if err != nil {
		return err
	}
	sess.setBuildNumber(buildNumber)

	return o.pollBuild(ctx, session, sess, buildNumber)
}

func (o *Orchestrator) resolveQueue(ctx context.Context, session, queueURL string) (int64, error) {
	for {
		o.metrics.Polls.Inc()
		buildNumber, err := o.ci.ResolveQueue(ctx, session, queueURL)
		if err != nil {
			return 0, err
		}
		if buildNumber != 0 {
			return buildNumber, nil
		}
		if err := o.wait(ctx); err != nil {
			return 0, err
		}
	}
}

func (o *Orchestrator) pollBuild(ctx context.Context, session string, sess *session, buildNumber int64) error {
	for {
		o.metrics.Polls.Inc()
		progress, err := o.ci.BuildProgress(ctx, session, buildNumber)
		if err != nil {
			return err
		}
		sess.setProgress(progress.Progress)
		if progress.Finished {
			return nil
		}
		if err := o.wait(ctx); err != nil {
			return err
		}
	}
}

func (o *Orchestrator) wait(ctx context.Context) error {
	timer := time.NewTimer(o.cfg.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// classify rewrites context expiry into the domain taxonomy. A poll aborted
// mid-request surfaces as a NetworkError wrapping the context error, so the
// context is consulted first.
func (o *Orchestrator) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.TimeoutError{After: o.cfg.MaxWait}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	return err
}
