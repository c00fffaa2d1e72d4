// Package reconcile decides what a finished rerun means. It always works on
// freshly fetched state: the rerun's effects are applied by the CI system
// asynchronously, so locally cached values cannot be trusted.
package reconcile

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

// Outcome is the semantic result of a completed rerun.
type Outcome string

const (
	// OutcomeRerunPassed: the rerun passed, whatever the defect state.
	OutcomeRerunPassed Outcome = "rerun-passed"
	// OutcomeStillFailed: the rerun failed after the defect was marked Done.
	// The only outcome that unlocks the QA decision action.
	OutcomeStillFailed Outcome = "still-failed-after-verification"
	// OutcomeTestFailed: the rerun failed with no verification in play.
	OutcomeTestFailed Outcome = "test-failed"
)

// Store is the fresh-state source and task-action sink, satisfied by
// session.Context.
type Store interface {
	TestCase(ctx context.Context, session, id string) (*domain.TestCase, error)
	FreshDefect(ctx context.Context, session, testCaseID string) (*domain.Defect, error)
	CompleteTask(ctx context.Context, session, defectID string) error
	ReopenTask(ctx context.Context, session, defectID string) error
}

// Result is what the UI may show and do after a rerun completes.
type Result struct {
	TestCaseID         string
	Status             domain.TestStatus
	Outcome            Outcome
	RerunValid         bool
	ShowCompleteAction bool
	ShowDecisionAction bool
	Defect             *domain.Defect
}

type Reconciler struct {
	store Store
	log   *logrus.Entry
}

func New(store Store, log *logrus.Logger) *Reconciler {
	return &Reconciler{store: store, log: log.WithField("component", "reconcile")}
}

// Reconcile re-fetches the test case and its active defect, then derives the
// outcome and the QA follow-up actions.
func (r *Reconciler) Reconcile(ctx context.Context, session, testCaseID string, role domain.Role) (*Result, error) {
	testCase, err := r.store.TestCase(ctx, session, testCaseID)
	if err != nil {
		return nil, err
	}
	defect, err := r.store.FreshDefect(ctx, session, testCaseID)
	if err != nil {
		return nil, err
	}

	valid := RerunValid(testCase.LastRunAt, defect)
	verified := defect.Active() && defect.Status == domain.DefectStatusDone && valid

	result := &Result{
		TestCaseID: testCaseID,
		Status:     testCase.Status,
		RerunValid: valid,
		Defect:     defect,
	}

	switch {
	case testCase.Status == domain.TestStatusPassed:
		result.Outcome = OutcomeRerunPassed
	case verified:
		result.Outcome = OutcomeStillFailed
	default:
		result.Outcome = OutcomeTestFailed
	}

	if role == domain.RoleQA && verified {
		result.ShowCompleteAction = testCase.Status == domain.TestStatusPassed
		result.ShowDecisionAction = testCase.Status == domain.TestStatusFailed
	}

	return result, nil
}

// RerunValid reports whether the latest run happened strictly after the
// defect's last status transition. Equal timestamps do not count: the run
// must postdate the Done mark to be a verification attempt.
func RerunValid(lastRunAt *time.Time, defect *domain.Defect) bool {
	if lastRunAt == nil || !defect.Active() || defect.UpdatedAt.IsZero() {
		return false
	}
	return lastRunAt.After(defect.UpdatedAt)
}

// CompleteTask accepts the verification: the defect leaves the active set.
func (r *Reconciler) CompleteTask(ctx context.Context, session, defectID string) error {
	const op = "reconcile.CompleteTask"
	if defectID == "" {
		return &domain.ValidationError{Field: "defectId", Message: "id not found"}
	}
	if err := r.store.CompleteTask(ctx, session, defectID); err != nil {
		r.log.WithError(err).Errorf("%s: failed to complete defect", op)
		return err
	}
	r.log.WithField("defect", defectID).Info("defect completed")
	return nil
}

// ReopenTask rejects the verification as the same issue: the defect goes
// back to To Do with reopen metadata stamped by the backend.
func (r *Reconciler) ReopenTask(ctx context.Context, session, defectID string) error {
	const op = "reconcile.ReopenTask"
	if defectID == "" {
		return &domain.ValidationError{Field: "defectId", Message: "id not found"}
	}
	if err := r.store.ReopenTask(ctx, session, defectID); err != nil {
		r.log.WithError(err).Errorf("%s: failed to reopen defect", op)
		return err
	}
	r.log.WithField("defect", defectID).Info("defect reopened")
	return nil
}
