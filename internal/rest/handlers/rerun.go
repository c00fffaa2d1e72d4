package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/policy"
	"github.com/qadash/qa_dashboard_REST_server/internal/reconcile"
	"github.com/qadash/qa_dashboard_REST_server/internal/rerun"
	rerunform "github.com/qadash/qa_dashboard_REST_server/internal/rest/forms/rerun"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/models"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/helper"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

// RerunOrchestrator drives rerun sessions.
type RerunOrchestrator interface {
	Start(session string, testCase domain.TestCase) (rerun.Snapshot, error)
	Session(testCaseID string) (rerun.Snapshot, bool)
	Cancel(testCaseID string) bool
}

// OutcomeReconciler interprets a finished rerun.
type OutcomeReconciler interface {
	Reconcile(ctx context.Context, session, testCaseID string, role domain.Role) (*reconcile.Result, error)
}

// FreshDefectSource bypasses the defect cache; the rerun gate must not act
// on a stale snapshot.
type FreshDefectSource interface {
	FreshDefect(ctx context.Context, session, testCaseID string) (*domain.Defect, error)
}

type Rerun struct {
	log          *logrus.Entry
	orchestrator RerunOrchestrator
	reconciler   OutcomeReconciler
	users        UserSource
	defects      FreshDefectSource
}

func NewRerunHandler(orchestrator RerunOrchestrator, reconciler OutcomeReconciler, users UserSource, defects FreshDefectSource, log *logrus.Logger) *Rerun {
	return &Rerun{
		log:          logrus.NewEntry(log),
		orchestrator: orchestrator,
		reconciler:   reconciler,
		users:        users,
		defects:      defects,
	}
}

func (h *Rerun) EnrichRoutes(router *gin.Engine) {
	rerunRoutes := router.Group("/api/rerun")
	rerunRoutes.POST("/spec", h.rerunSpecAction)
	rerunRoutes.GET("/:testCaseID/status", h.statusAction)
	rerunRoutes.GET("/:testCaseID/outcome", h.outcomeAction)
	rerunRoutes.DELETE("/:testCaseID", h.cancelAction)
}

func (h *Rerun) rerunSpecAction(c *gin.Context) {
	const op = "handlers.Rerun.rerunSpecAction"
	log := h.log.WithField("operation", op)
	log.Info("rerun spec")

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	form, verr := rerunform.NewRerunSpecForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}
	request := form.(*rerunform.RerunSpecForm)

	user, err := h.users.CurrentUser(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to resolve user", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	defect, err := h.defects.FreshDefect(c.Request.Context(), session, request.TestSpecID)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to fetch active defect", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	if decision := policy.CanRerun(defect, user.Role); decision.Disabled {
		log.WithField("reason", decision.Reason).Warnf("%s: rerun blocked by policy", op)
		response.HandleError(response.NewForbiddenError(decision.Reason), c)
		return
	}

	snapshot, err := h.orchestrator.Start(session, domain.TestCase{
		ID:       request.TestSpecID,
		SpecPath: request.SpecPath,
		TestName: request.TestName,
	})
	if err != nil {
		log.WithError(err).Errorf("%s: failed to start rerun", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	c.JSON(http.StatusAccepted, snapshot)
}

func (h *Rerun) statusAction(c *gin.Context) {
	const op = "handlers.Rerun.statusAction"

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	snapshot, ok := h.orchestrator.Session(c.Param("testCaseID"))
	if !ok {
		response.HandleError(response.NewNotFoundError("no rerun session for this test case"), c)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (h *Rerun) outcomeAction(c *gin.Context) {
	const op = "handlers.Rerun.outcomeAction"
	log := h.log.WithField("operation", op)
	log.Info("reconcile rerun outcome")

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	user, err := h.users.CurrentUser(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to resolve user", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	result, err := h.reconciler.Reconcile(c.Request.Context(), session, c.Param("testCaseID"), user.Role)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to reconcile outcome", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	c.JSON(http.StatusOK, models.NewRerunOutcome(result))
}

func (h *Rerun) cancelAction(c *gin.Context) {
	const op = "handlers.Rerun.cancelAction"
	log := h.log.WithField("operation", op)

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	if !h.orchestrator.Cancel(c.Param("testCaseID")) {
		response.HandleError(response.NewNotFoundError("no rerun in flight for this test case"), c)
		return
	}
	log.WithField("test_case", c.Param("testCaseID")).Info("rerun cancelled")
	c.Status(http.StatusNoContent)
}
