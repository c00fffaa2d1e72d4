package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/policy"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/models"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/helper"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

// SuiteSource lists the grouped test cases.
type SuiteSource interface {
	GroupedTestCases(ctx context.Context, session string) ([]domain.Suite, error)
}

// DefectSource resolves the active defect of a test case.
type DefectSource interface {
	ActiveDefect(ctx context.Context, session, testCaseID string) (*domain.Defect, error)
}

type Suites struct {
	log     *logrus.Entry
	suites  SuiteSource
	users   UserSource
	defects DefectSource
}

func NewSuitesHandler(suites SuiteSource, users UserSource, defects DefectSource, log *logrus.Logger) *Suites {
	return &Suites{
		log:     logrus.NewEntry(log),
		suites:  suites,
		users:   users,
		defects: defects,
	}
}

func (h *Suites) EnrichRoutes(router *gin.Engine) {
	router.GET("/api/grouped-testcases", h.listSuitesAction)
	router.GET("/api/testcases/:testCaseID/actions", h.testCaseActionsAction)
}

func (h *Suites) listSuitesAction(c *gin.Context) {
	const op = "handlers.Suites.listSuitesAction"
	log := h.log.WithField("operation", op)
	log.Info("list suites")

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	suites, err := h.suites.GroupedTestCases(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to list suites", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	list := make([]models.Suite, 0, len(suites))
	for _, suite := range suites {
		list = append(list, models.NewSuite(suite))
	}
	c.JSON(http.StatusOK, list)
}

// testCaseActionsAction computes the rerun and create-defect gates for the
// detail page, against the caller's role and the test case's active defect.
func (h *Suites) testCaseActionsAction(c *gin.Context) {
	const op = "handlers.Suites.testCaseActionsAction"
	log := h.log.WithField("operation", op)

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	testCaseID := c.Param("testCaseID")

	user, err := h.users.CurrentUser(c.Request.Context(), session)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to resolve user", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	defect, err := h.defects.ActiveDefect(c.Request.Context(), session, testCaseID)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to fetch active defect", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	c.JSON(http.StatusOK, models.TestCaseActions{
		TestCaseID:   testCaseID,
		Rerun:        policy.CanRerun(defect, user.Role),
		CreateDefect: policy.CanCreateDefect(defect),
	})
}
