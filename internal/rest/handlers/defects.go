package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/clients/backend"
	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/policy"
	defectsform "github.com/qadash/qa_dashboard_REST_server/internal/rest/forms/defects"
	tasksform "github.com/qadash/qa_dashboard_REST_server/internal/rest/forms/tasks"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/models"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/helper"
	"github.com/qadash/qa_dashboard_REST_server/pkg/rest/response"
)

// TaskRepository is the defect/task repository surface the kanban needs.
type TaskRepository interface {
	ListTasks(ctx context.Context, session string, filters backend.TaskFilters) ([]domain.Defect, error)
	Task(ctx context.Context, session, id string) (*domain.Defect, error)
	UpdateTaskStatus(ctx context.Context, session, id string, status domain.DefectStatus) error
	CreateDefect(ctx context.Context, session string, req backend.CreateDefectRequest) (*domain.Defect, error)
}

// TaskActions are the QA verification follow-ups.
type TaskActions interface {
	CompleteTask(ctx context.Context, session, defectID string) error
	ReopenTask(ctx context.Context, session, defectID string) error
}

// DefectInvalidator drops cached defect state after a mutation.
type DefectInvalidator interface {
	InvalidateDefect(testCaseID string)
}

type Defects struct {
	log        *logrus.Entry
	tasks      TaskRepository
	actions    TaskActions
	users      UserSource
	defects    FreshDefectSource
	invalidate DefectInvalidator
}

func NewDefectsHandler(tasks TaskRepository, actions TaskActions, users UserSource, defects FreshDefectSource, invalidate DefectInvalidator, log *logrus.Logger) *Defects {
	return &Defects{
		log:        logrus.NewEntry(log),
		tasks:      tasks,
		actions:    actions,
		users:      users,
		defects:    defects,
		invalidate: invalidate,
	}
}

func (h *Defects) EnrichRoutes(router *gin.Engine) {
	taskRoutes := router.Group("/api/task-management")
	taskRoutes.GET("/", h.listTasksAction)
	taskRoutes.PATCH("/:taskID/status", h.changeTaskStatusAction)

	defectRoutes := router.Group("/api/defects")
	defectRoutes.POST("/", h.createDefectAction)
	defectRoutes.PATCH("/:defectID/complete", h.completeTaskAction)
	defectRoutes.PATCH("/:defectID/reopen", h.reopenTaskAction)
}

func (h *Defects) listTasksAction(c *gin.Context) {
	const op = "handlers.Defects.listTasksAction"
	log := h.log.WithField("operation", op)
	log.Info("list tasks")

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

	filters := backend.TaskFilters{
		Status:   queryFilter(c, "status"),
		Priority: queryFilter(c, "priority"),
	}
	// Developers see every assignee; only QA may narrow by one.
	if user.Role == domain.RoleQA {
		filters.Assignee = queryFilter(c, "assignee")
	}

	tasks, err := h.tasks.ListTasks(c.Request.Context(), session, filters)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to list tasks", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	list := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Hidden {
			continue
		}
		list = append(list, models.NewTask(task))
	}
	c.JSON(http.StatusOK, list)
}

func (h *Defects) changeTaskStatusAction(c *gin.Context) {
	const op = "handlers.Defects.changeTaskStatusAction"
	log := h.log.WithField("operation", op)
	log.Info("change task status")

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
	if user.Role != domain.RoleDev {
		response.HandleError(response.NewForbiddenError("only a developer may move tasks"), c)
		return
	}

	form, verr := tasksform.NewChangeTaskStatusForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}
	status := form.(*tasksform.ChangeTaskStatusForm).Status

	taskID := c.Param("taskID")
	task, err := h.tasks.Task(c.Request.Context(), session, taskID)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to fetch task", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	// Done only leaves Done through QA reopen, never through a drag.
	if task.Status == domain.DefectStatusDone && status != domain.DefectStatusDone {
		response.HandleError(response.NewConflictError("a Done task can only be reopened by QA"), c)
		return
	}

	if err := h.tasks.UpdateTaskStatus(c.Request.Context(), session, taskID, status); err != nil {
		log.WithError(err).Errorf("%s: failed to change task status", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	h.invalidate.InvalidateDefect(task.TestSpecID)
	c.Status(http.StatusNoContent)
}

func (h *Defects) createDefectAction(c *gin.Context) {
	const op = "handlers.Defects.createDefectAction"
	log := h.log.WithField("operation", op)
	log.Info("create defect")

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
	if user.Role != domain.RoleQA {
		response.HandleError(response.NewForbiddenError("only QA may create defects"), c)
		return
	}

	form, verr := defectsform.NewCreateDefectForm().ParseAndValidate(c)
	if verr != nil {
		response.HandleError(verr, c)
		return
	}
	request := form.(*defectsform.CreateDefectForm)

	existing, err := h.defects.FreshDefect(c.Request.Context(), session, request.TestSpecID)
	if err != nil {
		log.WithError(err).Errorf("%s: failed to fetch active defect", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}
	if decision := policy.CanCreateDefect(existing); decision.Disabled {
		log.WithField("reason", decision.Reason).Warnf("%s: creation blocked by policy", op)
		response.HandleError(response.NewConflictError(decision.Reason), c)
		return
	}

	defect, err := h.tasks.CreateDefect(c.Request.Context(), session, backend.CreateDefectRequest{
		TestSpecID:  request.TestSpecID,
		Title:       request.Title,
		AssignDevID: request.AssignDevID,
		Priority:    request.Priority,
		Notes:       request.Notes,
	})
	if err != nil {
		log.WithError(err).Errorf("%s: failed to create defect", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}

	h.invalidate.InvalidateDefect(request.TestSpecID)
	c.JSON(http.StatusCreated, models.NewTask(*defect))
}

func (h *Defects) completeTaskAction(c *gin.Context) {
	const op = "handlers.Defects.completeTaskAction"
	log := h.log.WithField("operation", op)
	log.Info("complete task")

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	if !h.requireQA(c, session, op) {
		return
	}

	if err := h.actions.CompleteTask(c.Request.Context(), session, c.Param("defectID")); err != nil {
		log.WithError(err).Errorf("%s: failed to complete task", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Defects) reopenTaskAction(c *gin.Context) {
	const op = "handlers.Defects.reopenTaskAction"
	log := h.log.WithField("operation", op)
	log.Info("reopen task")

	session := helper.ExtractSessionFromCookies(c)
	if session == "" {
		c.Status(http.StatusUnauthorized)
		return
	}

	if !h.requireQA(c, session, op) {
		return
	}

	if err := h.actions.ReopenTask(c.Request.Context(), session, c.Param("defectID")); err != nil {
		log.WithError(err).Errorf("%s: failed to reopen task", op)
		response.HandleError(response.ResolveError(err), c)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Defects) requireQA(c *gin.Context, session, op string) bool {
	user, err := h.users.CurrentUser(c.Request.Context(), session)
	if err != nil {
		h.log.WithField("operation", op).WithError(err).Errorf("%s: failed to resolve user", op)
		response.HandleError(response.ResolveError(err), c)
		return false
	}
	if user.Role != domain.RoleQA {
		response.HandleError(response.NewForbiddenError("only QA may verify defects"), c)
		return false
	}
	return true
}

func queryFilter(c *gin.Context, name string) string {
	value := c.Query(name)
	if value == "all" {
		return ""
	}
	return value
}
