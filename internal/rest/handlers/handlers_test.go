package handlers_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/qa_dashboard_REST_server/internal/clients/backend"
	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
	"github.com/qadash/qa_dashboard_REST_server/internal/reconcile"
	"github.com/qadash/qa_dashboard_REST_server/internal/rerun"
	"github.com/qadash/qa_dashboard_REST_server/internal/rest/handlers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeUsers struct {
	user *domain.User
	err  error
}

func (f *fakeUsers) CurrentUser(context.Context, string) (*domain.User, error) {
	return f.user, f.err
}

type fakeDefects struct {
	defect *domain.Defect
	err    error
}

func (f *fakeDefects) FreshDefect(context.Context, string, string) (*domain.Defect, error) {
	return f.defect, f.err
}

type fakeOrchestrator struct {
	started   bool
	snap      rerun.Snapshot
	snapOK    bool
	cancelled bool
}

func (f *fakeOrchestrator) Start(session string, tc domain.TestCase) (rerun.Snapshot, error) {
	f.started = true
	return rerun.Snapshot{ID: "s1", TestCaseID: tc.ID, Status: rerun.StatusRunning}, nil
}

func (f *fakeOrchestrator) Session(string) (rerun.Snapshot, bool) { return f.snap, f.snapOK }

func (f *fakeOrchestrator) Cancel(string) bool {
	wasRunning := f.snapOK
	f.cancelled = true
	return wasRunning
}

type fakeReconciler struct{ result *reconcile.Result }

func (f *fakeReconciler) Reconcile(context.Context, string, string, domain.Role) (*reconcile.Result, error) {
	return f.result, nil
}

type fakeTasks struct {
	tasks   []domain.Defect
	task    *domain.Defect
	updated *domain.DefectStatus
	created *backend.CreateDefectRequest
}

func (f *fakeTasks) ListTasks(_ context.Context, _ string, filters backend.TaskFilters) ([]domain.Defect, error) {
	return f.tasks, nil
}

func (f *fakeTasks) Task(context.Context, string, string) (*domain.Defect, error) {
	return f.task, nil
}

func (f *fakeTasks) UpdateTaskStatus(_ context.Context, _, _ string, status domain.DefectStatus) error {
	f.updated = &status
	return nil
}

func (f *fakeTasks) CreateDefect(_ context.Context, _ string, req backend.CreateDefectRequest) (*domain.Defect, error) {
	f.created = &req
	return &domain.Defect{
		ID:         "d9",
		TestSpecID: req.TestSpecID,
		Title:      req.Title,
		Status:     domain.DefectStatusToDo,
		Priority:   req.Priority,
	}, nil
}

type fakeActions struct{ completed, reopened string }

func (f *fakeActions) CompleteTask(_ context.Context, _, id string) error {
	f.completed = id
	return nil
}

func (f *fakeActions) ReopenTask(_ context.Context, _, id string) error {
	f.reopened = id
	return nil
}

type fakeInvalidator struct{ dropped []string }

func (f *fakeInvalidator) InvalidateDefect(testCaseID string) {
	f.dropped = append(f.dropped, testCaseID)
}

func perform(router *gin.Engine, method, target, body string, withCookie bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if withCookie {
		req.Header.Set("Cookie", "connect.sid=abc")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func qa() *fakeUsers {
	return &fakeUsers{user: &domain.User{ID: 1, Username: "lena", Role: domain.RoleQA}}
}

func dev() *fakeUsers {
	return &fakeUsers{user: &domain.User{ID: 2, Username: "max", Role: domain.RoleDev}}
}

func activeDefect(status domain.DefectStatus) *domain.Defect {
	return &domain.Defect{
		ID:         "d1",
		TestSpecID: "tc1",
		Status:     status,
		Priority:   domain.PriorityHigh,
		UpdatedAt:  time.Now(),
	}
}

func newRerunRouter(users *fakeUsers, defects *fakeDefects, orch *fakeOrchestrator) *gin.Engine {
	router := gin.New()
	handlers.NewRerunHandler(orch, &fakeReconciler{}, users, defects, testLogger()).EnrichRoutes(router)
	return router
}

func TestRerunSpec_RequiresSessionCookie(t *testing.T) {
	router := newRerunRouter(qa(), &fakeDefects{}, &fakeOrchestrator{})

	w := perform(router, http.MethodPost, "/api/rerun/spec", `{"testSpecId":"tc1","specPath":"spec.js"}`, false)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRerunSpec_MissingFieldsRejected(t *testing.T) {
	orch := &fakeOrchestrator{}
	router := newRerunRouter(qa(), &fakeDefects{}, orch)

	w := perform(router, http.MethodPost, "/api/rerun/spec", `{"testSpecId":"tc1"}`, true)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "specPath")
	assert.False(t, orch.started)
}

func TestRerunSpec_QABlockedWhileDeveloperWorks(t *testing.T) {
	orch := &fakeOrchestrator{}
	router := newRerunRouter(qa(), &fakeDefects{defect: activeDefect(domain.DefectStatusInProgress)}, orch)

	w := perform(router, http.MethodPost, "/api/rerun/spec", `{"testSpecId":"tc1","specPath":"spec.js"}`, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "developer")
	assert.False(t, orch.started)
}

func TestRerunSpec_DevBlockedOnDoneDefect(t *testing.T) {
	orch := &fakeOrchestrator{}
	router := newRerunRouter(dev(), &fakeDefects{defect: activeDefect(domain.DefectStatusDone)}, orch)

	w := perform(router, http.MethodPost, "/api/rerun/spec", `{"testSpecId":"tc1","specPath":"spec.js"}`, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "QA")
	assert.False(t, orch.started)
}

func TestRerunSpec_StartsWhenNoDefect(t *testing.T) {
	orch := &fakeOrchestrator{}
	router := newRerunRouter(qa(), &fakeDefects{}, orch)

	w := perform(router, http.MethodPost, "/api/rerun/spec", `{"testSpecId":"tc1","specPath":"spec.js"}`, true)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, orch.started)
	assert.Contains(t, w.Body.String(), `"testCaseId":"tc1"`)
}

func TestRerunStatus_NotFoundWithoutSession(t *testing.T) {
	router := newRerunRouter(qa(), &fakeDefects{}, &fakeOrchestrator{snapOK: false})

	w := perform(router, http.MethodGet, "/api/rerun/tc1/status", "", true)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRerunCancel(t *testing.T) {
	t.Run("running rerun cancels with 204", func(t *testing.T) {
		router := newRerunRouter(qa(), &fakeDefects{}, &fakeOrchestrator{snapOK: true})
		w := perform(router, http.MethodDelete, "/api/rerun/tc1", "", true)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("nothing in flight is 404", func(t *testing.T) {
		router := newRerunRouter(qa(), &fakeDefects{}, &fakeOrchestrator{snapOK: false})
		w := perform(router, http.MethodDelete, "/api/rerun/tc1", "", true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func newDefectsRouter(users *fakeUsers, tasks *fakeTasks, defects *fakeDefects) (*gin.Engine, *fakeActions, *fakeInvalidator) {
	actions := &fakeActions{}
	invalidator := &fakeInvalidator{}
	router := gin.New()
	handlers.NewDefectsHandler(tasks, actions, users, defects, invalidator, testLogger()).EnrichRoutes(router)
	return router, actions, invalidator
}

func TestListTasks_HiddenTasksNeverLeaveTheServer(t *testing.T) {
	tasks := &fakeTasks{tasks: []domain.Defect{
		{ID: "d1", Status: domain.DefectStatusToDo, Priority: domain.PriorityLow},
		{ID: "d2", Status: domain.DefectStatusDone, Priority: domain.PriorityLow, Hidden: true},
	}}
	router, _, _ := newDefectsRouter(qa(), tasks, &fakeDefects{})

	w := perform(router, http.MethodGet, "/api/task-management/", "", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "d1")
	assert.NotContains(t, w.Body.String(), "d2")
}

func TestChangeTaskStatus_QAMayNotMoveTasks(t *testing.T) {
	router, _, _ := newDefectsRouter(qa(), &fakeTasks{}, &fakeDefects{})

	w := perform(router, http.MethodPatch, "/api/task-management/d1/status", `{"status":"inprogress"}`, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestChangeTaskStatus_DoneIsTerminalForDevelopers(t *testing.T) {
	tasks := &fakeTasks{task: activeDefect(domain.DefectStatusDone)}
	router, _, _ := newDefectsRouter(dev(), tasks, &fakeDefects{})

	w := perform(router, http.MethodPatch, "/api/task-management/d1/status", `{"status":"todo"}`, true)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, tasks.updated)
}

func TestChangeTaskStatus_DevMovesCard(t *testing.T) {
	tasks := &fakeTasks{task: activeDefect(domain.DefectStatusToDo)}
	router, _, invalidator := newDefectsRouter(dev(), tasks, &fakeDefects{})

	w := perform(router, http.MethodPatch, "/api/task-management/d1/status", `{"status":"inprogress"}`, true)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, tasks.updated)
	assert.Equal(t, domain.DefectStatusInProgress, *tasks.updated)
	assert.Equal(t, []string{"tc1"}, invalidator.dropped)
}

func TestCreateDefect_DevForbidden(t *testing.T) {
	tasks := &fakeTasks{}
	router, _, _ := newDefectsRouter(dev(), tasks, &fakeDefects{})

	w := perform(router, http.MethodPost, "/api/defects/", `{"testSpecId":"tc1","title":"broken","assignDevId":4,"priority":"high"}`, true)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, tasks.created)
}

func TestCreateDefect_BlockedByActiveDefect(t *testing.T) {
	tasks := &fakeTasks{}
	router, _, _ := newDefectsRouter(qa(), tasks, &fakeDefects{defect: activeDefect(domain.DefectStatusToDo)})

	w := perform(router, http.MethodPost, "/api/defects/", `{"testSpecId":"tc1","title":"broken","assignDevId":4,"priority":"high"}`, true)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, tasks.created)
}

func TestCreateDefect_CreatesAndInvalidates(t *testing.T) {
	tasks := &fakeTasks{}
	router, _, invalidator := newDefectsRouter(qa(), tasks, &fakeDefects{})

	w := perform(router, http.MethodPost, "/api/defects/", `{"testSpecId":"tc1","title":"broken","assignDevId":4,"priority":"high"}`, true)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, tasks.created)
	assert.Equal(t, "tc1", tasks.created.TestSpecID)
	assert.Equal(t, domain.PriorityHigh, tasks.created.Priority)
	assert.Equal(t, []string{"tc1"}, invalidator.dropped)
}

func TestCompleteAndReopen_QAOnly(t *testing.T) {
	t.Run("dev is forbidden", func(t *testing.T) {
		router, actions, _ := newDefectsRouter(dev(), &fakeTasks{}, &fakeDefects{})
		w := perform(router, http.MethodPatch, "/api/defects/d1/complete", "", true)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, actions.completed)
	})

	t.Run("QA completes", func(t *testing.T) {
		router, actions, _ := newDefectsRouter(qa(), &fakeTasks{}, &fakeDefects{})
		w := perform(router, http.MethodPatch, "/api/defects/d1/complete", "", true)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "d1", actions.completed)
	})

	t.Run("QA reopens", func(t *testing.T) {
		router, actions, _ := newDefectsRouter(qa(), &fakeTasks{}, &fakeDefects{})
		w := perform(router, http.MethodPatch, "/api/defects/d1/reopen", "", true)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "d1", actions.reopened)
	})
}

func TestListDevelopers_QAOnly(t *testing.T) {
	devs := &fakeDeveloperSource{devs: []domain.Assignee{{ID: 4, Username: "max"}}}

	t.Run("dev is forbidden", func(t *testing.T) {
		router := gin.New()
		handlers.NewAuthHandler(dev(), devs, testLogger()).EnrichRoutes(router)
		w := perform(router, http.MethodGet, "/api/developers", "", true)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("QA gets the list", func(t *testing.T) {
		router := gin.New()
		handlers.NewAuthHandler(qa(), devs, testLogger()).EnrichRoutes(router)
		w := perform(router, http.MethodGet, "/api/developers", "", true)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "max")
	})
}

type fakeDeveloperSource struct{ devs []domain.Assignee }

func (f *fakeDeveloperSource) Developers(context.Context, string) ([]domain.Assignee, error) {
	return f.devs, nil
}
