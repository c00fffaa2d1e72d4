// Package backend is the HTTP client for the externally owned test-result
// and defect/task repositories. All payloads are JSON; the caller's session
// cookie is forwarded on every request.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

func New(baseURL string, timeout time.Duration, log *logrus.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log.WithField("client", "backend"),
	}
}

// Me resolves the current user from the backend session.
func (c *Client) Me(ctx context.Context, session string) (*domain.User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, session, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// GroupedTestCases returns the suites accordion data.
func (c *Client) GroupedTestCases(ctx context.Context, session string) ([]domain.Suite, error) {
	var payload []suitePayload
	if err := c.do(ctx, http.MethodGet, "/api/grouped-testcases", nil, session, nil, &payload); err != nil {
		return nil, err
	}

	suites := make([]domain.Suite, 0, len(payload))
	for _, s := range payload {
		suite, err := s.toDomain()
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

// TestCase fetches one test case with its freshest status and lastRunAt.
func (c *Client) TestCase(ctx context.Context, session, id string) (*domain.TestCase, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "testCaseId", Message: "id not found"}
	}

	var payload testCasePayload
	err := c.do(ctx, http.MethodGet, "/api/testcases/"+url.PathEscape(id), nil, session, nil, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// ActiveDefect returns the single active defect for a test case, or nil when
// none exists. Hidden defects are returned as-is; filtering is the session
// context's job.
func (c *Client) ActiveDefect(ctx context.Context, session, testSpecID string) (*domain.Defect, error) {
	query := url.Values{"testSpecId": {testSpecID}}

	var payload *defectPayload
	err := c.do(ctx, http.MethodGet, "/api/task-management/active", query, session, nil, &payload)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	if payload == nil {
		return nil, nil
	}
	return payload.toDomain()
}

// Developers lists the assignable developer identities.
func (c *Client) Developers(ctx context.Context, session string) ([]domain.Assignee, error) {
	var payload []assigneePayload
	if err := c.do(ctx, http.MethodGet, "/api/developers", nil, session, nil, &payload); err != nil {
		return nil, err
	}

	devs := make([]domain.Assignee, 0, len(payload))
	for _, d := range payload {
		devs = append(devs, domain.Assignee{ID: d.ID, Username: d.Username})
	}
	return devs, nil
}

// TaskFilters narrows the kanban listing. Zero values mean "all".
type TaskFilters struct {
	Status   string
	Priority string
	Assignee string
}

// ListTasks returns the kanban board tasks, hidden ones included.
func (c *Client) ListTasks(ctx context.Context, session string, filters TaskFilters) ([]domain.Defect, error) {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	if filters.Priority != "" {
		query.Set("priority", filters.Priority)
	}
	if filters.Assignee != "" {
		query.Set("assignee", filters.Assignee)
	}

	var payload []defectPayload
	if err := c.do(ctx, http.MethodGet, "/api/task-management", query, session, nil, &payload); err != nil {
		return nil, err
	}

	tasks := make([]domain.Defect, 0, len(payload))
	for _, t := range payload {
		defect, err := t.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *defect)
	}
	return tasks, nil
}

// Task fetches a single kanban task by id.
func (c *Client) Task(ctx context.Context, session, id string) (*domain.Defect, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "taskId", Message: "id not found"}
	}

	var payload defectPayload
	err := c.do(ctx, http.MethodGet, "/api/task-management/"+url.PathEscape(id), nil, session, nil, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// CreateDefectRequest is the defect-creation payload.
type CreateDefectRequest struct {
	TestSpecID  string          `json:"testSpecId"`
	Title       string          `json:"title"`
	AssignDevID int64           `json:"assignDevId"`
	Priority    domain.Priority `json:"priority"`
	Notes       string          `json:"notes"`
}

// CreateDefect posts a new defect record (status To Do).
func (c *Client) CreateDefect(ctx context.Context, session string, req CreateDefectRequest) (*domain.Defect, error) {
	var payload defectPayload
	if err := c.do(ctx, http.MethodPost, "/api/defects", nil, session, req, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// UpdateTaskStatus moves a task to a new kanban column.
func (c *Client) UpdateTaskStatus(ctx context.Context, session, id string, status domain.DefectStatus) error {
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, "/api/task-management/"+url.PathEscape(id)+"/status", nil, session, body, nil)
}

// CompleteTask removes a defect from the active set.
func (c *Client) CompleteTask(ctx context.Context, session, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/task-management/"+url.PathEscape(id)+"/complete", nil, session, nil, nil)
}

// ReopenTask moves a Done defect back to To Do, stamping the reopen metadata.
func (c *Client) ReopenTask(ctx context.Context, session, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/task-management/"+url.PathEscape(id)+"/reopen", nil, session, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, session string, body, out interface{}) error {
	op := fmt.Sprintf("backend.%s %s", method, path)

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		req.Header.Set("Cookie", session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := remoteMessage(raw)
		c.log.WithField("status", resp.StatusCode).Warnf("%s: %s", op, message)

		switch resp.StatusCode {
		case http.StatusNotFound:
			return &domain.NotFoundError{Resource: "record", ID: path}
		case http.StatusConflict:
			return &domain.ConflictError{Message: message}
		default:
			return &domain.RemoteError{StatusCode: resp.StatusCode, Message: message}
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ProtocolError{Missing: "valid JSON body"}
	}
	return nil
}

func remoteMessage(raw []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Message
}
