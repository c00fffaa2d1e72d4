package backend

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

// The backend emits loosely typed JSON: free-form status strings, is_hidden
// as bool / "1" / 1. Payload types absorb that here and fail fast on values
// outside the closed enumerations.

type userPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (p userPayload) toDomain() (*domain.User, error) {
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return nil, err
	}
	return &domain.User{ID: p.UserID, Username: p.Username, Role: role}, nil
}

type testCasePayload struct {
	ID         string     `json:"id"`
	SuiteName  string     `json:"suiteName"`
	TestName   string     `json:"testName"`
	Status     string     `json:"status"`
	LastRunAt  *time.Time `json:"lastRunAt"`
	SpecPath   string     `json:"specPath"`
	DurationMs int64      `json:"durationMs"`
	ErrorMsg   string     `json:"errormsg"`
}

func (p testCasePayload) toDomain() (*domain.TestCase, error) {
	status, err := domain.ParseTestStatus(p.Status)
	if err != nil {
		return nil, err
	}
	return &domain.TestCase{
		ID:         p.ID,
		SuiteName:  p.SuiteName,
		TestName:   p.TestName,
		Status:     status,
		LastRunAt:  p.LastRunAt,
		SpecPath:   p.SpecPath,
		DurationMs: p.DurationMs,
		ErrorMsg:   p.ErrorMsg,
	}, nil
}

type suitePayload struct {
	ParentCode string            `json:"parentCode"`
	TotalTests int               `json:"totalTests"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Broken     int               `json:"broken"`
	TestCases  []testCasePayload `json:"testCases"`
}

func (p suitePayload) toDomain() (domain.Suite, error) {
	suite := domain.Suite{
		ParentCode: p.ParentCode,
		TotalTests: p.TotalTests,
		Passed:     p.Passed,
		Failed:     p.Failed,
		Broken:     p.Broken,
		TestCases:  make([]domain.TestCase, 0, len(p.TestCases)),
	}
	for _, tc := range p.TestCases {
		c, err := tc.toDomain()
		if err != nil {
			return domain.Suite{}, err
		}
		suite.TestCases = append(suite.TestCases, *c)
	}
	return suite, nil
}

type assigneePayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type defectPayload struct {
	ID         string          `json:"id"`
	TestSpecID string          `json:"testSpecId"`
	Title      string          `json:"title"`
	Notes      string          `json:"notes"`
	Status     string          `json:"status"`
	Priority   string          `json:"priority"`
	AssignDev  assigneePayload `json:"assignDev"`
	SuiteName  string          `json:"suiteName"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	ReopenedAt *time.Time      `json:"reopenedAt"`
	ReopenedBy string          `json:"reopened_by"`
	IsHidden   hiddenFlag      `json:"is_hidden"`
}

func (p defectPayload) toDomain() (*domain.Defect, error) {
	status, err := domain.ParseDefectStatus(p.Status)
	if err != nil {
		return nil, err
	}
	priority, err := domain.ParsePriority(p.Priority)
	if err != nil {
		return nil, err
	}
	return &domain.Defect{
		ID:         p.ID,
		TestSpecID: p.TestSpecID,
		Title:      p.Title,
		Notes:      p.Notes,
		Status:     status,
		Priority:   priority,
		Assignee:   domain.Assignee{ID: p.AssignDev.ID, Username: p.AssignDev.Username},
		SuiteName:  p.SuiteName,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		ReopenedAt: p.ReopenedAt,
		ReopenedBy: p.ReopenedBy,
		Hidden:     bool(p.IsHidden),
	}, nil
}

// hiddenFlag accepts true/false, 0/1 and "0"/"1".
type hiddenFlag bool

func (f *hiddenFlag) UnmarshalJSON(raw []byte) error {
	trimmed := bytes.Trim(raw, `"`)
	switch string(trimmed) {
	case "true", "1":
		*f = true
	case "false", "0", "null", "":
		*f = false
	default:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return err
		}
		*f = hiddenFlag(b)
	}
	return nil
}
