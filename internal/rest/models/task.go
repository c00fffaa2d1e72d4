package models

import (
	"time"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

type Task struct {
	ID         string     `json:"id"`
	TestSpecID string     `json:"testSpecId"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes"`
	Status     string     `json:"status"`
	Priority   string     `json:"priority"`
	SuiteName  string     `json:"suiteName,omitempty"`
	AssignDev  *User      `json:"assignDev,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ReopenedAt *time.Time `json:"reopenedAt,omitempty"`
	ReopenedBy string     `json:"reopened_by,omitempty"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func NewTask(defect domain.Defect) Task {
	task := Task{
		ID:         defect.ID,
		TestSpecID: defect.TestSpecID,
		Title:      defect.Title,
		Notes:      defect.Notes,
		Status:     string(defect.Status),
		Priority:   string(defect.Priority),
		SuiteName:  defect.SuiteName,
		CreatedAt:  defect.CreatedAt,
		UpdatedAt:  defect.UpdatedAt,
		ReopenedAt: defect.ReopenedAt,
		ReopenedBy: defect.ReopenedBy,
	}
	if defect.Assignee.ID != 0 || defect.Assignee.Username != "" {
		task.AssignDev = &User{ID: defect.Assignee.ID, Username: defect.Assignee.Username}
	}
	return task
}
