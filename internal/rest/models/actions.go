package models

import (
	"github.com/qadash/qa_dashboard_REST_server/internal/policy"
	"github.com/qadash/qa_dashboard_REST_server/internal/reconcile"
)

// TestCaseActions carries the policy decisions for the detail page.
type TestCaseActions struct {
	TestCaseID   string          `json:"testCaseId"`
	Rerun        policy.Decision `json:"rerun"`
	CreateDefect policy.Decision `json:"createDefect"`
}

// RerunOutcome is the reconciliation payload shown once a rerun finishes.
type RerunOutcome struct {
	TestCaseID         string `json:"testCaseId"`
	Status             string `json:"status"`
	Outcome            string `json:"outcome"`
	RerunValid         bool   `json:"rerunValid"`
	ShowCompleteAction bool   `json:"showCompleteAction"`
	ShowDecisionAction bool   `json:"showDecisionAction"`
	Defect             *Task  `json:"defect,omitempty"`
}

func NewRerunOutcome(result *reconcile.Result) RerunOutcome {
	out := RerunOutcome{
		TestCaseID:         result.TestCaseID,
		Status:             string(result.Status),
		Outcome:            string(result.Outcome),
		RerunValid:         result.RerunValid,
		ShowCompleteAction: result.ShowCompleteAction,
		ShowDecisionAction: result.ShowDecisionAction,
	}
	if result.Defect != nil {
		task := NewTask(*result.Defect)
		out.Defect = &task
	}
	return out
}
