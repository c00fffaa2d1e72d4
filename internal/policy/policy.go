// Package policy holds the pure decision logic gating rerun and defect
// creation. It never errors and keeps no state; handlers consult it on
// every request.
package policy

import (
	"fmt"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

// Decision tells the caller whether an action is disabled and why.
type Decision struct {
	Disabled bool   `json:"disabled"`
	Reason   string `json:"reason,omitempty"`
}

const (
	reasonDevOwns    = "this test case is being worked on by a developer"
	reasonQAVerifies = "this test case is being verified by QA"
)

// CanRerun applies the rerun gate. While a developer owns remediation
// (To Do / In Progress) QA must not disturb the environment with concurrent
// reruns; once the defect is Done and verification is QA's, the developer
// must not re-trigger runs that could race it. No active defect means both
// roles may rerun.
func CanRerun(defect *domain.Defect, role domain.Role) Decision {
	if !defect.Active() {
		return Decision{}
	}

	switch defect.Status {
	case domain.DefectStatusToDo, domain.DefectStatusInProgress:
		if role == domain.RoleQA {
			return Decision{Disabled: true, Reason: reasonDevOwns}
		}
	case domain.DefectStatusDone:
		if role == domain.RoleDev {
			return Decision{Disabled: true, Reason: reasonQAVerifies}
		}
	}

	return Decision{}
}

// CanCreateDefect disables creation whenever any active defect exists for
// the test case, regardless of its status. An already-Done defect still
// blocks a new one until it is completed.
func CanCreateDefect(defect *domain.Defect) Decision {
	if !defect.Active() {
		return Decision{}
	}

	return Decision{
		Disabled: true,
		Reason:   fmt.Sprintf("an active defect already exists for this test case (status %s)", defect.Status),
	}
}
