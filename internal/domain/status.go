// Package domain holds the entities and closed enumerations shared by the
// dashboard core. Raw backend values are parsed at the boundary; nothing
// downstream ever sees an unvalidated status string.
package domain

import "strings"

// TestStatus is the normalized outcome of a test case execution.
// The raw source value BROKEN is folded into FAILED during parsing.
type TestStatus string

const (
	TestStatusPassed TestStatus = "PASSED"
	TestStatusFailed TestStatus = "FAILED"
)

// ParseTestStatus normalizes a raw backend status. BROKEN maps to FAILED,
// anything outside {PASSED, FAILED, BROKEN} fails with UnknownStatusError.
func ParseTestStatus(raw string) (TestStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PASSED":
		return TestStatusPassed, nil
	case "FAILED", "BROKEN":
		return TestStatusFailed, nil
	default:
		return "", &UnknownStatusError{Kind: "test status", Raw: raw}
	}
}

// DefectStatus is the kanban column of a defect.
type DefectStatus string

const (
	DefectStatusToDo       DefectStatus = "To Do"
	DefectStatusInProgress DefectStatus = "In Progress"
	DefectStatusDone       DefectStatus = "Done"
)

// ParseDefectStatus accepts the loose spellings the backend is known to emit
// ("todo", "To Do", "inProgress", ...) and maps them onto the closed set.
func ParseDefectStatus(raw string) (DefectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "todo", "to do":
		return DefectStatusToDo, nil
	case "inprogress", "in progress":
		return DefectStatusInProgress, nil
	case "done":
		return DefectStatusDone, nil
	default:
		return "", &UnknownStatusError{Kind: "defect status", Raw: raw}
	}
}

// Priority of a defect.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func ParsePriority(raw string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return PriorityHigh, nil
	case "medium":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	default:
		return "", &UnknownStatusError{Kind: "priority", Raw: raw}
	}
}

// Role of the current user. Every policy and visibility decision keys off it.
type Role string

const (
	RoleQA  Role = "qa"
	RoleDev Role = "dev"
)

func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "qa":
		return RoleQA, nil
	case "dev":
		return RoleDev, nil
	default:
		return "", &UnknownStatusError{Kind: "role", Raw: raw}
	}
}
