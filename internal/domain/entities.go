package domain

import "time"

// TestCase is a single automated check owned by the test-result repository.
// Read-only to this service.
type TestCase struct {
	ID         string
	SuiteName  string
	TestName   string
	Status     TestStatus
	LastRunAt  *time.Time
	SpecPath   string
	DurationMs int64
	ErrorMsg   string
}

// Suite groups test cases sharing a parent code, with per-status totals as
// reported by the test-result repository (broken counted before folding).
type Suite struct {
	ParentCode string
	TotalTests int
	Passed     int
	Failed     int
	Broken     int
	TestCases  []TestCase
}

// Assignee is the developer a defect is assigned to.
type Assignee struct {
	ID       int64
	Username string
}

// Defect is the work item created from a failing test case, tracked through
// To Do / In Progress / Done. The repository exposes at most one non-hidden
// active defect per test case.
type Defect struct {
	ID         string
	TestSpecID string
	Title      string
	Notes      string
	Status     DefectStatus
	Priority   Priority
	Assignee   Assignee
	SuiteName  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ReopenedAt *time.Time
	ReopenedBy string
	Hidden     bool
}

// Active reports whether d counts as an active defect. A hidden defect is
// treated as if no defect exists at all.
func (d *Defect) Active() bool {
	return d != nil && !d.Hidden
}

// User is the current session identity.
type User struct {
	ID       int64
	Username string
	Role     Role
}
