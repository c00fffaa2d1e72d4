package models

import (
	"time"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

type TestCase struct {
	ID         string     `json:"id"`
	SuiteName  string     `json:"suiteName"`
	TestName   string     `json:"testName"`
	Status     string     `json:"status"`
	LastRunAt  *time.Time `json:"lastRunAt"`
	SpecPath   string     `json:"specPath"`
	DurationMs int64      `json:"durationMs"`
	ErrorMsg   string     `json:"errormsg,omitempty"`
}

type Suite struct {
	ParentCode string     `json:"parentCode"`
	TotalTests int        `json:"totalTests"`
	Passed     int        `json:"passed"`
	Failed     int        `json:"failed"`
	Broken     int        `json:"broken"`
	TestCases  []TestCase `json:"testCases"`
}

func NewTestCase(tc domain.TestCase) TestCase {
	return TestCase{
		ID:         tc.ID,
		SuiteName:  tc.SuiteName,
		TestName:   tc.TestName,
		Status:     string(tc.Status),
		LastRunAt:  tc.LastRunAt,
		SpecPath:   tc.SpecPath,
		DurationMs: tc.DurationMs,
		ErrorMsg:   tc.ErrorMsg,
	}
}

func NewSuite(suite domain.Suite) Suite {
	out := Suite{
		ParentCode: suite.ParentCode,
		TotalTests: suite.TotalTests,
		Passed:     suite.Passed,
		Failed:     suite.Failed,
		Broken:     suite.Broken,
		TestCases:  make([]TestCase, 0, len(suite.TestCases)),
	}
	for _, tc := range suite.TestCases {
		out.TestCases = append(out.TestCases, NewTestCase(tc))
	}
	return out
}
