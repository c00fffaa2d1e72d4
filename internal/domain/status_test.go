package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/qa_dashboard_REST_server/internal/domain"
)

func TestParseTestStatus_NormalizesAndFoldsBroken(t *testing.T) {
	cases := map[string]domain.TestStatus{
		"PASSED": domain.TestStatusPassed,
		"passed": domain.TestStatusPassed,
		"FAILED": domain.TestStatusFailed,
		"BROKEN": domain.TestStatusFailed,
		"broken": domain.TestStatusFailed,
		" failed ": domain.TestStatusFailed,
	}

	for raw, want := range cases {
		got, err := domain.ParseTestStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseTestStatus_IsIdempotent(t *testing.T) {
	for _, raw := range []string{"PASSED", "FAILED", "BROKEN"} {
		once, err := domain.ParseTestStatus(raw)
		require.NoError(t, err)

		twice, err := domain.ParseTestStatus(string(once))
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestParseTestStatus_RejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "SKIPPED", "garbage"} {
		_, err := domain.ParseTestStatus(raw)

		var unknown *domain.UnknownStatusError
		require.ErrorAs(t, err, &unknown, raw)
		assert.Equal(t, raw, unknown.Raw)
	}
}

func TestParseDefectStatus_AcceptsLooseSpellings(t *testing.T) {
	cases := map[string]domain.DefectStatus{
		"To Do":       domain.DefectStatusToDo,
		"todo":        domain.DefectStatusToDo,
		"  to do ":    domain.DefectStatusToDo,
		"In Progress": domain.DefectStatusInProgress,
		"inProgress":  domain.DefectStatusInProgress,
		"done":        domain.DefectStatusDone,
		"Done":        domain.DefectStatusDone,
	}

	for raw, want := range cases {
		got, err := domain.ParseDefectStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := domain.ParseDefectStatus("Closed")
	var unknown *domain.UnknownStatusError
	require.ErrorAs(t, err, &unknown)
}

func TestParsePriorityAndRole(t *testing.T) {
	priority, err := domain.ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, priority)

	_, err = domain.ParsePriority("urgent")
	assert.Error(t, err)

	role, err := domain.ParseRole("QA")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleQA, role)

	_, err = domain.ParseRole("admin")
	assert.Error(t, err)
}

func TestDefectActive_HiddenTreatedAsAbsent(t *testing.T) {
	var none *domain.Defect
	assert.False(t, none.Active())

	hidden := &domain.Defect{ID: "d1", Hidden: true}
	assert.False(t, hidden.Active())

	visible := &domain.Defect{ID: "d1"}
	assert.True(t, visible.Active())
}
