package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanRoundTripAndOverwrite(t *testing.T) {
	s, _ := newTestStore()

	plan, err := s.GetPlan("0xabc")
	require.NoError(t, err)
	require.Nil(t, plan)

	require.NoError(t, s.SavePlan("0xabc", json.RawMessage(`{"order":["a"]}`)))
	require.NoError(t, s.SavePlan("0xabc", json.RawMessage(`{"order":["b"]}`)))

	plan, err = s.GetPlan("0xAbC")
	require.NoError(t, err)
	require.JSONEq(t, `{"order":["b"]}`, string(plan))
}

func TestSavePlanRejectsEmpty(t *testing.T) {
	s, _ := newTestStore()
	require.Error(t, s.SavePlan("", json.RawMessage(`{}`)))
	require.Error(t, s.SavePlan("0xabc", nil))
}

func TestComparisonProgressComposite(t *testing.T) {
	s, _ := newTestStore()

	// both halves absent reads as empty, not an error
	cp, err := s.GetComparisonProgress("0xabc", "repoA")
	require.NoError(t, err)
	require.Nil(t, cp.Plan)
	require.Empty(t, cp.Completed)

	require.NoError(t, s.SaveComparisonPlan("0xabc", "repoA", json.RawMessage(`["c1","c2"]`)))
	require.NoError(t, s.AddCompletedComparison("0xabc", "repoA", "c1"))
	require.NoError(t, s.AddCompletedComparison("0xabc", "repoA", "c1")) // duplicate is a no-op
	require.NoError(t, s.AddCompletedComparison("0xabc", "repoA", "c2"))

	cp, err = s.GetComparisonProgress("0xabc", "repoA")
	require.NoError(t, err)
	require.JSONEq(t, `["c1","c2"]`, string(cp.Plan))
	require.Equal(t, []string{"c1", "c2"}, cp.Completed)

	// a different repo is independent
	cp, err = s.GetComparisonProgress("0xabc", "repoB")
	require.NoError(t, err)
	require.Nil(t, cp.Plan)
	require.Empty(t, cp.Completed)
}

func TestCompletedWithoutPlanIsVisible(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.AddCompletedComparison("0xabc", "repoA", "c9"))

	cp, err := s.GetComparisonProgress("0xabc", "repoA")
	require.NoError(t, err)
	require.Nil(t, cp.Plan)
	require.Equal(t, []string{"c9"}, cp.Completed)
}
