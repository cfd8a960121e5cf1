package progress

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"jurydb/pkg/keys"
	"jurydb/pkg/models"
	"jurydb/pkg/store"
)

func newTestStore() (*Store, *store.Memory) {
	mem := store.NewMemory()
	return New(mem), mem
}

func TestSaveRecordDefaultsToDraft(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.SaveRecord("0xAbC", keys.TypeScale, "repoA", json.RawMessage(`{"v":1}`), ""))

	rec, err := s.GetRecord("0xabc", keys.TypeScale, "repoA")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, models.StatusDraft, rec.Status)
	require.JSONEq(t, `{"v":1}`, string(rec.Data))
	require.False(t, rec.UpdatedAt.IsZero())
}

func TestSaveRecordRepeatedlyKeepsOneIndexEntry(t *testing.T) {
	s, _ := newTestStore()
	for i := 0; i < 5; i++ {
		payload := json.RawMessage(fmt.Sprintf(`{"rev":%d}`, i))
		require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "repoA", payload, models.StatusDraft))
	}
	ids, err := s.Index("0xabc", keys.TypeScale)
	require.NoError(t, err)
	require.Equal(t, []string{"repoA"}, ids)

	rec, err := s.GetRecord("0xabc", keys.TypeScale, "repoA")
	require.NoError(t, err)
	require.JSONEq(t, `{"rev":4}`, string(rec.Data))
}

func TestSaveRecordRevertsSubmittedToDraft(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "r", json.RawMessage(`1`), models.StatusSubmitted))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "r", json.RawMessage(`2`), ""))

	rec, err := s.GetRecord("0xabc", keys.TypeScale, "r")
	require.NoError(t, err)
	require.Equal(t, models.StatusDraft, rec.Status)
}

func TestSaveRecordRejectsReservedID(t *testing.T) {
	s, mem := newTestStore()
	err := s.SaveRecord("0xabc", keys.TypeScale, keys.IndexID, json.RawMessage(`1`), "")
	require.Error(t, err)
	require.Equal(t, 0, mem.Len())
}

func TestSingletonRecordSkipsIndex(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeProfile, "", json.RawMessage(`{"name":"a"}`), ""))
	require.Equal(t, 1, mem.Len())

	ids, err := s.Index("0xabc", keys.TypeProfile)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestGetRecordAbsentReturnsNil(t *testing.T) {
	s, _ := newTestStore()
	rec, err := s.GetRecord("0xabc", keys.TypeScale, "nope")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestMixedCaseUserHitsSameRecord(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.SaveRecord("0xAbCdEf", keys.TypeScale, "r", json.RawMessage(`1`), ""))
	rec, err := s.GetRecord("0XABCDEF", keys.TypeScale, "r")
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestGetProgressCountsPerScreenAndOverall(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), models.StatusSubmitted))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "b", json.RawMessage(`1`), models.StatusDraft))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeSimilar, "a", json.RawMessage(`1`), models.StatusSubmitted))
	// singleton and plan records are outside the aggregator
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeProfile, "", json.RawMessage(`1`), ""))

	p, err := s.GetProgress("0xabc")
	require.NoError(t, err)
	require.Equal(t, models.ScreenProgress{Total: 2, Submitted: 1, Draft: 1}, p.Screens[keys.TypeScale])
	require.Equal(t, models.ScreenProgress{Total: 1, Submitted: 1, Draft: 0}, p.Screens[keys.TypeSimilar])
	require.Equal(t, models.ScreenProgress{}, p.Screens[keys.TypeBackground])
	require.Equal(t, 3, p.Overall.Total)
	require.Equal(t, 2, p.Overall.Submitted)
}

func TestGetProgressEmptyUserIsAllZeroes(t *testing.T) {
	s, _ := newTestStore()
	p, err := s.GetProgress("0xnobody")
	require.NoError(t, err)
	require.Equal(t, 0, p.Overall.Total)
	require.Len(t, p.Screens, len(keys.ScreenTypes))
}

func TestIndexedIDWithMissingRecordCountsAsDraft(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), models.StatusSubmitted))
	// simulate the record write being lost after the index was updated
	require.NoError(t, mem.Delete(keys.Record("0xabc", keys.TypeScale, "a")))

	p, err := s.GetProgress("0xabc")
	require.NoError(t, err)
	require.Equal(t, models.ScreenProgress{Total: 1, Submitted: 0, Draft: 1}, p.Screens[keys.TypeScale])
}

func TestSaveRecordSurfacesIndexWriteFailure(t *testing.T) {
	s, mem := newTestStore()
	indexKey := keys.Index("0xabc", keys.TypeScale)
	mem.FailSet = func(key string) error {
		if key == indexKey {
			return fmt.Errorf("disk full")
		}
		return nil
	}

	err := s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), "")
	require.Error(t, err)

	// the record write landed before the index failed: readable directly,
	// invisible to enumeration
	rec, err := s.GetRecord("0xabc", keys.TypeScale, "a")
	require.NoError(t, err)
	require.NotNil(t, rec)
	ids, err := s.Index("0xabc", keys.TypeScale)
	require.NoError(t, err)
	require.Empty(t, ids)

	// a later save of the same id repairs the index
	mem.FailSet = nil
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`2`), ""))
	ids, err = s.Index("0xabc", keys.TypeScale)
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids)
}

func TestDeleteUserRemovesEverything(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), models.StatusSubmitted))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeSimilar, "b", json.RawMessage(`1`), ""))
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeProfile, "", json.RawMessage(`1`), ""))
	require.NoError(t, s.SavePlan("0xabc", json.RawMessage(`{"plan":true}`)))
	require.NoError(t, s.SaveComparisonPlan("0xabc", "https://github.com/org/repo", json.RawMessage(`{"pairs":[]}`)))
	require.NoError(t, s.AddCompletedComparison("0xabc", "https://github.com/org/repo", "c1"))
	// another user's data must survive
	require.NoError(t, s.SaveRecord("0xother", keys.TypeScale, "a", json.RawMessage(`1`), ""))

	require.NoError(t, s.DeleteUser("0xAbC"))

	ks, err := mem.ListKeys("review:0xabc")
	require.NoError(t, err)
	require.Empty(t, ks)
	ks, err = mem.ListKeys("review:0xother")
	require.NoError(t, err)
	require.NotEmpty(t, ks)
}

func TestDeleteUserRemovesPerRepoComparisonData(t *testing.T) {
	s, mem := newTestStore()
	repo := "https://github.com/org/repo"
	require.NoError(t, s.SaveComparisonPlan("0xabc", repo, json.RawMessage(`{"pairs":["c1"]}`)))
	require.NoError(t, s.AddCompletedComparison("0xabc", repo, "c1"))

	require.NoError(t, s.DeleteUser("0xabc"))

	ks, err := mem.ListKeys("review:0xabc")
	require.NoError(t, err)
	require.Empty(t, ks)

	cp, err := s.GetComparisonProgress("0xabc", repo)
	require.NoError(t, err)
	require.Nil(t, cp.Plan)
	require.Empty(t, cp.Completed)
}

func TestDeleteUserSparesPrefixSharingUser(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, s.SaveRecord("0xabc", keys.TypeScale, "a", json.RawMessage(`1`), ""))
	require.NoError(t, s.SaveRecord("0xabcd", keys.TypeScale, "a", json.RawMessage(`1`), ""))

	require.NoError(t, s.DeleteUser("0xabc"))

	ks, err := mem.ListKeys("review:0xabcd:")
	require.NoError(t, err)
	require.NotEmpty(t, ks)
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	s, _ := newTestStore()
	require.NoError(t, s.DeleteUser("0xnobody"))
	require.NoError(t, s.DeleteUser("0xnobody"))
}
