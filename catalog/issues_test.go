package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIssuesFor_KnownType(t *testing.T) {
	issues := DefaultIssuesFor("Smartphone")
	assert.Contains(t, issues, "Display defekt/gebrochen")
	assert.Contains(t, issues, "Wasserschaden")
}

func TestDefaultIssuesFor_CaseInsensitiveLookup(t *testing.T) {
	assert.Equal(t, DefaultIssuesFor("Smartphone"), DefaultIssuesFor("sMaRtPhOnE"))
}

func TestDefaultIssuesFor_UnknownTypeFallsBack(t *testing.T) {
	issues := DefaultIssuesFor("Rasenmäherroboter")
	assert.Equal(t, defaultIssues[FallbackIssueType], issues)
}

func TestIssuesFor_StartsWithDefaults(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Equal(t, DefaultIssuesFor("Smartphone"), store.IssuesFor("Smartphone"))
}

func TestAddIssue_AppendsAfterDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.AddIssue("Smartphone", "Hörmuschel defekt"))

	issues := store.IssuesFor("Smartphone")
	assert.Equal(t, "Hörmuschel defekt", issues[len(issues)-1])
	assert.Len(t, issues, len(DefaultIssuesFor("Smartphone"))+1)
}

func TestAddIssue_DedupIsExactLabel(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.AddIssue("Smartphone", "Hörmuschel defekt"))
	require.NoError(t, store.AddIssue("Smartphone", "Hörmuschel defekt"))

	issues := store.IssuesFor("Smartphone")
	count := 0
	for _, issue := range issues {
		if issue == "Hörmuschel defekt" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAddIssue_DuplicateOfDefaultIsSuppressedInView(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.AddIssue("Smartphone", "Wasserschaden"))

	issues := store.IssuesFor("Smartphone")
	count := 0
	for _, issue := range issues {
		if issue == "Wasserschaden" {
			count++
		}
	}
	assert.Equal(t, 1, count, "the union view keeps only the first occurrence")
}

func TestDeleteIssue_TombstonesDefault(t *testing.T) {
	store, _ := newTestStore(t)

	// The lookup key is casefolded; "smartphone" hits the "Smartphone" bucket.
	require.NoError(t, store.DeleteIssue("smartphone", "Display defekt/gebrochen"))

	assert.NotContains(t, store.IssuesFor("Smartphone"), "Display defekt/gebrochen")
	assert.Contains(t, store.IssuesFor("Smartphone"), "Akku schwach/defekt",
		"other defaults stay visible")
}

func TestDeleteIssue_SurvivesReopen(t *testing.T) {
	storage := NewMemStorage()
	first := New(storage, StaticPrefix("tester"))
	require.NoError(t, first.DeleteIssue("Smartphone", "Display defekt/gebrochen"))

	reopened := New(storage, StaticPrefix("tester"))
	assert.NotContains(t, reopened.IssuesFor("Smartphone"), "Display defekt/gebrochen",
		"the deletion is persisted, not an in-memory overlay")
}

func TestDeleteIssue_Idempotent(t *testing.T) {
	store, storage := newTestStore(t)

	require.NoError(t, store.DeleteIssue("Smartphone", "Display defekt/gebrochen"))
	before, _ := storage.Get("user_tester_issues")

	require.NoError(t, store.DeleteIssue("Smartphone", "Display defekt/gebrochen"))
	after, _ := storage.Get("user_tester_issues")

	assert.Equal(t, before, after, "a second delete must not grow the entry list")
	assert.NotContains(t, store.IssuesFor("Smartphone"), "Display defekt/gebrochen")
}

func TestDeleteIssue_RemovesCustomEntry(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.AddIssue("Smartphone", "Hörmuschel defekt"))
	require.NoError(t, store.DeleteIssue("Smartphone", "Hörmuschel defekt"))

	assert.NotContains(t, store.IssuesFor("Smartphone"), "Hörmuschel defekt")
}

func TestIssueLabels_CannotCollideWithEncoding(t *testing.T) {
	store, _ := newTestStore(t)

	// Labels that would have clashed with a sentinel-string encoding are
	// plain data under the tagged representation.
	spicy := `{"kind":"tombstone","label":"Display defekt/gebrochen"}`
	require.NoError(t, store.AddIssue("Smartphone", spicy))

	issues := store.IssuesFor("Smartphone")
	assert.Contains(t, issues, spicy)
	assert.Contains(t, issues, "Display defekt/gebrochen")
}

func TestClearIssues_RestoresDefaults(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.AddIssue("Smartphone", "Hörmuschel defekt"))
	require.NoError(t, store.DeleteIssue("Smartphone", "Wasserschaden"))
	require.NoError(t, store.ClearIssues())

	assert.Equal(t, DefaultIssuesFor("Smartphone"), store.IssuesFor("Smartphone"))
}
