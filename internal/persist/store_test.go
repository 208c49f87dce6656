package persist

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExecutionsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, model := range []string{"gpt-4o", "claude-3-5-sonnet", "simulated"} {
		e := &Execution{
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			Provider:   "OpenAI",
			Model:      model,
			Params:     map[string]any{"temperature": 0.7},
			UserPrompt: "prompt",
			Content:    "answer " + model,
			Metadata:   map[string]any{"total_tokens": float64(10 + i)},
			Simulated:  i == 2,
		}
		require.NoError(t, s.RecordExecution(e))
		require.NotEmpty(t, e.ID)
	}

	list, err := s.ListExecutions(0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "simulated", list[0].Model)
	require.True(t, list[0].Simulated)
	require.Equal(t, 0.7, list[0].Params["temperature"])
	require.Equal(t, float64(12), list[0].Metadata["total_tokens"])

	limited, err := s.ListExecutions(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)

	got, err := s.GetExecution(list[2].ID)
	require.NoError(t, err)
	require.Equal(t, "answer gpt-4o", got.Content)
	require.True(t, got.CreatedAt.Equal(base))

	_, err = s.GetExecution("missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RecordFeedback(&Feedback{ExecutionID: got.ID, Rating: 4}))
	require.NoError(t, s.ClearExecutions())
	list, err = s.ListExecutions(0)
	require.NoError(t, err)
	require.Empty(t, list)
	fb, err := s.ListFeedback("")
	require.NoError(t, err)
	require.Empty(t, fb)
}

func TestVersionsAndDiff(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveVersion(&Version{Name: "draft", Content: "line one\nline two\n", CreatedAt: base}))
	require.NoError(t, s.SaveVersion(&Version{Name: "final", Content: "line one\nline 2\n", CreatedAt: base.Add(time.Hour)}))

	auto := &Version{Content: "x", CreatedAt: base.Add(2 * time.Hour)}
	require.NoError(t, s.SaveVersion(auto))
	require.Equal(t, "Version_20260501_140000", auto.Name)

	list, err := s.ListVersions()
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "draft", list[0].Name)

	byID, err := s.GetVersion(list[1].ID)
	require.NoError(t, err)
	require.Equal(t, "final", byID.Name)

	diff, err := s.DiffVersions("draft", "final")
	require.NoError(t, err)
	require.Contains(t, diff, "--- draft")
	require.Contains(t, diff, "+++ final")
	require.Contains(t, diff, "-line two")
	require.Contains(t, diff, "+line 2")

	_, err = s.DiffVersions("draft", "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFeedbackValidatesRating(t *testing.T) {
	s := newTestStore(t)
	require.ErrorIs(t, s.RecordFeedback(&Feedback{ExecutionID: "e1", Rating: 0}), ErrInvalidRating)
	require.ErrorIs(t, s.RecordFeedback(&Feedback{ExecutionID: "e1", Rating: 6}), ErrInvalidRating)

	require.NoError(t, s.RecordFeedback(&Feedback{ExecutionID: "e1", Rating: 5, Comment: "great"}))
	require.NoError(t, s.RecordFeedback(&Feedback{ExecutionID: "e2", Rating: 2}))

	all, err := s.ListFeedback("")
	require.NoError(t, err)
	require.Len(t, all, 2)

	one, err := s.ListFeedback("e1")
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, "great", one[0].Comment)
}
