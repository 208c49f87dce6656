package state

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetResolvesAndPersistsDefault(t *testing.T) {
	s := New()
	require.False(t, s.Has(KeyOutputFormat))

	require.Equal(t, "Markdown", s.String(KeyOutputFormat))
	require.True(t, s.Has(KeyOutputFormat), "default should be kept after first read")

	_, ok := s.Get("no_such_key")
	require.False(t, ok)
}

func TestInitIsIdempotent(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(KeyTask, "Summarize Y"))
	s.Init()
	s.Init()
	require.Equal(t, "Summarize Y", s.String(KeyTask))
	require.Equal(t, "Plain Text", s.String(KeyInputFormat))
}

func TestSetRejectsWrongKind(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(KeyFewShot, false))

	err := s.Set(KeyFewShot, "yes")
	require.True(t, errors.Is(err, ErrTypeMismatch))
	require.False(t, s.Bool(KeyFewShot), "failed set must leave the value unchanged")

	require.ErrorIs(t, s.Set(KeyIterations, 2.5), ErrTypeMismatch)
	require.NoError(t, s.Set(KeyIterations, 4.0))
	require.Equal(t, 4, s.Int(KeyIterations))
}

func TestSetAcceptsJSONShapes(t *testing.T) {
	s := New()
	var decoded map[string]any
	raw := `{
		"examples": [{"input": "a", "output": "b"}],
		"prompt_structure": {"Task Definition": false},
		"critic_evaluation_criteria": [{"name": "Tone", "description": "d", "weight": 2}],
		"execution_temperature": 1
	}`
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.NoError(t, s.Merge(decoded))

	require.Equal(t, []Example{{Input: "a", Output: "b"}}, s.Examples())
	require.Equal(t, map[string]bool{"Task Definition": false}, s.BoolMap(KeyPromptStructure))
	require.Equal(t, []Criterion{{Name: "Tone", Description: "d", Weight: 2}}, s.Criteria(KeyCriticCriteria))
	require.Equal(t, 1.0, s.Float(KeyExecTemperature))
}

func TestMergeIsKeyWise(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(KeyContext, "keep me"))
	require.NoError(t, s.Set(KeyTask, "old task"))

	err := s.Merge(map[string]any{
		KeyTask:          "new task",
		KeyThinkingSteps: "not a bool",
		"legacy_key":     42,
	})
	require.ErrorIs(t, err, ErrTypeMismatch)
	require.Equal(t, "keep me", s.String(KeyContext))
	require.Equal(t, "new task", s.String(KeyTask))
	require.True(t, s.Bool(KeyThinkingSteps))

	v, ok := s.Get("legacy_key")
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestReturnedValuesDoNotAliasStore(t *testing.T) {
	s := New()
	s.Init()
	steps := s.Strings(KeyChainOfThought)
	steps[0] = "mutated"
	require.NotEqual(t, "mutated", s.Strings(KeyChainOfThought)[0])

	m := s.BoolMap(KeyPromptStructure)
	m[SectionTask] = false
	require.True(t, s.BoolMap(KeyPromptStructure)[SectionTask])

	snap := s.Snapshot()
	snap[KeyExamples].([]Example)[0].Input = "changed"
	require.NotEqual(t, "changed", s.Examples()[0].Input)
}

func TestDeleteRevertsDeclaredKey(t *testing.T) {
	s := New()
	require.NoError(t, s.Set(KeyOutputTone, "Casual"))
	s.Delete(KeyOutputTone)
	require.Equal(t, "Professional", s.String(KeyOutputTone))
}

func TestDefaultStructureIsConsistent(t *testing.T) {
	s := New()
	order := s.Strings(KeySectionOrder)
	enabled := s.BoolMap(KeyPromptStructure)
	roles := s.StringMap(KeySectionRoles)
	require.Len(t, enabled, len(order))
	for _, name := range order {
		require.True(t, enabled[name], name)
		require.Contains(t, []string{RoleSystem, RoleUser}, roles[name])
	}
	require.Equal(t, RoleSystem, roles[SectionContext])
	require.Equal(t, RoleSystem, roles[SectionSelfReview])
	require.Equal(t, RoleUser, roles[SectionFactCheck])
}
