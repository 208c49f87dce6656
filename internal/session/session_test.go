package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/dataimport"
	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/state"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	return New(config.PromptBuildConfig{AuditDir: t.TempDir()})
}

func TestRenderSubstitutesFileThenGraphQL(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Store.Set(state.KeyTask, "Write to {{customer}} about {{product}} ({{unknown}})"))
	require.NoError(t, s.Store.AddMapping(state.KeyFileMappings, state.Mapping{Field: "name", Placeholder: "customer"}))
	require.NoError(t, s.Store.AddMapping(state.KeyFileMappings, state.Mapping{Field: "item", Placeholder: "product"}))
	require.NoError(t, s.Store.AddMapping(state.KeyGraphQLMappings, state.Mapping{Field: "product.title", Placeholder: "product"}))

	ds, err := dataimport.Read(strings.NewReader("name,item\nAlice,Lamp\n"), "orders.csv")
	require.NoError(t, err)
	s.SetDataset(ds)
	s.SetGraphQLResult(&dataimport.GraphQLResult{Data: map[string]any{"product": map[string]any{"title": "Desk"}}})

	p := s.Render(promptbuild.ModeCombined)
	require.Contains(t, p.Text, "Write to Alice about Desk ({{unknown}})")
	require.Equal(t, []string{"unknown"}, Unresolved(p))

	roles := s.Render(promptbuild.ModeRoles)
	require.Contains(t, roles.User, "Write to Alice about Desk")
	for _, sec := range roles.Sections {
		require.NotContains(t, sec.Text, "{{customer}}")
	}
}

func TestRenderWithoutDataLeavesTokens(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Store.Set(state.KeyTask, "Hello {{name}}"))
	require.NoError(t, s.Store.AddMapping(state.KeyFileMappings, state.Mapping{Field: "name", Placeholder: "name"}))

	p := s.Render(promptbuild.ModeCombined)
	require.Contains(t, p.Text, "Hello {{name}}")
	require.Empty(t, s.Bindings())
}

func TestReloadedRepairsSections(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Store.Merge(map[string]any{
		state.KeySectionOrder: []any{"Context & Background"},
	}))
	s.Reloaded()
	require.Len(t, s.Sections.Order(), len(state.DefaultSectionOrder))
	require.Equal(t, state.SectionContext, s.Sections.Order()[0])
}

func TestReloadedNeverLeavesZeroSections(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Store.Set(state.KeyTask, "Summarize"))
	require.NoError(t, s.Store.Merge(map[string]any{
		state.KeySectionOrder:    []any{},
		state.KeyPromptStructure: map[string]any{},
		state.KeySectionRoles:    map[string]any{},
	}))
	s.Reloaded()

	require.Equal(t, state.DefaultSectionOrder, s.Sections.Order())
	for _, name := range state.DefaultSectionOrder {
		sec, ok := s.Sections.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, state.DefaultRole(name), sec.Role)
	}
	require.Contains(t, s.Render(promptbuild.ModeRoles).User, "Summarize")
}
