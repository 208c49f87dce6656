// Package session holds the state of one interactive prompt-building session
// and runs the store -> assembler -> substitution pipeline over it.
package session

import (
	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/dataimport"
	"github.com/kayz/promptsmith/internal/placeholder"
	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/state"
	"github.com/kayz/promptsmith/internal/structure"
)

// Session is not safe for concurrent use; callers serialize interactions.
type Session struct {
	Store    *state.Store
	Sections *structure.Registry
	Builder  *promptbuild.Builder

	dataset *dataimport.Dataset
	graphql *dataimport.GraphQLResult
}

// New creates a session with every key at its default.
func New(cfg config.PromptBuildConfig) *Session {
	store := state.New()
	store.Init()
	return Wrap(store, cfg)
}

// Wrap builds a session around an existing store.
func Wrap(store *state.Store, cfg config.PromptBuildConfig) *Session {
	sections := structure.New(store)
	return &Session{
		Store:    store,
		Sections: sections,
		Builder:  promptbuild.NewBuilder(store, sections, cfg),
	}
}

// Reloaded must be called after the store was bulk-loaded; it restores the
// section invariants.
func (s *Session) Reloaded() {
	s.Sections.Reconcile()
}

// SetDataset replaces the imported file data.
func (s *Session) SetDataset(ds *dataimport.Dataset) { s.dataset = ds }

// Dataset returns the imported file data, or nil.
func (s *Session) Dataset() *dataimport.Dataset { return s.dataset }

// SetGraphQLResult replaces the imported GraphQL data.
func (s *Session) SetGraphQLResult(r *dataimport.GraphQLResult) { s.graphql = r }

// GraphQLResult returns the imported GraphQL data, or nil.
func (s *Session) GraphQLResult() *dataimport.GraphQLResult { return s.graphql }

// Bindings returns the placeholder bindings in resolution order: file
// mappings first, then GraphQL mappings.
func (s *Session) Bindings() []placeholder.Binding {
	var out []placeholder.Binding
	if s.dataset != nil {
		out = append(out, placeholder.Binding{Mappings: s.Store.Mappings(state.KeyFileMappings), Source: s.dataset})
	}
	if s.graphql != nil {
		out = append(out, placeholder.Binding{Mappings: s.Store.Mappings(state.KeyGraphQLMappings), Source: s.graphql})
	}
	return out
}

// Render assembles the prompt and substitutes imported values.
func (s *Session) Render(mode promptbuild.Mode) promptbuild.Prompt {
	p := s.Builder.Build(mode)
	bindings := s.Bindings()
	if len(bindings) == 0 {
		return p
	}
	return p.Map(func(text string) string {
		return placeholder.Substitute(text, bindings...)
	})
}

// Unresolved lists the placeholder tokens left in a rendered prompt.
func Unresolved(p promptbuild.Prompt) []string {
	return placeholder.Tokens(p.Full())
}
