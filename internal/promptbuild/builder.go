package promptbuild

import (
	"strings"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/state"
	"github.com/kayz/promptsmith/internal/structure"
)

// Builder assembles prompts from the section registry and the configuration store.
type Builder struct {
	store     *state.Store
	sections  *structure.Registry
	renderers *Renderers
	cfg       config.PromptBuildConfig
}

// NewBuilder creates a Builder with the built-in renderers.
func NewBuilder(store *state.Store, sections *structure.Registry, cfg config.PromptBuildConfig) *Builder {
	return &Builder{
		store:     store,
		sections:  sections,
		renderers: NewRenderers(),
		cfg:       cfg,
	}
}

// Renderers exposes the renderer registry so callers can register sections.
func (b *Builder) Renderers() *Renderers {
	return b.renderers
}

// Build assembles the prompt in the given mode. It never fails; audit
// problems are logged.
func (b *Builder) Build(mode Mode) Prompt {
	var p Prompt
	if mode == ModeRoles {
		p = b.roleBased()
	} else {
		p = b.combined()
	}
	if err := b.writeAuditRecord(p); err != nil {
		logger.Warn("Prompt audit failed: %v", err)
	}
	return p
}

// Combined renders the fixed section order into one text.
func (b *Builder) Combined() string {
	return b.combined().Text
}

// RoleBased renders the user order into system and user texts.
func (b *Builder) RoleBased() (system, user string) {
	p := b.roleBased()
	return p.System, p.User
}

// RenderSection renders a single section regardless of its toggle.
func (b *Builder) RenderSection(name string) string {
	return b.renderers.Render(name, b.store)
}

func (b *Builder) combined() Prompt {
	p := Prompt{Mode: ModeCombined}
	var out strings.Builder
	for _, name := range b.renderers.Order() {
		if !b.sections.Enabled(name) {
			continue
		}
		text := b.renderers.Render(name, b.store)
		if text == "" {
			continue
		}
		out.WriteString(text)
		p.Sections = append(p.Sections, RenderedSection{Name: name, Text: text})
	}
	p.Text = out.String()
	return p
}

func (b *Builder) roleBased() Prompt {
	p := Prompt{Mode: ModeRoles}
	var system, user strings.Builder
	for _, sec := range b.sections.Sections() {
		if !sec.Enabled {
			continue
		}
		text := b.renderers.Render(sec.Name, b.store)
		if text == "" {
			continue
		}
		if sec.Role == state.RoleSystem {
			system.WriteString(text)
		} else {
			user.WriteString(text)
		}
		p.Sections = append(p.Sections, RenderedSection{Name: sec.Name, Role: sec.Role, Text: text})
	}
	p.System = system.String()
	p.User = user.String()
	return p
}
