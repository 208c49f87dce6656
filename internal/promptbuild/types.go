package promptbuild

import "fmt"

// Mode selects the assembly algorithm.
type Mode string

const (
	// ModeCombined renders the fixed built-in order into one text, ignoring roles.
	ModeCombined Mode = "combined"
	// ModeRoles renders the user order into a system and a user text.
	ModeRoles Mode = "roles"
)

// ParseMode accepts "combined" or "roles" (also "role", "role-based").
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "combined":
		return ModeCombined, nil
	case "roles", "role", "role-based", "role_based":
		return ModeRoles, nil
	}
	return "", fmt.Errorf("unknown prompt mode %q", s)
}

// RenderedSection is one section's contribution to a prompt.
type RenderedSection struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
	Text string `json:"text"`
}

// Prompt is an assembled prompt. Text is set in combined mode; System and
// User in role mode.
type Prompt struct {
	Mode     Mode              `json:"mode"`
	Text     string            `json:"text,omitempty"`
	System   string            `json:"system,omitempty"`
	User     string            `json:"user,omitempty"`
	Sections []RenderedSection `json:"sections"`
}

// Full returns the complete prompt text for either mode.
func (p Prompt) Full() string {
	if p.Mode == ModeRoles {
		return p.System + p.User
	}
	return p.Text
}

// Map applies fn to every text field, used for placeholder substitution.
func (p Prompt) Map(fn func(string) string) Prompt {
	out := p
	out.Text = fn(p.Text)
	out.System = fn(p.System)
	out.User = fn(p.User)
	out.Sections = make([]RenderedSection, len(p.Sections))
	for i, s := range p.Sections {
		s.Text = fn(s.Text)
		out.Sections[i] = s
	}
	return out
}
