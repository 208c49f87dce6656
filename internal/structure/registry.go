package structure

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/state"
)

var (
	ErrUnknownSection   = errors.New("unknown section")
	ErrDuplicateSection = errors.New("section already exists")
	ErrEmptyName        = errors.New("section name is required")
	ErrLastSection      = errors.New("cannot remove the last section")
	ErrInvalidRole      = errors.New("role must be System or User")
)

// Direction of a reorder step.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// View selects the sequence a reorder step is measured in.
type View int

const (
	Chronological View = iota
	Grouped
)

// ParseView maps a display mode name to a View.
func ParseView(mode string) View {
	if strings.EqualFold(strings.TrimSpace(mode), state.DisplayGrouped) || strings.EqualFold(mode, "grouped") {
		return Grouped
	}
	return Chronological
}

// Section is one entry of the ordering with its flags.
type Section struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Role    string `json:"role"`
	Index   int    `json:"index"`
}

// Registry owns the section ordering, the enabled-map and the role-map, all
// stored in the configuration store. Every mutation writes all three keys so
// the set of ordered names always equals the set of enabled-map keys.
type Registry struct {
	store *state.Store
}

// New binds a registry to store and repairs any drift between its keys.
func New(store *state.Store) *Registry {
	r := &Registry{store: store}
	r.Reconcile()
	return r
}

// NormalizeRole maps anything other than System to User.
func NormalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), state.RoleSystem) {
		return state.RoleSystem
	}
	return state.RoleUser
}

func validRole(role string) bool {
	r := strings.TrimSpace(role)
	return strings.EqualFold(r, state.RoleSystem) || strings.EqualFold(r, state.RoleUser)
}

type snapshot struct {
	order   []string
	enabled map[string]bool
	roles   map[string]string
}

func (r *Registry) load() snapshot {
	return snapshot{
		order:   r.store.Strings(state.KeySectionOrder),
		enabled: r.store.BoolMap(state.KeyPromptStructure),
		roles:   r.store.StringMap(state.KeySectionRoles),
	}
}

func (r *Registry) save(s snapshot) {
	_ = r.store.Set(state.KeySectionOrder, s.order)
	_ = r.store.Set(state.KeyPromptStructure, s.enabled)
	_ = r.store.Set(state.KeySectionRoles, s.roles)
}

// Reconcile restores the ordering/enabled-map invariant after a bulk load:
// toggles without an ordered entry are appended, ordered names without a
// toggle become enabled, duplicates are dropped. A load that leaves no
// section at all falls back to the built-in layout.
func (r *Registry) Reconcile() {
	s := r.load()
	seen := make(map[string]bool, len(s.order))
	order := make([]string, 0, len(s.order))
	for _, name := range s.order {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
		if _, ok := s.enabled[name]; !ok {
			s.enabled[name] = true
		}
	}
	var extra []string
	for name := range s.enabled {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	order = append(order, extra...)
	if len(order) == 0 {
		logger.Warn("Loaded structure has no sections, restoring the default layout")
		r.Reset()
		return
	}
	for name := range s.roles {
		if _, ok := s.enabled[name]; !ok {
			delete(s.roles, name)
		}
	}
	for _, name := range order {
		if _, ok := s.roles[name]; !ok {
			s.roles[name] = state.DefaultRole(name)
		}
	}
	s.order = order
	r.save(s)
}

// Order returns the section names in user order.
func (r *Registry) Order() []string {
	return r.store.Strings(state.KeySectionOrder)
}

// Sections returns every section in user order.
func (r *Registry) Sections() []Section {
	s := r.load()
	out := make([]Section, 0, len(s.order))
	for i, name := range s.order {
		out = append(out, Section{
			Name:    name,
			Enabled: s.enabled[name],
			Role:    NormalizeRole(s.roles[name]),
			Index:   i,
		})
	}
	return out
}

// Lookup returns the named section.
func (r *Registry) Lookup(name string) (Section, bool) {
	for _, sec := range r.Sections() {
		if sec.Name == name {
			return sec, true
		}
	}
	return Section{}, false
}

// Enabled reports whether name is registered and switched on.
func (r *Registry) Enabled(name string) bool {
	return r.store.BoolMap(state.KeyPromptStructure)[name]
}

// Grouped partitions the ordering by role, keeping relative order in each group.
func (r *Registry) Grouped() (system, user []Section) {
	for _, sec := range r.Sections() {
		if sec.Role == state.RoleSystem {
			system = append(system, sec)
		} else {
			user = append(user, sec)
		}
	}
	return system, user
}

// Move swaps name with its neighbour in dir. In the grouped view the
// neighbour is the adjacent section of the same role, and the two swap their
// absolute positions. It reports whether anything moved; a step past either
// boundary is a no-op.
func (r *Registry) Move(name string, dir Direction, view View) (bool, error) {
	s := r.load()
	pos := slices.Index(s.order, name)
	if pos < 0 {
		return false, fmt.Errorf("%q: %w", name, ErrUnknownSection)
	}

	peers := make([]int, 0, len(s.order))
	role := NormalizeRole(s.roles[name])
	for i, n := range s.order {
		if view == Chronological || NormalizeRole(s.roles[n]) == role {
			peers = append(peers, i)
		}
	}
	at := slices.Index(peers, pos)
	next := at + int(dir)
	if next < 0 || next >= len(peers) {
		return false, nil
	}
	other := peers[next]
	s.order[pos], s.order[other] = s.order[other], s.order[pos]
	r.save(s)
	return true, nil
}

// SetEnabled switches a registered section on or off.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	s := r.load()
	if _, ok := s.enabled[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownSection)
	}
	s.enabled[name] = enabled
	r.save(s)
	return nil
}

// SetRole assigns a section to the System or User half.
func (r *Registry) SetRole(name, role string) error {
	if !validRole(role) {
		return fmt.Errorf("%q: %w", role, ErrInvalidRole)
	}
	s := r.load()
	if _, ok := s.enabled[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownSection)
	}
	s.roles[name] = NormalizeRole(role)
	r.save(s)
	return nil
}

// AddCustom appends a new enabled section.
func (r *Registry) AddCustom(name, role string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if !validRole(role) {
		return fmt.Errorf("%q: %w", role, ErrInvalidRole)
	}
	s := r.load()
	if _, ok := s.enabled[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateSection)
	}
	s.order = append(s.order, name)
	s.enabled[name] = true
	s.roles[name] = NormalizeRole(role)
	r.save(s)
	return nil
}

// Remove deletes a section from the ordering and both maps. The registry
// always keeps at least one section.
func (r *Registry) Remove(name string) error {
	s := r.load()
	pos := slices.Index(s.order, name)
	if pos < 0 {
		return fmt.Errorf("%q: %w", name, ErrUnknownSection)
	}
	if len(s.order) == 1 {
		return ErrLastSection
	}
	s.order = slices.Delete(s.order, pos, pos+1)
	delete(s.enabled, name)
	delete(s.roles, name)
	r.save(s)
	return nil
}

// Reset restores the built-in ordering, toggles and roles.
func (r *Registry) Reset() {
	r.store.Delete(state.KeySectionOrder)
	r.store.Delete(state.KeyPromptStructure)
	r.store.Delete(state.KeySectionRoles)
	r.Reconcile()
}
