package structure

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/state"
)

// Preset is a YAML-described section layout that can replace the current one.
type Preset struct {
	Version     string          `yaml:"version" json:"version"`
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Sections    []PresetSection `yaml:"sections" json:"sections"`
}

// PresetSection is one entry of a preset. Enabled defaults to true.
type PresetSection struct {
	Name    string `yaml:"name" json:"name"`
	Role    string `yaml:"role,omitempty" json:"role,omitempty"`
	Enabled *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Order   int    `yaml:"order,omitempty" json:"order,omitempty"`
}

// LoadPreset reads, validates and orders the preset at path.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file %s: %w", path, err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}
	if err := validatePreset(&p); err != nil {
		return nil, fmt.Errorf("invalid preset file %s: %w", path, err)
	}

	sort.SliceStable(p.Sections, func(i, j int) bool {
		return p.Sections[i].Order < p.Sections[j].Order
	})

	return &p, nil
}

// LoadPresetByName resolves name to <dir>/<name>.yaml.
func LoadPresetByName(dir, name string) (*Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("preset name is required")
	}
	if filepath.Ext(name) == "" {
		name += ".yaml"
	}
	return LoadPreset(filepath.Join(dir, filepath.Base(name)))
}

// ListPresets returns the preset names found in dir.
func ListPresets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

func validatePreset(p *Preset) error {
	if p == nil {
		return fmt.Errorf("preset is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(p.Sections) == 0 {
		return fmt.Errorf("sections is required")
	}

	seen := make(map[string]struct{}, len(p.Sections))
	for _, sec := range p.Sections {
		name := strings.TrimSpace(sec.Name)
		if name == "" {
			return fmt.Errorf("section name is required")
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf("duplicate section: %s", name)
		}
		seen[name] = struct{}{}

		if sec.Role != "" && !validRole(sec.Role) {
			return fmt.Errorf("section %s has unsupported role: %s", name, sec.Role)
		}
	}

	return nil
}

// Apply replaces the ordering, toggles and roles with the preset's layout.
func (r *Registry) Apply(p *Preset) error {
	if err := validatePreset(p); err != nil {
		return err
	}
	s := snapshot{
		order:   make([]string, 0, len(p.Sections)),
		enabled: make(map[string]bool, len(p.Sections)),
		roles:   make(map[string]string, len(p.Sections)),
	}
	for _, sec := range p.Sections {
		name := strings.TrimSpace(sec.Name)
		role := sec.Role
		if role == "" {
			role = state.DefaultRole(name)
		}
		s.order = append(s.order, name)
		s.enabled[name] = sec.Enabled == nil || *sec.Enabled
		s.roles[name] = NormalizeRole(role)
	}
	r.save(s)
	logger.Info("Applied structure preset %s (%d sections)", p.Name, len(s.order))
	return nil
}
