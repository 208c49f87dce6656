package ai

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider types understood by the execution dispatcher.
const (
	TypeOpenAI    = "openai"
	TypeAnthropic = "anthropic"
	TypeSimulated = "simulated"
)

type ProviderConfig struct {
	Name    string   `yaml:"name"`
	Type    string   `yaml:"type"`
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	APIKeys []string `yaml:"api_keys"`
}

// Keys returns the configured API keys, single key first.
func (p *ProviderConfig) Keys() []string {
	var keys []string
	if k := strings.TrimSpace(p.APIKey); k != "" {
		keys = append(keys, k)
	}
	for _, k := range p.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

type ModelConfig struct {
	Name      string   `yaml:"name"`
	Code      string   `yaml:"code"`
	Provider  string   `yaml:"provider"`
	MaxTokens int      `yaml:"max_tokens"`
	Skills    []string `yaml:"skills"`
	Enabled   *bool    `yaml:"enabled"`
}

// APIModel is the identifier sent to the provider.
func (m *ModelConfig) APIModel() string {
	if m.Code != "" {
		return m.Code
	}
	return m.Name
}

func (m *ModelConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

func (m *ModelConfig) SkillsText() string {
	if len(m.Skills) == 0 {
		return "-"
	}
	return strings.Join(m.Skills, ", ")
}

// Registry is the provider and model catalog.
type Registry struct {
	providers     map[string]*ProviderConfig
	providerOrder []string
	models        map[string]*ModelConfig
	modelOrder    []string
}

type catalogFile struct {
	Providers []*ProviderConfig `yaml:"providers"`
	Models    []*ModelConfig    `yaml:"models"`
}

func builtinCatalog() catalogFile {
	return catalogFile{
		Providers: []*ProviderConfig{
			{Name: "OpenAI", Type: TypeOpenAI},
			{Name: "Anthropic", Type: TypeAnthropic},
			{Name: "Custom", Type: TypeSimulated},
		},
		Models: []*ModelConfig{
			{Name: "gpt-4o", Provider: "OpenAI", MaxTokens: 16384, Skills: []string{"multimodal"}},
			{Name: "gpt-4", Provider: "OpenAI", MaxTokens: 8192},
			{Name: "gpt-3.5-turbo", Provider: "OpenAI", MaxTokens: 4096},
			{Name: "claude-3-opus", Code: "claude-3-opus-20240229", Provider: "Anthropic", MaxTokens: 4096, Skills: []string{"multimodal"}},
			{Name: "claude-3-sonnet", Code: "claude-3-sonnet-20240229", Provider: "Anthropic", MaxTokens: 4096, Skills: []string{"multimodal"}},
			{Name: "claude-3-haiku", Code: "claude-3-haiku-20240307", Provider: "Anthropic", MaxTokens: 4096},
			{Name: "Custom Model 1", Provider: "Custom", MaxTokens: 4000},
			{Name: "Custom Model 2", Provider: "Custom", MaxTokens: 4000},
		},
	}
}

// NewRegistry returns the built-in catalog.
func NewRegistry() *Registry {
	r := &Registry{
		providers: make(map[string]*ProviderConfig),
		models:    make(map[string]*ModelConfig),
	}
	r.add(builtinCatalog())
	return r
}

// LoadRegistry returns the built-in catalog overlaid with the YAML file at
// path. Entries with a known name replace the built-in one. A missing file
// is not an error.
func LoadRegistry(path string) (*Registry, error) {
	r := NewRegistry()
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for _, m := range cf.Models {
		if m.Provider == "" {
			return nil, fmt.Errorf("model %q in %s has no provider", m.Name, path)
		}
	}
	r.add(cf)
	return r, nil
}

func (r *Registry) add(cf catalogFile) {
	for _, p := range cf.Providers {
		if p.Name == "" {
			continue
		}
		if _, exists := r.providers[p.Name]; !exists {
			r.providerOrder = append(r.providerOrder, p.Name)
		}
		r.providers[p.Name] = p
	}
	for _, m := range cf.Models {
		if m.Name == "" {
			continue
		}
		if _, exists := r.models[m.Name]; !exists {
			r.modelOrder = append(r.modelOrder, m.Name)
		}
		r.models[m.Name] = m
	}
}

func (r *Registry) GetProvider(name string) (*ProviderConfig, bool) {
	p, ok := r.providers[name]
	return p, ok
}

func (r *Registry) GetModel(name string) (*ModelConfig, bool) {
	m, ok := r.models[name]
	return m, ok
}

func (r *Registry) ListProviders() []*ProviderConfig {
	out := make([]*ProviderConfig, 0, len(r.providerOrder))
	for _, name := range r.providerOrder {
		out = append(out, r.providers[name])
	}
	return out
}

// ListModels returns enabled models in catalog order. An empty provider
// lists every provider's models.
func (r *Registry) ListModels(provider string) []*ModelConfig {
	models := make([]*ModelConfig, 0, len(r.modelOrder))
	for _, name := range r.modelOrder {
		m := r.models[name]
		if !m.IsEnabled() {
			continue
		}
		if provider != "" && m.Provider != provider {
			continue
		}
		models = append(models, m)
	}
	return models
}

// DefaultModel returns the first enabled model of provider.
func (r *Registry) DefaultModel(provider string) *ModelConfig {
	if models := r.ListModels(provider); len(models) > 0 {
		return models[0]
	}
	return nil
}

// ProviderType returns the type of the named provider, or TypeSimulated
// when the provider is unknown.
func (r *Registry) ProviderType(name string) string {
	if p, ok := r.providers[name]; ok && p.Type != "" {
		return p.Type
	}
	return TypeSimulated
}
