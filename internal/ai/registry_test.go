package ai

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProviderKeys(t *testing.T) {
	p := &ProviderConfig{APIKey: "single-key"}
	keys := p.Keys()
	if len(keys) != 1 || keys[0] != "single-key" {
		t.Fatalf("unexpected keys: %#v", keys)
	}

	p = &ProviderConfig{APIKeys: []string{"k1", " ", "k2"}}
	keys = p.Keys()
	if len(keys) != 2 || keys[0] != "k1" || keys[1] != "k2" {
		t.Fatalf("unexpected key pool: %#v", keys)
	}
}

func TestBuiltinCatalog(t *testing.T) {
	r := NewRegistry()

	openai := r.ListModels("OpenAI")
	if len(openai) != 3 || openai[0].Name != "gpt-4o" {
		t.Fatalf("unexpected OpenAI models: %#v", openai)
	}
	if m := r.DefaultModel("Anthropic"); m == nil || m.APIModel() != "claude-3-opus-20240229" {
		t.Fatalf("unexpected Anthropic default: %#v", m)
	}
	if got := r.ProviderType("Custom"); got != TypeSimulated {
		t.Fatalf("Custom should be simulated, got %s", got)
	}
	if got := r.ProviderType("Nope"); got != TypeSimulated {
		t.Fatalf("unknown provider should be simulated, got %s", got)
	}
}

func TestLoadRegistryOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	data := `
providers:
  - name: OpenAI
    type: openai
    base_url: http://localhost:9999/v1
models:
  - name: gpt-4
    provider: OpenAI
    enabled: false
  - name: local-llama
    code: llama3
    provider: OpenAI
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	p, _ := r.GetProvider("OpenAI")
	if p.BaseURL != "http://localhost:9999/v1" {
		t.Fatalf("provider not overridden: %#v", p)
	}

	var names []string
	for _, m := range r.ListModels("OpenAI") {
		names = append(names, m.Name)
	}
	want := []string{"gpt-4o", "gpt-3.5-turbo", "local-llama"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	r, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if len(r.ListProviders()) != 3 {
		t.Fatalf("expected built-in providers")
	}
}

func TestLoadRegistryRejectsModelWithoutProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	if err := os.WriteFile(path, []byte("models:\n  - name: orphan\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected error for model without provider")
	}
}
