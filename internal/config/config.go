package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	exeDirCache string
)

// getExecutableDir returns the directory where the executable is located
func getExecutableDir() string {
	if exeDirCache != "" {
		return exeDirCache
	}
	execPath, err := os.Executable()
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		exeDirCache = "."
		return exeDirCache
	}
	exeDirCache = filepath.Dir(execPath)
	return exeDirCache
}

type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Storage     StorageConfig     `yaml:"storage"`
	PromptBuild PromptBuildConfig `yaml:"prompt_build"`
	AI          AIConfig          `yaml:"ai,omitempty"`
	Execution   ExecutionConfig   `yaml:"execution"`
	GraphQL     GraphQLConfig     `yaml:"graphql"`
	Server      ServerConfig      `yaml:"server"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig locates saved templates, sessions and the history database.
// Relative paths are resolved against Dir.
type StorageConfig struct {
	Dir          string `yaml:"dir"`
	TemplatesDir string `yaml:"templates_dir"`
	SessionsDir  string `yaml:"sessions_dir"`
	HistoryDB    string `yaml:"history_db"`
}

// PromptBuildConfig controls prompt audit records and structure presets.
type PromptBuildConfig struct {
	AuditEnabled       bool   `yaml:"audit_enabled"`
	AuditDir           string `yaml:"audit_dir"`
	AuditRetentionDays int    `yaml:"audit_retention_days"`
	AuditFilePrefix    string `yaml:"audit_file_prefix"`
	PresetsDir         string `yaml:"presets_dir"`
}

type AIConfig struct {
	Provider   string `yaml:"provider,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	Model      string `yaml:"model,omitempty"`
	ModelsFile string `yaml:"models_file,omitempty"`
}

type ExecutionConfig struct {
	TimeoutSeconds   int `yaml:"timeout_seconds"`
	BatchConcurrency int `yaml:"batch_concurrency"`
}

type GraphQLConfig struct {
	TimeoutSeconds  int  `yaml:"timeout_seconds"`
	CacheSize       int  `yaml:"cache_size"`
	CacheTTLSeconds int  `yaml:"cache_ttl_seconds"`
	AllowPrivate    bool `yaml:"allow_private"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Dir:          ConfigDir(),
			TemplatesDir: "templates",
			SessionsDir:  "sessions",
			HistoryDB:    "history.db",
		},
		PromptBuild: PromptBuildConfig{
			AuditEnabled:       false,
			AuditDir:           "audit",
			AuditRetentionDays: 30,
			AuditFilePrefix:    "prompt_audit",
			PresetsDir:         "presets",
		},
		AI: AIConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Execution: ExecutionConfig{
			TimeoutSeconds:   120,
			BatchConcurrency: 4,
		},
		GraphQL: GraphQLConfig{
			TimeoutSeconds:  30,
			CacheSize:       64,
			CacheTTLSeconds: 300,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8686",
		},
	}
}

func ConfigDir() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".promptsmith")
}

func ConfigPath() string {
	exeDir := getExecutableDir()
	return filepath.Join(exeDir, ".promptsmith.yaml")
}

// Resolve joins p onto the storage dir unless p is absolute.
func (s StorageConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.Dir, p)
}

func Load() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads the config at path over the defaults. A missing file is
// not an error. Environment variables are applied last.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PROMPTSMITH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("PROMPTSMITH_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("PROMPTSMITH_PROVIDER"); v != "" {
		c.AI.Provider = v
	}
	if v := os.Getenv("PROMPTSMITH_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("PROMPTSMITH_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("PROMPTSMITH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PROMPTSMITH_AUDIT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.PromptBuild.AuditEnabled = b
		}
	}
	// PROMPTSMITH_API_KEY belongs to the selected provider only.
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("PROMPTSMITH_API_KEY")
	}
	if c.AI.APIKey == "" {
		c.AI.APIKey = APIKeyFromEnv(c.AI.Provider)
	}
}

// APIKeyFromEnv returns the vendor variable holding the key for provider.
func APIKeyFromEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
