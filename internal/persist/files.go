package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/state"
)

var (
	ErrEmptyName = errors.New("name is required")
	ErrNotFound  = errors.New("not found")
)

const metadataKey = "__metadata__"

// TemplateKeys is the subset of the store a template captures.
var TemplateKeys = []string{
	state.KeyContext,
	state.KeyTask,
	state.KeyInputFormat,
	state.KeyInputDescription,
	state.KeyOutputFormat,
	state.KeyOutputTone,
	state.KeyOutputRequirements,
	state.KeyExamples,
	state.KeyConstraints,
	state.KeyEvaluationCriteria,
	state.KeySelectedWorkflows,
	state.KeySelectedAgents,
	state.KeyChainOfThought,
	state.KeyPromptStructure,
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeName maps a user-supplied name to a file stem.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".json")
	name = unsafeName.ReplaceAllString(name, "_")
	return strings.Trim(name, ".")
}

// FileStore keeps templates and sessions as one JSON file per name.
type FileStore struct {
	templatesDir string
	sessionsDir  string
	now          func() time.Time
}

func NewFileStore(templatesDir, sessionsDir string) *FileStore {
	return &FileStore{templatesDir: templatesDir, sessionsDir: sessionsDir, now: time.Now}
}

// SaveTemplate writes the template subset of s and returns the file path.
func (f *FileStore) SaveTemplate(name string, s *state.Store) (string, error) {
	stem := SanitizeName(name)
	if stem == "" {
		return "", ErrEmptyName
	}
	values := make(map[string]any, len(TemplateKeys))
	for _, key := range TemplateKeys {
		if v, ok := s.Get(key); ok {
			values[key] = v
		}
	}
	path := filepath.Join(f.templatesDir, stem+".json")
	if err := writeJSONFile(path, encodeValues(values)); err != nil {
		return "", fmt.Errorf("save template %s: %w", name, err)
	}
	logger.Info("Saved template %s to %s", name, path)
	return path, nil
}

// LoadTemplate overwrites the keys present in the template file.
func (f *FileStore) LoadTemplate(name string, s *state.Store) error {
	stem := SanitizeName(name)
	if stem == "" {
		return ErrEmptyName
	}
	values, err := readJSONFile(filepath.Join(f.templatesDir, stem+".json"))
	if err != nil {
		return fmt.Errorf("load template %s: %w", name, err)
	}
	merge(s, values)
	return nil
}

// ListTemplates returns display names, sorted.
func (f *FileStore) ListTemplates() ([]string, error) {
	stems, err := listStems(f.templatesDir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(stems))
	for i, stem := range stems {
		names[i] = strings.ReplaceAll(stem, "_", " ")
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileStore) DeleteTemplate(name string) error {
	return removeFile(f.templatesDir, name)
}

// SaveSession writes the whole store plus metadata. An empty name gets a
// timestamped one.
func (f *FileStore) SaveSession(name string, s *state.Store) (SessionInfo, error) {
	now := f.now()
	stem := SanitizeName(name)
	if stem == "" {
		stem = "state_" + now.Format("20060102_150405")
	}
	meta := SessionMeta{SavedAt: now.Format("2006-01-02T15:04:05.000000"), ID: uuid.NewString()}

	out := encodeValues(s.Snapshot())
	out[metadataKey], _ = json.Marshal(meta)

	path := filepath.Join(f.sessionsDir, stem+".json")
	if err := writeJSONFile(path, out); err != nil {
		return SessionInfo{}, fmt.Errorf("save session %s: %w", stem, err)
	}
	logger.Info("Saved session %s (%d keys) to %s", stem, len(out)-1, path)
	return SessionInfo{Name: stem, Path: path, Meta: meta}, nil
}

// LoadSession merges a saved session into s key by key. Keys absent from
// the file keep their current values.
func (f *FileStore) LoadSession(name string, s *state.Store) (SessionMeta, error) {
	stem := SanitizeName(name)
	if stem == "" {
		return SessionMeta{}, ErrEmptyName
	}
	values, err := readJSONFile(filepath.Join(f.sessionsDir, stem+".json"))
	if err != nil {
		return SessionMeta{}, fmt.Errorf("load session %s: %w", stem, err)
	}
	meta := extractMeta(values)
	merge(s, values)
	return meta, nil
}

// SessionExists reports whether a session file exists.
func (f *FileStore) SessionExists(name string) bool {
	stem := SanitizeName(name)
	if stem == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(f.sessionsDir, stem+".json"))
	return err == nil
}

// ListSessions returns saved sessions, newest first.
func (f *FileStore) ListSessions() ([]SessionInfo, error) {
	stems, err := listStems(f.sessionsDir)
	if err != nil {
		return nil, err
	}
	out := make([]SessionInfo, 0, len(stems))
	for _, stem := range stems {
		path := filepath.Join(f.sessionsDir, stem+".json")
		values, err := readJSONFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable session file %s: %v", path, err)
			continue
		}
		out = append(out, SessionInfo{Name: stem, Path: path, Meta: extractMeta(values)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Meta.SavedAt > out[j].Meta.SavedAt
	})
	return out, nil
}

func (f *FileStore) DeleteSession(name string) error {
	return removeFile(f.sessionsDir, name)
}

// encodeValues marshals each value on its own so one unserializable value
// is coerced to its string form instead of failing the save.
func encodeValues(values map[string]any) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			logger.Warn("Value of %s is not serializable, storing as string: %v", k, err)
			data, _ = json.Marshal(fmt.Sprint(v))
		}
		out[k] = data
	}
	return out
}

func merge(s *state.Store, values map[string]any) {
	delete(values, metadataKey)
	if err := s.Merge(values); err != nil {
		logger.Warn("Some loaded values were skipped: %v", err)
	}
}

func extractMeta(values map[string]any) SessionMeta {
	var meta SessionMeta
	raw, ok := values[metadataKey].(map[string]any)
	if !ok {
		return meta
	}
	meta.SavedAt, _ = raw["saved_at"].(string)
	meta.ID, _ = raw["id"].(string)
	return meta
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSONFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

func listStems(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var stems []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		stems = append(stems, strings.TrimSuffix(e.Name(), ".json"))
	}
	return stems, nil
}

func removeFile(dir, name string) error {
	stem := SanitizeName(name)
	if stem == "" {
		return ErrEmptyName
	}
	err := os.Remove(filepath.Join(dir, stem+".json"))
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return err
}
