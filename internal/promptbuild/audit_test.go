package promptbuild

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/state"
	"github.com/kayz/promptsmith/internal/structure"
)

func auditBuilder(dir, prefix string) *Builder {
	s := state.New()
	return NewBuilder(s, structure.New(s), config.PromptBuildConfig{
		AuditEnabled:       true,
		AuditDir:           dir,
		AuditRetentionDays: 7,
		AuditFilePrefix:    prefix,
	})
}

func TestBuildAppendsAuditRecordSameDay(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	b := auditBuilder(dir, "promptbuild")

	first := b.Build(ModeCombined)
	b.Build(ModeRoles)

	auditFile := filepath.Join(dir, "promptbuild-"+time.Now().Format("2006-01-02")+".jsonl")
	data, err := os.ReadFile(auditFile)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %d", len(lines))
	}

	var rec auditRecord
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal first line: %v", err)
	}
	if rec.Timestamp == "" || rec.ConfigDigest == "" {
		t.Fatalf("expected timestamp and config_digest to be set")
	}
	if rec.Mode != ModeCombined || rec.FinalPrompt != first.Text {
		t.Fatalf("unexpected record %#v", rec)
	}
	if rec.PromptDigest != digest([]byte(first.Text)) {
		t.Fatalf("prompt digest mismatch")
	}
	if len(rec.Sections) != len(first.Sections) {
		t.Fatalf("expected %d sections, got %v", len(first.Sections), rec.Sections)
	}
}

func TestAuditDisabledWritesNothing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "audit")
	b := auditBuilder(dir, "")
	b.cfg.AuditEnabled = false
	b.Build(ModeCombined)
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected no audit dir, got %v", err)
	}
}

func TestCleanupOldAuditFilesByDateAndModTime(t *testing.T) {
	dir := t.TempDir()
	auditDir := filepath.Join(dir, "audit")
	if err := os.MkdirAll(auditDir, 0755); err != nil {
		t.Fatalf("mkdir audit dir: %v", err)
	}

	now := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	prefix := "promptbuild"

	oldByName := filepath.Join(auditDir, prefix+"-2026-02-18.jsonl")
	if err := os.WriteFile(oldByName, []byte("old"), 0644); err != nil {
		t.Fatalf("write old-by-name file: %v", err)
	}

	newByName := filepath.Join(auditDir, prefix+"-2026-02-26.jsonl")
	if err := os.WriteFile(newByName, []byte("new"), 0644); err != nil {
		t.Fatalf("write new-by-name file: %v", err)
	}

	fallbackOld := filepath.Join(auditDir, prefix+"-not-a-date.jsonl")
	if err := os.WriteFile(fallbackOld, []byte("fallback"), 0644); err != nil {
		t.Fatalf("write fallback file: %v", err)
	}
	oldModTime := now.AddDate(0, 0, -10)
	if err := os.Chtimes(fallbackOld, oldModTime, oldModTime); err != nil {
		t.Fatalf("set fallback old modtime: %v", err)
	}

	b := auditBuilder(auditDir, prefix)

	if err := b.cleanupOldAuditFilesWithNow(now); err != nil {
		t.Fatalf("cleanup old audit files: %v", err)
	}

	if _, err := os.Stat(oldByName); !os.IsNotExist(err) {
		t.Fatalf("expected old-by-name file removed")
	}
	if _, err := os.Stat(newByName); err != nil {
		t.Fatalf("expected new-by-name file kept: %v", err)
	}
	if _, err := os.Stat(fallbackOld); !os.IsNotExist(err) {
		t.Fatalf("expected fallback old-modtime file removed")
	}
}
