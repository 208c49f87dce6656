package cmd

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kayz/promptsmith/internal/persist"
	"github.com/kayz/promptsmith/internal/state"
)

// runCLI executes the root command against a config rooted in dir.
func runCLI(t *testing.T, dir string, args ...string) error {
	t.Helper()
	cfgPath := filepath.Join(dir, "promptsmith.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(cfgPath, []byte("storage:\n  dir: "+dir+"\n"), 0644))
	}
	rootCmd.SetArgs(append([]string{"--config", cfgPath, "--session", "cli-test"}, args...))
	return rootCmd.Execute()
}

func loadTestSession(t *testing.T, dir string) *state.Store {
	t.Helper()
	st := state.New()
	fs := persist.NewFileStore(filepath.Join(dir, "templates"), filepath.Join(dir, "sessions"))
	_, err := fs.LoadSession("cli-test", st)
	require.NoError(t, err)
	return st
}

func TestCriterionCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runCLI(t, dir, "criterion", "add", "critic", "Tone", "--weight", "9", "--description", "voice"))

	list := loadTestSession(t, dir).Criteria(state.KeyCriticCriteria)
	last := list[len(list)-1]
	require.Equal(t, state.Criterion{Name: "Tone", Description: "voice", Weight: 5}, last)

	require.ErrorIs(t, runCLI(t, dir, "criterion", "remove", "critic", "0"), state.ErrProtectedEntry)
	require.NoError(t, runCLI(t, dir, "criterion", "remove", "critic", "1"))
	require.Len(t, loadTestSession(t, dir).Criteria(state.KeyCriticCriteria), len(list)-1)
	require.ErrorIs(t, runCLI(t, dir, "criterion", "add", "judge", "x"), state.ErrUnknownList)
}

func TestMappingAndExampleCommands(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, runCLI(t, dir, "mapping", "add", "file", "name", "customer"))
	require.ErrorIs(t, runCLI(t, dir, "mapping", "add", "file", "name", "customer"), state.ErrDuplicateMapping)
	require.NoError(t, runCLI(t, dir, "mapping", "add", "file", "city", "town"))
	require.NoError(t, runCLI(t, dir, "mapping", "remove", "file", "0"))
	require.Equal(t, []state.Mapping{{Field: "city", Placeholder: "town"}},
		loadTestSession(t, dir).Mappings(state.KeyFileMappings))

	require.NoError(t, runCLI(t, dir, "example", "add", "in", "out"))
	n := len(loadTestSession(t, dir).Examples())
	require.NoError(t, runCLI(t, dir, "example", "update", strconv.Itoa(n-1), "in2", "out2"))
	require.Equal(t, state.Example{Input: "in2", Output: "out2"}, loadTestSession(t, dir).Examples()[n-1])
	require.ErrorIs(t, runCLI(t, dir, "example", "update", "99", "a", "b"), state.ErrIndexOutOfRange)
}
