package persist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kayz/promptsmith/internal/state"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	return NewFileStore(filepath.Join(dir, "templates"), filepath.Join(dir, "sessions"))
}

func TestSanitizeName(t *testing.T) {
	require.Equal(t, "My_Template", SanitizeName(" My Template "))
	require.Equal(t, "a_b_c", SanitizeName("a/b\\c.json"))
	require.Equal(t, "", SanitizeName(".."))
}

func TestTemplateRoundTripKeepsSubset(t *testing.T) {
	fs := newFileStore(t)
	src := state.New()
	require.NoError(t, src.Set(state.KeyContext, "ctx"))
	require.NoError(t, src.Set(state.KeyGraphQLEndpoint, "https://api.example.com/graphql"))
	require.NoError(t, src.Set(state.KeyExamples, []state.Example{{Input: "in", Output: "out"}}))

	path, err := fs.SaveTemplate("My Template", src)
	require.NoError(t, err)
	require.Equal(t, "My_Template.json", filepath.Base(path))

	dst := state.New()
	require.NoError(t, fs.LoadTemplate("My Template", dst))
	require.Equal(t, "ctx", dst.String(state.KeyContext))
	require.Equal(t, []state.Example{{Input: "in", Output: "out"}}, dst.Examples())
	require.False(t, dst.Has(state.KeyGraphQLEndpoint))

	names, err := fs.ListTemplates()
	require.NoError(t, err)
	require.Equal(t, []string{"My Template"}, names)

	require.NoError(t, fs.DeleteTemplate("My Template"))
	require.ErrorIs(t, fs.DeleteTemplate("My Template"), ErrNotFound)
	require.ErrorIs(t, fs.LoadTemplate("missing", dst), ErrNotFound)
}

func TestSaveSessionAutoNameAndMetadata(t *testing.T) {
	fs := newFileStore(t)
	fs.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.Local) }

	src := state.New()
	src.Init()
	require.NoError(t, src.Set(state.KeyTask, "summarize"))
	require.NoError(t, src.Set(state.KeyContext, ""))
	require.NoError(t, src.Set("custom_note", "kept"))

	info, err := fs.SaveSession("", src)
	require.NoError(t, err)
	require.Equal(t, "state_20260102_030405", info.Name)
	require.NotEmpty(t, info.Meta.ID)
	require.Equal(t, "2026-01-02T03:04:05.000000", info.Meta.SavedAt)

	dst := state.New()
	require.NoError(t, dst.Set(state.KeyContext, "replaced"))
	meta, err := fs.LoadSession(info.Name, dst)
	require.NoError(t, err)
	require.Equal(t, info.Meta, meta)
	require.Equal(t, "summarize", dst.String(state.KeyTask))
	require.Equal(t, "kept", dst.String("custom_note"))
	require.Equal(t, "", dst.String(state.KeyContext))
	require.False(t, dst.Has(metadataKey))
}

func TestLoadSessionLeavesAbsentKeys(t *testing.T) {
	fs := newFileStore(t)
	require.NoError(t, os.MkdirAll(fs.sessionsDir, 0755))
	data := `{"task": "from file", "__metadata__": {"saved_at": "x", "id": "1"}}`
	require.NoError(t, os.WriteFile(filepath.Join(fs.sessionsDir, "partial.json"), []byte(data), 0644))

	dst := state.New()
	require.NoError(t, dst.Set(state.KeyContext, "mine"))
	_, err := fs.LoadSession("partial", dst)
	require.NoError(t, err)
	require.Equal(t, "from file", dst.String(state.KeyTask))
	require.Equal(t, "mine", dst.String(state.KeyContext))
}

func TestListSessionsNewestFirst(t *testing.T) {
	fs := newFileStore(t)
	s := state.New()
	times := []time.Time{
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	for i, ts := range times {
		fs.now = func() time.Time { return ts }
		_, err := fs.SaveSession([]string{"first", "third", "second"}[i], s)
		require.NoError(t, err)
	}

	list, err := fs.ListSessions()
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "third", list[0].Name)
	require.Equal(t, "second", list[1].Name)
	require.Equal(t, "first", list[2].Name)

	require.True(t, fs.SessionExists("first"))
	require.NoError(t, fs.DeleteSession("first"))
	require.False(t, fs.SessionExists("first"))
}

func TestUnserializableValueIsStoredAsString(t *testing.T) {
	fs := newFileStore(t)
	s := state.New()
	require.NoError(t, s.Set("odd", make(chan int)))

	info, err := fs.SaveSession("odd", s)
	require.NoError(t, err)

	dst := state.New()
	_, err = fs.LoadSession(info.Name, dst)
	require.NoError(t, err)
	v, ok := dst.Get("odd")
	require.True(t, ok)
	require.IsType(t, "", v)
}
