package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kayz/promptsmith/internal/config"
)

func TestConfigInitWritesDefaults(t *testing.T) {
	t.Setenv("PROMPTSMITH_ADDR", "")
	path := filepath.Join(t.TempDir(), "conf", "promptsmith.yaml")

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig().Server.Addr, cfg.Server.Addr)

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	require.Error(t, rootCmd.Execute())
}
