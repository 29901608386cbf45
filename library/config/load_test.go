package config

import (
	"os"
	"path/filepath"
	"testing"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "settings.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("settings:\n  auth:\n    secret: s3cr3t\n"), 0o600))

	require.NoError(t, LoadFromFile(cfgPath))
	require.Equal(t, "s3cr3t", gconfig.Shared.GetString("settings.auth.secret"))
	require.Equal(t, dir, gconfig.Shared.GetString("cfg_dir"))

	require.Equal(t, filepath.Join(dir, "uploads"), ResolvePath("uploads"))
	require.Equal(t, "/var/uploads", ResolvePath("/var/uploads"))
	require.Equal(t, "", ResolvePath(""))
}

func TestLoadFromFileMissing(t *testing.T) {
	err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "nope.yml")
}
