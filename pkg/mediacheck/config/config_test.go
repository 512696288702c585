package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimits(t *testing.T) {
	l := DefaultLimits()

	assert.Equal(t, 15000, l.MaxTotalFiles)
	assert.Equal(t, 1000, l.MaxRootFolders)
	assert.Equal(t, 254, l.MaxFilesPerFolder)
	assert.Equal(t, 8, l.MaxNestingDepth)
	assert.Equal(t, 60, l.MaxPathLength)
	assert.Equal(t, 64, l.MaxFilenameLength)
	assert.Equal(t, 32, l.MinBitrateKbps)
	assert.Equal(t, 320, l.MaxBitrateKbps)
	assert.Equal(t, 144, l.ForbiddenBitrateKbps)
	assert.Equal(t, int64(750*1024), l.MaxAlbumArtBytes)
	assert.Equal(t, int64(32768), l.ClusterSizeBytes)
}

func TestLimitsNormalize(t *testing.T) {
	t.Run("zero values get defaults", func(t *testing.T) {
		var l Limits
		l.Normalize()
		assert.Equal(t, DefaultLimits(), l)
	})

	t.Run("set values survive", func(t *testing.T) {
		l := Limits{MaxTotalFiles: 100, MaxBitrateKbps: 256}
		l.Normalize()
		assert.Equal(t, 100, l.MaxTotalFiles)
		assert.Equal(t, 256, l.MaxBitrateKbps)
		assert.Equal(t, DefaultLimits().MaxRootFolders, l.MaxRootFolders)
	})
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultFormat, cfg.Format)
	assert.Equal(t, DefaultLimits(), cfg.Limits)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "mediacheck")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := `
workers: 8
format: csv
limits:
  max_total_files: 5000
  max_bitrate_kbps: 256
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, 5000, cfg.Limits.MaxTotalFiles)
	assert.Equal(t, 256, cfg.Limits.MaxBitrateKbps)
	// Unspecified limits fall back to defaults.
	assert.Equal(t, DefaultLimits().MaxRootFolders, cfg.Limits.MaxRootFolders)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MEDIACHECK_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestWriteDefault(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	require.NoError(t, WriteDefault())

	path := filepath.Join(configHome, "mediacheck", "config.yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_total_files: 15000")

	// A second call must not clobber an edited file.
	require.NoError(t, os.WriteFile(path, []byte("workers: 3\n"), 0o644))
	require.NoError(t, WriteDefault())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "workers: 3\n", string(data))
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")

	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-test/mediacheck", dir)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"tilde", "~/music", filepath.Join(home, "music")},
		{"absolute untouched", "/media/usb", "/media/usb"},
		{"relative untouched", "music", "music"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
