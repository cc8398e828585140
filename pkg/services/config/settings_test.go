package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults_ResolveAgainstRoot(t *testing.T) {
	// Given
	root := t.TempDir()

	// When
	s, err := Load(LoadOptions{Root: root})

	// Then
	require.NoError(t, err)
	assert.Equal(t, root, s.Root)
	assert.Equal(t, filepath.Join(root, "data"), s.DataDir)
	assert.Equal(t, filepath.Join(root, "logs"), s.LogDir)
	assert.Equal(t, filepath.Join(root, "reports"), s.ReportsDir)
	assert.Equal(t, filepath.Join(root, "templates"), s.TemplatesDir)
	assert.Equal(t, filepath.Join(root, "mountains.json"), s.MountainsFile)
	assert.Equal(t, filepath.Join(root, "local_samples"), s.OfflineSampleDir)
	assert.Equal(t, DefaultSources, s.Sources)
	assert.Equal(t, DefaultTimeout, s.Fetch.Timeout)
	assert.False(t, s.Offline)
	assert.Equal(t, filepath.Join(root, "logs", "cron.log"), s.CronLogPath())
}

func TestLoad_EnvOverrides(t *testing.T) {
	// Given
	root := t.TempDir()
	t.Setenv("BACKCOUNTRY_OFFLINE", "1")
	t.Setenv("BACKCOUNTRY_OFFLINE_SAMPLE_DIR", "samples")
	t.Setenv("BACKCOUNTRY_FETCH_TIMEOUT", "5s")
	t.Setenv("BACKCOUNTRY_WORKERS", "2")

	// When
	s, err := Load(LoadOptions{Root: root})

	// Then
	require.NoError(t, err)
	assert.True(t, s.Offline)
	assert.Equal(t, filepath.Join(root, "samples"), s.OfflineSampleDir)
	assert.Equal(t, 5*time.Second, s.Fetch.Timeout)
	assert.Equal(t, 2, s.Workers)
}

func TestLoad_OfflineFlag(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "yes", value: "yes", want: true},
		{name: "zero is still set", value: "0", want: true},
		{name: "true", value: "true", want: true},
		{name: "literal false", value: "FALSE", want: false},
		{name: "empty", value: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given
			root := t.TempDir()
			t.Setenv("BACKCOUNTRY_OFFLINE", tt.value)

			// When
			s, err := Load(LoadOptions{Root: root})

			// Then
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Offline)
		})
	}
}

func TestLoad_OfflineFromConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "backcountry.yaml"), []byte("offline: true\n"), 0o644))

	s, err := Load(LoadOptions{Root: root})

	require.NoError(t, err)
	assert.True(t, s.Offline)
}

func TestLoad_RootFromEnv(t *testing.T) {
	root := t.TempDir()
	t.Setenv("BACKCOUNTRY_ROOT", root)

	s, err := Load(LoadOptions{})

	require.NoError(t, err)
	assert.Equal(t, root, s.Root)
}

func TestLoad_ConfigFileInRoot(t *testing.T) {
	// Given
	root := t.TempDir()
	content := `data_dir: "/var/lib/backcountry"
workers: 8
sources:
  - snowforecast
fetch:
  user_agent: "test-agent"
publish:
  bucket: "reports-bucket"`
	require.NoError(t, os.WriteFile(filepath.Join(root, "backcountry.yaml"), []byte(content), 0o644))

	// When
	s, err := Load(LoadOptions{Root: root})

	// Then
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/backcountry", s.DataDir)
	assert.Equal(t, 8, s.Workers)
	assert.Equal(t, []string{"snowforecast"}, s.Sources)
	assert.Equal(t, "test-agent", s.Fetch.UserAgent)
	assert.Equal(t, "reports-bucket", s.Publish.Bucket)
}

func TestLoad_DotEnvInRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("BACKCOUNTRY_SERVER_PORT=9999\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("BACKCOUNTRY_SERVER_PORT") })

	s, err := Load(LoadOptions{Root: root})

	require.NoError(t, err)
	assert.Equal(t, "9999", s.Server.Port)
}

func TestLoad_InvalidExplicitConfig_ReturnsError(t *testing.T) {
	// Given
	root := t.TempDir()
	path := filepath.Join(root, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2"), 0o644))

	// When
	_, err := Load(LoadOptions{Root: root, ConfigFile: path})

	// Then
	assert.Error(t, err)
}

func TestLoad_InvalidWorkers_ReturnsError(t *testing.T) {
	root := t.TempDir()
	t.Setenv("BACKCOUNTRY_WORKERS", "0")

	_, err := Load(LoadOptions{Root: root})

	assert.ErrorContains(t, err, "workers")
}

func TestEnsureDirectories_CreatesDataLogsAndExtras(t *testing.T) {
	root := t.TempDir()
	s, err := Load(LoadOptions{Root: root})
	require.NoError(t, err)

	require.NoError(t, s.EnsureDirectories(s.ReportsDir))

	for _, dir := range []string{s.DataDir, s.LogDir, s.ReportsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
