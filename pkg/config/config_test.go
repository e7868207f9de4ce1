package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apitrail.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
root = "/repo"
output = "/out"
workers = 3
archive_extensions = ["jar", "war"]
cache_dir = "/cache"

[log]
format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/repo", cfg.Root)
	assert.Equal(t, "/out", cfg.Output)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, []string{"jar", "war"}, cfg.ArchiveExtensions)
	assert.Equal(t, "/cache", cfg.CacheDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep their defaults")
	require.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "root = \"/r\"\nthreads = 4\n[log]\ncolor = true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threads")
	assert.Contains(t, err.Error(), "log.color")
}

func TestLoadBadSyntax(t *testing.T) {
	_, err := Load(writeConfig(t, "root = \n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Config{
		Workers:           -1,
		MaxArchives:       -2,
		ArchiveExtensions: []string{"."},
		Log:               Log{Level: "loud", Format: "xml"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"root", "output", "workers", "max_archives", "empty extension", "log.level", "log.format"} {
		assert.Contains(t, err.Error(), want)
	}

	cfg = Default()
	cfg.ArchiveExtensions = nil
	assert.Contains(t, cfg.Validate().Error(), "archive_extensions must not be empty")
}

func TestEffectiveWorkers(t *testing.T) {
	assert.Equal(t, 5, Config{Workers: 5}.EffectiveWorkers())
	assert.Equal(t, runtime.NumCPU(), Config{}.EffectiveWorkers())
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, Log{Level: "warn", Format: "json"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("skipping archive", "archive", "a.jar")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "skipping archive", rec["msg"])
	assert.Equal(t, "a.jar", rec["archive"])
}

func TestNewLoggerLogfmt(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, Log{Level: "DEBUG", Format: "logfmt"})
	require.NoError(t, err)
	logger.Debug("archive decoded", "public", 2)
	assert.Contains(t, buf.String(), "public=2")
}

func TestNewLoggerRejectsUnknownValues(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, Log{Level: "loud", Format: "text"})
	assert.Error(t, err)
	_, err = NewLogger(&bytes.Buffer{}, Log{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
