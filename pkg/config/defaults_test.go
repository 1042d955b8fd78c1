package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Load(NewViper())

	if cfg.Format != DefaultFormat {
		t.Errorf("Expected Format %q, got %q", DefaultFormat, cfg.Format)
	}
	if cfg.OutputPath != "" {
		t.Errorf("Expected stdout output by default, got %q", cfg.OutputPath)
	}
	if cfg.HistoryPath != "" {
		t.Error("History must be disabled by default")
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("FILEALLOC_FILES", "in/files.txt")
	t.Setenv("FILEALLOC_JSON_LOGS", "true")

	cfg := Load(NewViper())
	assert.Equal(t, "in/files.txt", cfg.FilesPath)
	assert.True(t, cfg.JSONLogs)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filealloc.yaml")
	data := "files: files.txt\nnodes: s3://bucket/nodes.txt\nformat: csv\nsummary: true\nno-telemetry: true\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	v := NewViper()
	require.NoError(t, ReadFile(v, path))

	cfg := Load(v)
	assert.Equal(t, Config{
		FilesPath:     "files.txt",
		NodesPath:     "s3://bucket/nodes.txt",
		Format:        "csv",
		Summary:       true,
		SkipTelemetry: true,
	}, cfg)
}

func TestReadFile_MissingExplicit(t *testing.T) {
	err := ReadFile(NewViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
