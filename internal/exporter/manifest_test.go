package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factlake/internal/config"
)

func writeArtifact(t *testing.T, paths *config.Paths, reportType, dataVersion, code string) {
	t.Helper()
	dir := paths.VersionDir(reportType, dataVersion)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, code+".json"), []byte(`{"security_code":"`+code+`"}`), 0o644))
}

func TestManifestRegenerate(t *testing.T) {
	ctx := context.Background()
	paths, err := config.NewPaths(filepath.Join(t.TempDir(), "dataset"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(paths.DatasetDir, 0o755))

	writeArtifact(t, paths, "annual", "2025FY", "4827")
	writeArtifact(t, paths, "annual", "2025FY", "7203")
	writeArtifact(t, paths, "quarterly", "2025Q3", "4827")

	gen := NewManifestGenerator(nil, paths)
	gen.now = func() time.Time {
		return time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	}

	path, err := gen.Regenerate(ctx)
	require.NoError(t, err)
	assert.Equal(t, paths.ManifestFile, path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var manifest DatasetManifest
	require.NoError(t, json.Unmarshal(raw, &manifest))

	assert.Equal(t, SchemaVersion, manifest.SchemaVersion)
	assert.Equal(t, "2025-08-30T12:00:00Z", manifest.GeneratedAt)
	assert.Equal(t, 3, manifest.TotalFiles)
	require.Len(t, manifest.Versions, 2)

	annual := manifest.Versions["annual/2025FY"]
	require.NotNil(t, annual)
	assert.Equal(t, 2, annual.FileCount)
	assert.Equal(t, []string{"4827.json", "7203.json"}, annual.Files)

	quarterly := manifest.Versions["quarterly/2025Q3"]
	require.NotNil(t, quarterly)
	assert.Equal(t, "quarterly", quarterly.ReportType)
	assert.Equal(t, "2025Q3", quarterly.DataVersion)
}

func TestManifestRegenerateEmptyDataset(t *testing.T) {
	ctx := context.Background()
	paths, err := config.NewPaths(filepath.Join(t.TempDir(), "dataset"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(paths.DatasetDir, 0o755))

	gen := NewManifestGenerator(nil, paths)
	path, err := gen.Regenerate(ctx)
	require.NoError(t, err)

	var manifest DatasetManifest
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &manifest))

	assert.Zero(t, manifest.TotalFiles)
	assert.Empty(t, manifest.Versions)
}

func TestManifestIgnoresNonArtifacts(t *testing.T) {
	ctx := context.Background()
	paths, err := config.NewPaths(filepath.Join(t.TempDir(), "dataset"))
	require.NoError(t, err)

	writeArtifact(t, paths, "annual", "2025FY", "4827")
	dir := paths.VersionDir("annual", "2025FY")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tmp"), 0o755))

	gen := NewManifestGenerator(nil, paths)
	_, err = gen.Regenerate(ctx)
	require.NoError(t, err)

	raw, err := os.ReadFile(paths.ManifestFile)
	require.NoError(t, err)
	var manifest DatasetManifest
	require.NoError(t, json.Unmarshal(raw, &manifest))

	assert.Equal(t, 1, manifest.TotalFiles)
	assert.Equal(t, []string{"4827.json"}, manifest.Versions["annual/2025FY"].Files)
}
