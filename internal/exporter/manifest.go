package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"factlake/internal/config"
	"factlake/internal/errors"
)

// DatasetManifest is the dataset-wide index regenerated after each export.
// It gives downstream consumers a single document to discover available
// report types, data versions and artifacts.
type DatasetManifest struct {
	SchemaVersion string                   `json:"schema_version"`
	GeneratedAt   string                   `json:"generated_at"`
	TotalFiles    int                      `json:"total_files"`
	TotalSize     int64                    `json:"total_size"`
	Versions      map[string]*VersionEntry `json:"versions"`
}

// VersionEntry describes one (report_type, data_version) partition.
type VersionEntry struct {
	ReportType  string   `json:"report_type"`
	DataVersion string   `json:"data_version"`
	FileCount   int      `json:"file_count"`
	TotalSize   int64    `json:"total_size"`
	Files       []string `json:"files"`
}

// ManifestGenerator scans the dataset tree and writes manifest.json at its
// root. It implements ManifestWriter.
type ManifestGenerator struct {
	paths  *config.Paths
	logger *slog.Logger
	now    func() time.Time
}

// NewManifestGenerator creates a manifest generator over a dataset root.
func NewManifestGenerator(logger *slog.Logger, paths *config.Paths) *ManifestGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManifestGenerator{
		paths:  paths,
		logger: logger.With(slog.String("component", "manifest_generator")),
		now:    time.Now,
	}
}

// Regenerate rebuilds the manifest from the artifacts currently on disk and
// returns the manifest path.
func (g *ManifestGenerator) Regenerate(ctx context.Context) (string, error) {
	manifest := &DatasetManifest{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   g.now().UTC().Format("2006-01-02T15:04:05Z"),
		Versions:      make(map[string]*VersionEntry),
	}

	for _, reportType := range []string{"annual", "quarterly"} {
		reportDir := filepath.Join(g.paths.DatasetDir, reportType)
		versionDirs, err := os.ReadDir(reportDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", errors.NewStorageError("failed to read dataset directory", err).
				WithContext("dir", reportDir)
		}

		for _, versionDir := range versionDirs {
			if !versionDir.IsDir() {
				continue
			}
			entry, err := g.scanVersion(reportType, versionDir.Name())
			if err != nil {
				return "", err
			}
			if entry.FileCount == 0 {
				continue
			}
			manifest.Versions[reportType+"/"+versionDir.Name()] = entry
			manifest.TotalFiles += entry.FileCount
			manifest.TotalSize += entry.TotalSize
		}
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", errors.NewStorageError("failed to marshal dataset manifest", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(g.paths.ManifestFile, data, 0o644); err != nil {
		return "", errors.NewStorageError("failed to write dataset manifest", err).
			WithContext("path", g.paths.ManifestFile)
	}

	g.logger.DebugContext(ctx, "dataset manifest regenerated",
		slog.Int("total_files", manifest.TotalFiles),
		slog.Int("versions", len(manifest.Versions)))

	return g.paths.ManifestFile, nil
}

// scanVersion collects the artifacts of one data-version partition.
func (g *ManifestGenerator) scanVersion(reportType, dataVersion string) (*VersionEntry, error) {
	dir := g.paths.VersionDir(reportType, dataVersion)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError("failed to read version directory", err).
			WithContext("dir", dir)
	}

	entry := &VersionEntry{
		ReportType:  reportType,
		DataVersion: dataVersion,
		Files:       []string{},
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		info, err := file.Info()
		if err != nil {
			return nil, errors.NewStorageError("failed to stat artifact", err).
				WithContext("file", file.Name())
		}
		entry.Files = append(entry.Files, file.Name())
		entry.FileCount++
		entry.TotalSize += info.Size()
	}

	sort.Strings(entry.Files)
	return entry, nil
}
