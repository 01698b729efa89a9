package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the application paths.
// This is the single source of truth for file paths in the application:
// exported artifacts, the dataset manifest and logs all resolve through it.
type Paths struct {
	// DatasetDir is the root of the versioned dataset tree:
	// {DatasetDir}/{report_type}/{data_version}/{security_code}.json
	DatasetDir string

	// ManifestFile is the dataset-wide manifest written after each export.
	ManifestFile string

	// LogsDir holds application log files.
	LogsDir string
}

// NewPaths builds the path set for a dataset root. Relative roots are
// resolved against the current working directory.
func NewPaths(datasetDir string) (*Paths, error) {
	if datasetDir == "" {
		return nil, fmt.Errorf("dataset dir must not be empty")
	}

	abs, err := filepath.Abs(datasetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dataset dir: %w", err)
	}

	return &Paths{
		DatasetDir:   abs,
		ManifestFile: filepath.Join(abs, "manifest.json"),
		LogsDir:      filepath.Join(filepath.Dir(abs), "logs"),
	}, nil
}

// ArtifactPath returns the artifact location for one exported record.
func (p *Paths) ArtifactPath(reportType, dataVersion, securityCode string) string {
	return filepath.Join(p.DatasetDir, reportType, dataVersion, securityCode+".json")
}

// VersionDir returns the directory holding one data version of a report type.
func (p *Paths) VersionDir(reportType, dataVersion string) string {
	return filepath.Join(p.DatasetDir, reportType, dataVersion)
}

// EnsureDirectories creates the base directories if they do not exist.
// Creation is idempotent.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DatasetDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetLogPath returns the full path for a log file name.
func (p *Paths) GetLogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
