package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the directories the service reads from and writes to. Every
// relative setting is resolved against BaseDir.
type Paths struct {
	BaseDir     string
	DatasetFile string
	ExportDir   string
	LogsDir     string
}

// GetPaths resolves the configured paths against baseDir. An empty baseDir
// means the working directory.
func (c *Config) GetPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	return &Paths{
		BaseDir:     base,
		DatasetFile: resolve(base, c.Dataset.Path),
		ExportDir:   resolve(base, c.Export.Dir),
		LogsDir:     resolve(base, DefaultLogsDir),
	}, nil
}

// EnsureDirectories creates the writable directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetExportPath returns the path for an export file
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportDir, filename)
}

// LogPathResolution logs the resolved paths
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("paths",
			slog.String("base", p.BaseDir),
			slog.String("dataset", p.DatasetFile),
			slog.String("exports", p.ExportDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Bool("dataset_exists", FileExists(p.DatasetFile)),
	)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
