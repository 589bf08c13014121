package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"songfetch/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputDir = "downloads"
	ReportFilename   = "songfetch-report.yaml"
)

// OutputDir owns the directory downloaded files and reports are written to.
type OutputDir struct {
	path string
}

// New creates an OutputDir for path.
//
// Parameters:
//   - path: Directory to write into. Uses DefaultOutputDir when empty.
//
// Returns:
//   - A pointer to a new OutputDir. Nothing is created until Prepare is called.
func New(path string) *OutputDir {
	if path == "" {
		path = DefaultOutputDir
	}
	return &OutputDir{path: path}
}

// Path returns the directory as configured.
func (o *OutputDir) Path() string {
	return o.path
}

// Prepare creates the directory if needed and returns its absolute path.
// Existing contents are left untouched.
func (o *OutputDir) Prepare() (string, error) {
	if err := os.MkdirAll(o.path, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	abs, err := filepath.Abs(o.path)
	if err != nil {
		return "", fmt.Errorf("resolve output directory: %w", err)
	}
	return abs, nil
}

// WriteReport stores result as YAML next to the downloaded files.
func (o *OutputDir) WriteReport(result models.BatchResult) (string, error) {
	data, err := yaml.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(o.path, ReportFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
