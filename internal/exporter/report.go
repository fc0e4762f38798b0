package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"agropulse/pkg/contracts/domain"
)

// WriteReportBundle writes the consolidated analytics report as indented
// JSON.
func WriteReportBundle(path string, bundle *domain.ReportBundle) error {
	return writeJSON(path, bundle)
}

// WriteCoverage writes the normalization coverage summary as indented JSON.
func WriteCoverage(path string, stats domain.CoverageStats) error {
	return writeJSON(path, stats)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
