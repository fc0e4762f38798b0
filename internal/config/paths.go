package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathsConfig contains file system paths configuration.
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
}

// Paths resolves the well-known files of the pipeline relative to the
// configured data directories.
type Paths struct {
	DataDir    string
	ReportsDir string
}

// NewPaths builds a Paths from configuration, creating the directories if
// they do not exist yet.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	p := &Paths{
		DataDir:    cfg.DataDir,
		ReportsDir: cfg.ReportsDir,
	}
	for _, dir := range []string{p.DataDir, p.ReportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return p, nil
}

// RawCSV is the file the fetcher writes and the processor reads.
func (p *Paths) RawCSV() string {
	return filepath.Join(p.DataDir, "raw_prices.csv")
}

// EnrichedCSV is the normalized+enriched table written by the processor.
func (p *Paths) EnrichedCSV() string {
	return filepath.Join(p.ReportsDir, "enriched_prices.csv")
}

// DatabaseFile is the SQLite store holding enriched records.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "agropulse.db")
}

// ReportJSON is the consolidated analytics bundle written by the reporter.
func (p *Paths) ReportJSON() string {
	return filepath.Join(p.ReportsDir, "analytics_report.json")
}

// CoverageJSON is the normalization coverage summary written by the processor.
func (p *Paths) CoverageJSON() string {
	return filepath.Join(p.ReportsDir, "coverage.json")
}
