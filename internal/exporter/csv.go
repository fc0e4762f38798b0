package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"agropulse/pkg/contracts/domain"
)

// CSVWriter writes tabular exports.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers []string
	Records [][]string
	Append  bool
	// BOMPrefix adds a UTF-8 BOM so Excel opens the file correctly.
	BOMPrefix bool
}

// WriteCSV writes rows to a CSV file, creating parent directories as needed.
func (w *CSVWriter) WriteCSV(path string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		"path", path,
		"record_count", len(options.Records))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	// csv.Writer surfaces flush failures only through Error.
	writer.Flush()
	return writer.Error()
}

var rawHeaders = []string{"Product", "Date", "Market", "Description", "SourceURL"}

// WriteRawRecords writes the fetcher output table.
func (w *CSVWriter) WriteRawRecords(path string, records []domain.RawRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Product, r.Date, r.Market, r.Description, r.SourceURL}
	}
	return w.WriteCSV(path, WriteOptions{Headers: rawHeaders, Records: rows, BOMPrefix: true})
}

var enrichedHeaders = []string{
	"Product", "ProductClean", "Date", "Market", "MarketClean",
	"Price", "Quantity", "Unit", "UnitPrice", "Origin", "Quality",
	"Month", "Year", "Quarter", "DayOfWeek", "Season",
	"ProductCategory", "PriceCategory", "Description", "SourceURL",
}

// WriteEnrichedRecords writes the full enriched table.
func (w *CSVWriter) WriteEnrichedRecords(path string, records []domain.EnrichedRecord) error {
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			r.Product, r.ProductClean, formatDate(r.Date), r.Market, r.MarketClean,
			formatFloat(r.Price), formatInt(r.Quantity), r.Unit, formatFloat(r.UnitPrice), r.Origin, r.Quality,
			strconv.Itoa(r.Month), strconv.Itoa(r.Year), strconv.Itoa(r.Quarter), strconv.Itoa(r.DayOfWeek), string(r.Season),
			r.ProductCategory, r.PriceCategory, r.Description, r.SourceURL,
		}
	}
	return w.WriteCSV(path, WriteOptions{Headers: enrichedHeaders, Records: rows, BOMPrefix: true})
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
