package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"agropulse/pkg/contracts/domain"
)

// rawColumns holds the indices of the raw-record columns in a header row.
type rawColumns struct {
	product     int
	date        int
	market      int
	description int
	sourceURL   int
}

func (c rawColumns) valid() bool {
	return c.product >= 0 && c.date >= 0 && c.market >= 0 && c.description >= 0
}

// ReadRawCSV reads raw records from a CSV file produced by the fetcher (or
// any file with compatible headers). A UTF-8 BOM is tolerated.
func ReadRawCSV(path string) ([]domain.RawRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file: %w", err)
	}
	content = stripBOM(content)

	reader := csv.NewReader(strings.NewReader(string(content)))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse raw CSV: %w", err)
	}

	return rowsToRawRecords(rows)
}

// ReadRawXLSX reads raw records from an Excel export with the same column
// headers as the CSV form. The first sheet containing the expected headers is
// used.
func ReadRawXLSX(path string) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}
		if cols := findRawColumns(rows[0]); cols.valid() {
			return rowsToRawRecords(rows)
		}
	}
	return nil, fmt.Errorf("no sheet with raw record headers found in %s", path)
}

func rowsToRawRecords(rows [][]string) ([]domain.RawRecord, error) {
	if len(rows) < 1 {
		return nil, fmt.Errorf("input has no header row")
	}
	cols := findRawColumns(rows[0])
	if !cols.valid() {
		return nil, fmt.Errorf("required columns not found in header: %v", rows[0])
	}

	records := make([]domain.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := domain.RawRecord{
			Product:     cell(row, cols.product),
			Date:        cell(row, cols.date),
			Market:      cell(row, cols.market),
			Description: cell(row, cols.description),
			SourceURL:   cell(row, cols.sourceURL),
		}
		if rec.Product == "" && rec.Description == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func findRawColumns(header []string) rawColumns {
	cols := rawColumns{product: -1, date: -1, market: -1, description: -1, sourceURL: -1}
	for i, name := range header {
		clean := strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		switch strings.ToLower(clean) {
		case "product", "produit":
			cols.product = i
		case "date":
			cols.date = i
		case "market", "marche", "marché":
			cols.market = i
		case "description":
			cols.description = i
		case "sourceurl", "source_url", "url":
			cols.sourceURL = i
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func stripBOM(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}
