package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agropulse/pkg/contracts/domain"
)

func TestWriteEnrichedRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reports", "enriched_prices.csv")

	date := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	price := 2.5
	qty := 5
	unitPrice := 0.5
	records := []domain.EnrichedRecord{
		{
			NormalizedRecord: domain.NormalizedRecord{
				Product:      "tomate ronde",
				ProductClean: "Tomate Ronde",
				MarketClean:  "Rungis",
				Date:         &date,
				Price:        &price,
				Quantity:     &qty,
				Unit:         "KG",
				UnitPrice:    &unitPrice,
				Origin:       "FRANCE",
			},
			Month:           3,
			Year:            2025,
			Quarter:         1,
			Season:          domain.SeasonSpring,
			ProductCategory: "Vegetables",
			PriceCategory:   "2-5",
		},
		{
			NormalizedRecord: domain.NormalizedRecord{ProductClean: "Chou"},
			PriceCategory:    domain.PriceBandUnavailable,
		},
	}

	w := NewCSVWriter(nil)
	require.NoError(t, w.WriteEnrichedRecords(path, records))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "\xEF\xBB\xBF"), "BOM expected")

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(content), "\xEF\xBB\xBF")))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, enrichedHeaders, rows[0])
	assert.Equal(t, "Tomate Ronde", rows[1][1])
	assert.Equal(t, "2025-03-15", rows[1][2])
	assert.Equal(t, "2.50", rows[1][5])
	assert.Equal(t, "0.50", rows[1][8])
	assert.Equal(t, "Spring", rows[1][15])

	// Nil numeric fields export as empty cells.
	assert.Equal(t, "", rows[2][2])
	assert.Equal(t, "", rows[2][5])
	assert.Equal(t, domain.PriceBandUnavailable, rows[2][17])
}

func TestWriteCSVReportsFlushFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	w := NewCSVWriter(nil)
	// Rows small enough to stay buffered until the final flush.
	err := w.WriteCSV("/dev/full", WriteOptions{
		Headers: []string{"Product"},
		Records: [][]string{{"Tomate Ronde"}},
	})
	require.Error(t, err)
}

func TestWriteReportBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "analytics_report.json")

	bundle := &domain.ReportBundle{
		ID:          "report-1",
		GeneratedAt: time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC),
		Sentiment: []domain.SentimentRow{
			{Product: "Tomate Ronde", Score: 55.5, Observations: 12},
		},
	}
	require.NoError(t, WriteReportBundle(path, bundle))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded domain.ReportBundle
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "report-1", decoded.ID)
	require.Len(t, decoded.Sentiment, 1)
	assert.Equal(t, "Tomate Ronde", decoded.Sentiment[0].Product)
}
