package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	body := `Cotations du 15-03-2025
Marché de gros

Tomate ronde cat.I France 2,50 € HT le colis de 5 kg
Pomme Golden Italie 1,80 € le kg
Rubrique sans prix
`
	records := parsePage("Cours fruits et légumes - MIN de Rungis", body, "https://example.test/prix")

	require.Len(t, records, 2)
	first := records[0]
	assert.Equal(t, "15-03-2025", first.Date)
	assert.Equal(t, "MIN de Rungis", first.Market)
	assert.Contains(t, first.Description, "2,50 € HT")
	assert.Equal(t, "https://example.test/prix", first.SourceURL)
	assert.True(t, len(first.Product) > 0)

	assert.Contains(t, records[1].Description, "1,80 €")
}

func TestParsePage_NoRows(t *testing.T) {
	records := parsePage("Page vide", "rien à coter aujourd'hui", "https://example.test")
	assert.Empty(t, records)
}

func TestMarketFromTitle(t *testing.T) {
	assert.Equal(t, "MIN de Nantes", marketFromTitle("Cours tomate - MIN de Nantes"))
	assert.Equal(t, "RNM", marketFromTitle("Cours tomate"))
	assert.Equal(t, "RNM", marketFromTitle(""))
}
