package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agropulse/internal/config"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return New(config.DefaultTaxonomy())
}

func TestExtractor_Price(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"comma decimal before euro", "Tomate Cat.I - France 2,50 €", 2.50, true},
		{"dot decimal before euro", "Pomme 3.20 € le kg", 3.20, true},
		{"euro before amount", "Prix: € 12,00 la barquette", 12.00, true},
		{"pre-tax marker", "Carotte 1,80 € HT colis", 1.80, true},
		{"pre-tax currency first", "€ HT 4,75 plateau", 4.75, true},
		{"eur suffix", "Beurre 8.40 EUR", 8.40, true},
		{"integer euro", "Melon 3 €", 3, true},
		{"no price at all", "Tomate Cat.I - France no price listed", 0, false},
		{"empty description", "", 0, false},
		{"currency without amount", "prix en €", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Price(tt.text)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestExtractor_Quantity(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name     string
		text     string
		wantQty  int
		wantUnit string
		ok       bool
	}{
		{"kilograms", "Pomme de terre 25 kg - France", 25, "KG", true},
		{"grams do not shadow kilograms", "Beurre 250 g plaquette", 250, "G", true},
		{"millilitres before litres", "Crème 500 ml", 500, "ML", true},
		{"litres", "Lait 6 L", 6, "L", true},
		{"crate", "Fraise 1 barq - Espagne", 1, "BARQ", true},
		{"no quantity", "Tomate Cat.I - Espagne", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, unit := e.Quantity(tt.text)
			if !tt.ok {
				assert.Nil(t, qty)
				assert.Empty(t, unit)
				return
			}
			require.NotNil(t, qty)
			assert.Equal(t, tt.wantQty, *qty)
			assert.Equal(t, tt.wantUnit, unit)
		})
	}
}

func TestExtractor_Origin(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"simple country", "Tomate Cat.I - France 2,50 €", "FRANCE"},
		{"case insensitive", "orange maroc cal 4-5", "MAROC"},
		{"gazetteer order beats textual order", "Espagne puis France", "FRANCE"},
		{"no origin", "Tomate Cat.I 2,50 €", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Origin(tt.text))
		})
	}
}

func TestExtractor_Quality(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"category one", "Tomate Cat. I - France", "CAT. I"},
		{"category two not truncated", "Tomate cat.II - France", "CAT.II"},
		{"numeric grade", "Poire Cat. 2", "CAT. 2"},
		{"organic label", "Carotte bio 1,20 €", "BIO"},
		{"extra grade", "Fraise Extra 4,00 €", "EXTRA"},
		{"calibre range", "Pomme 70-75mm", "70-75MM"},
		{"no quality", "Poireau - France", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Quality(tt.text))
		})
	}
}

func TestExtractor_FieldsNeverFails(t *testing.T) {
	e := newTestExtractor(t)

	// Arbitrary junk must degrade to all-nil fields, never panic or error.
	for _, text := range []string{"", "   ", "€€€", "42", "no data here", "���"} {
		fields := e.Fields(text)
		assert.Nil(t, fields.Price, "text %q", text)
		assert.Nil(t, fields.Quantity, "text %q", text)
	}
}

func TestExtractor_FieldsCombined(t *testing.T) {
	e := newTestExtractor(t)

	fields := e.Fields("Tomate Cat.I - France 2,50 € le colis de 5 kg")

	require.NotNil(t, fields.Price)
	assert.InDelta(t, 2.50, *fields.Price, 1e-9)
	require.NotNil(t, fields.Quantity)
	assert.Equal(t, 5, *fields.Quantity)
	assert.Equal(t, "KG", fields.Unit)
	assert.Equal(t, "FRANCE", fields.Origin)
	assert.Equal(t, "CAT.I", fields.Quality)
}
