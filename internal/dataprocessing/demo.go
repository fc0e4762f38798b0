package dataprocessing

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"agropulse/pkg/contracts/domain"
)

type demoProduct struct {
	name      string
	basePrice float64
	unit      string
	origins   []string
	qualities []string
}

var demoProducts = []demoProduct{
	{"Tomate ronde", 2.50, "KG", []string{"FRANCE", "ESPAGNE", "MAROC"}, []string{"CAT.I", "CAT.II", "EXTRA"}},
	{"Pomme Golden", 1.80, "KG", []string{"FRANCE", "ITALIE"}, []string{"CAT.I", "CAT.II"}},
	{"Fraise gariguette", 8.90, "BARQ", []string{"FRANCE", "ESPAGNE"}, []string{"CAT.I", "EXTRA"}},
	{"Courgette verte", 1.95, "KG", []string{"FRANCE", "ESPAGNE"}, []string{"CAT.I", "CAT.II"}},
	{"Salade batavia", 0.85, "PIECE", []string{"FRANCE"}, []string{"CAT.I"}},
	{"Carotte lavée", 1.20, "KG", []string{"FRANCE", "BELGIQUE"}, []string{"CAT.I", "CAT.II"}},
	{"Poire conférence", 2.30, "KG", []string{"FRANCE", "BELGIQUE", "PAYS-BAS"}, []string{"CAT.I"}},
	{"Melon charentais", 2.10, "PIECE", []string{"FRANCE", "ESPAGNE", "MAROC"}, []string{"CAT.I", "EXTRA"}},
	{"Abricot orangé", 3.40, "KG", []string{"FRANCE", "ESPAGNE"}, []string{"CAT.I", "CAT.II"}},
	{"Poivron rouge", 2.80, "KG", []string{"ESPAGNE", "MAROC"}, []string{"CAT.I"}},
}

var demoMarkets = []string{
	"MIN de Rungis",
	"Marché de Lyon-Corbas",
	"MIN de Nantes",
	"Marché de Bordeaux-Brienne",
}

// GenerateDemoRecords builds a reproducible batch of raw records covering the
// given number of days up to the until date: a pure function of its
// parameters, so the same seed, day count and reference date always yield the
// same batch. Descriptions carry the price, quantity, origin and quality in
// the textual forms the extractor recognizes, and a small share of records is
// left without a usable price to mirror real pages.
func GenerateDemoRecords(seed int64, days int, until time.Time) []domain.RawRecord {
	rng := rand.New(rand.NewSource(seed))
	if days <= 0 {
		days = 30
	}

	start := until.AddDate(0, 0, -days)
	records := make([]domain.RawRecord, 0, days*len(demoProducts))

	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("02-01-2006")
		for _, p := range demoProducts {
			// Seasonal drift plus day-to-day noise around the base price.
			seasonal := 0.15 * p.basePrice * float64(d%30) / 30.0
			noise := (rng.Float64() - 0.5) * 0.4 * p.basePrice
			price := p.basePrice + seasonal + noise
			if price < 0.10 {
				price = 0.10
			}

			origin := p.origins[rng.Intn(len(p.origins))]
			quality := p.qualities[rng.Intn(len(p.qualities))]
			market := demoMarkets[rng.Intn(len(demoMarkets))]
			qty := 1 + rng.Intn(10)

			desc := fmt.Sprintf("%s %s %s %s € HT le colis de %d %s",
				quality, origin, p.name, formatDemoPrice(price), qty, p.unit)
			if rng.Float64() < 0.05 {
				// Occasional listing with no quoted price.
				desc = fmt.Sprintf("%s %s %s cours non coté", quality, origin, p.name)
			}

			records = append(records, domain.RawRecord{
				Product:     p.name,
				Date:        date,
				Market:      market,
				Description: desc,
				SourceURL:   "demo://agropulse",
			})
		}
	}
	return records
}

// formatDemoPrice renders the price with a comma decimal, as printed on the
// source pages.
func formatDemoPrice(price float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", price), ".", ",", 1)
}
