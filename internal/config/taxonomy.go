package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Taxonomy is the declarative classification data used by the extraction and
// enrichment stages: product categories with their keyword lists, ordered
// price bands, the quantity unit vocabulary and the origin gazetteer. It is
// data, not logic, so deployments can extend it from a YAML file without
// touching the pipeline code.
type Taxonomy struct {
	// Categories are evaluated in order; the first category with a keyword
	// contained in the lower-cased product name wins.
	Categories []ProductCategory `yaml:"categories"`

	// PriceBands are evaluated in order; the first band whose upper bound
	// exceeds the price wins. A non-positive UpTo means unbounded.
	PriceBands []PriceBand `yaml:"price_bands"`

	// Units is the quantity unit vocabulary, matched uppercase after the
	// quantity integer. Order matters: longer tokens must come first so that
	// "12 ML" does not match unit "L".
	Units []string `yaml:"units"`

	// Origins is the country gazetteer, matched as uppercase substrings in
	// declaration order. Ambiguous text containing several countries resolves
	// to gazetteer order, not textual order.
	Origins []string `yaml:"origins"`
}

// ProductCategory maps a category name to its keyword list.
type ProductCategory struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// PriceBand is a single non-overlapping price bin.
type PriceBand struct {
	Label string  `yaml:"label"`
	UpTo  float64 `yaml:"up_to"`
}

// DefaultTaxonomy returns the built-in taxonomy matching the source site's
// product and description conventions.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Categories: []ProductCategory{
			{Name: "Vegetables", Keywords: []string{"tomate", "carotte", "salade", "chou", "poivr", "oignon", "ail", "courgette", "aubergine", "pomme de terre", "haricot", "poireau"}},
			{Name: "Fruits", Keywords: []string{"pomme", "poire", "orange", "citron", "fraise", "cerise", "pêche", "banane", "kiwi", "raisin", "melon"}},
			{Name: "Meat", Keywords: []string{"bœuf", "boeuf", "porc", "veau", "agneau", "poulet", "dinde", "canard", "lapin"}},
			{Name: "Dairy", Keywords: []string{"beurre", "fromage", "œuf", "oeuf", "lait", "yaourt", "crème"}},
		},
		PriceBands: []PriceBand{
			{Label: "<2", UpTo: 2},
			{Label: "2-5", UpTo: 5},
			{Label: "5-10", UpTo: 10},
			{Label: "10-20", UpTo: 20},
			{Label: ">=20", UpTo: 0},
		},
		Units: []string{"KG", "ML", "G", "L", "PIECE", "BARQ", "COLIS", "PLATEAU"},
		Origins: []string{
			"FRANCE", "ESPAGNE", "MAROC", "ITALIE", "BELGIQUE", "PAYS-BAS",
			"TUNISIE", "U.E.", "UE", "ALLEMAGNE", "PORTUGAL", "GRÈCE",
		},
	}
}

// LoadTaxonomy loads a taxonomy from a YAML file, falling back to the
// defaults for any section the file leaves empty.
func LoadTaxonomy(path string) (Taxonomy, error) {
	tax := DefaultTaxonomy()

	data, err := os.ReadFile(path)
	if err != nil {
		return tax, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var fileTax Taxonomy
	if err := yaml.Unmarshal(data, &fileTax); err != nil {
		return tax, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}

	if len(fileTax.Categories) > 0 {
		tax.Categories = fileTax.Categories
	}
	if len(fileTax.PriceBands) > 0 {
		tax.PriceBands = fileTax.PriceBands
	}
	if len(fileTax.Units) > 0 {
		tax.Units = fileTax.Units
	}
	if len(fileTax.Origins) > 0 {
		tax.Origins = fileTax.Origins
	}

	return tax, nil
}

// BandFor returns the label of the first band containing price. The final
// band with a non-positive bound is treated as unbounded.
func (t Taxonomy) BandFor(price float64) string {
	for _, band := range t.PriceBands {
		if band.UpTo <= 0 || price < band.UpTo {
			return band.Label
		}
	}
	return ""
}

// CategoryFor returns the first category whose keyword list contains a
// substring of the lower-cased name, or empty when none match.
func (t Taxonomy) CategoryFor(lowerName string) string {
	for _, cat := range t.Categories {
		for _, kw := range cat.Keywords {
			if kw != "" && strings.Contains(lowerName, kw) {
				return cat.Name
			}
		}
	}
	return ""
}
