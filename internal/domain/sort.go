package domain

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortProductsBySKU orders products by SKU using a numeric-aware,
// case-insensitive collation so that "SKU-2" sorts before "SKU-10".
func SortProductsBySKU(products []Product) {
	c := collate.New(language.Und, collate.Numeric, collate.Loose)
	sort.SliceStable(products, func(i, j int) bool {
		return c.CompareString(products[i].SKU, products[j].SKU) < 0
	})
}
