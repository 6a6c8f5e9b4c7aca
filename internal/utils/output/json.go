package output

import (
	"encoding/json"
	"io"

	"github.com/cargoplus/productbot/pkg/models"
)

// WriteJSON writes results as indented JSON. A single search is written as a
// bare product list; several are written as {query, products} objects.
func WriteJSON(w io.Writer, results []models.SearchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if len(results) == 1 {
		return enc.Encode(nonNil(results[0].Products))
	}

	export := make([]models.SearchResult, len(results))
	for i, r := range results {
		export[i] = r
		export[i].Products = nonNil(r.Products)
	}
	return enc.Encode(export)
}

func nonNil(products []models.Product) []models.Product {
	if products == nil {
		return []models.Product{}
	}
	return products
}
