package output

import (
	"encoding/csv"
	"io"

	"github.com/cargoplus/productbot/pkg/models"
)

var csvHeader = []string{"query", "title", "price", "source"}

// WriteCSV writes one row per product, prefixed with the query it came from
func WriteCSV(w io.Writer, results []models.SearchResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		for _, p := range r.Products {
			if err := writer.Write([]string{r.Query, p.Title, p.Price, p.Source}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
