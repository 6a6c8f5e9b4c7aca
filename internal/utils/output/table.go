package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cargoplus/productbot/internal/ui"
	"github.com/cargoplus/productbot/pkg/models"
)

// WriteTable writes a human-readable listing grouped by query. Failed
// searches are listed with their error so the other results stay visible.
func WriteTable(w io.Writer, results []models.SearchResult, color bool) error {
	style := func(f func(string) string, s string) string {
		if color {
			return f(s)
		}
		return s
	}

	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", style(ui.Bold, "Search:"), r.Query)

		if r.Error != nil {
			fmt.Fprintf(w, "  %s\n", style(ui.Error, "error: "+r.Error.Error()))
			continue
		}
		if len(r.Products) == 0 {
			fmt.Fprintf(w, "  %s\n", style(ui.Info, "no products found"))
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  #\tTITLE\tPRICE\tSOURCE")
		for j, p := range r.Products {
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\n", j+1, orDash(p.Title), orDash(p.Price), p.Source)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
