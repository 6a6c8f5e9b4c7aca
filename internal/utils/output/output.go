// Package output renders search results for the terminal or for other tools.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/cargoplus/productbot/pkg/models"
)

// Supported output formats
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Formats lists the accepted --format values
var Formats = []string{FormatTable, FormatJSON, FormatCSV}

// Write renders results in the given format
func Write(w io.Writer, format string, results []models.SearchResult, color bool) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return WriteTable(w, results, color)
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatCSV:
		return WriteCSV(w, results)
	default:
		return fmt.Errorf("unknown output format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}
