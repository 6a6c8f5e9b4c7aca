package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine/batch"
	"github.com/cargoplus/productbot/internal/utils/output"
	"github.com/cargoplus/productbot/pkg/models"
)

var (
	maxResults  int
	format      string
	concurrency int
	noColor     bool
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query> [query...]",
	Short: "Search the marketplace and list matching products",
	Long: `Loads the marketplace search page for each query and prints the title
and price of the first result cards, in page order.

Several queries run concurrently, each in its own browser. A query that
matches nothing prints an empty list and is not an error.`,
	Example: `  # Top 5 laptops
  productbot search laptop

  # Only the first two results, as JSON
  productbot search "usb-c hub" --max 2 --format json

  # Several queries at once, without a browser
  productbot search laptop mouse keyboard --driver static --format csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVarP(&maxResults, "max", "n", config.DefaultMaxResults, "Maximum number of products per query")
	searchCmd.Flags().StringVarP(&format, "format", "f", output.FormatTable, "Output format: "+strings.Join(output.Formats, ", "))
	searchCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Queries to run at once (0 uses the configured limit)")
	searchCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored table output")
}

func runSearch(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	switch strings.ToLower(format) {
	case output.FormatTable, output.FormatJSON, output.FormatCSV:
	default:
		return fmt.Errorf("invalid format: %s (must be %s)", format, strings.Join(output.Formats, ", "))
	}

	runner := a.Batch
	if concurrency > 0 {
		runner = batch.New(a.Scraper, concurrency, a.Driver.Name() != string(models.DriverStatic))
	}

	var bar *progressbar.ProgressBar
	if len(args) > 1 && !a.Config.Quiet && isTerminal(os.Stderr) {
		bar = progressbar.NewOptions(len(args),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	log.Debug().
		Strs("queries", args).
		Int("max", maxResults).
		Str("driver", a.Driver.Name()).
		Msg("Running search")

	var results []models.SearchResult
	for r := range runner.Run(cmd.Context(), args, maxResults) {
		results = append(results, r)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	batch.Sort(results)

	var firstErr error
	failed := 0
	for _, r := range results {
		if r.Error == nil {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = r.Error
		}
		log.Error().Err(r.Error).Str("query", r.Query).Msg("Search failed")
	}

	// A lone failed query has nothing worth printing
	if len(results) == 1 && failed == 1 {
		return firstErr
	}

	color := !noColor && isTerminal(cmd.OutOrStdout())
	if err := output.Write(cmd.OutOrStdout(), format, results, color); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d searches failed: %w", failed, len(results), firstErr)
	}
	return nil
}
