package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cargoplus/productbot/internal/app"
	"github.com/cargoplus/productbot/internal/engine"
	"github.com/cargoplus/productbot/internal/engine/dynamic"
	"github.com/cargoplus/productbot/internal/ui"
)

var launchCheck bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Show the effective configuration and check the browser",
	Example: `  # Print configuration and the Chrome that would be used
  productbot doctor

  # Also start and stop the browser once
  productbot doctor --launch`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&launchCheck, "launch", false, "Start and stop the configured driver once")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return fmt.Errorf("application not initialized")
	}

	w := cmd.OutOrStdout()
	cfg := a.Config
	site := a.Scraper.Site()

	section(w, "Search")
	row(w, "Site", site.Name)
	row(w, "Search URL", must(site.SearchURL("<query>")))
	row(w, "Card selector", site.CardSelector)
	row(w, "Title selector", site.TitleSelector)
	row(w, "Price selector", site.PriceSelector)
	row(w, "Timeout", cfg.Timeout.String())
	row(w, "Render timeout", cfg.RenderTimeout.String())
	row(w, "Cache TTL", cfg.CacheTTL.String())
	row(w, "Concurrency", fmt.Sprint(a.Batch.Concurrency()))

	section(w, "Browser")
	row(w, "Driver", a.Driver.Name())
	row(w, "Headless", fmt.Sprint(cfg.BrowserHeadless))
	if cfg.Proxy != "" {
		row(w, "Proxy", cfg.Proxy)
	}
	path := dynamic.FindChrome(cfg.ChromePath)
	if path == "" {
		row(w, "Chrome", colorize(w, ui.Error, "not found"))
	} else {
		row(w, "Chrome", path)
		row(w, "Version", dynamic.ChromeVersion(path))
	}

	if !launchCheck {
		fmt.Fprintln(w)
		return nil
	}

	section(w, "Launch")
	elapsed, err := checkLaunch(cmd.Context(), a)
	if err != nil {
		row(w, "Status", colorize(w, ui.Error, "failed"))
		return err
	}
	row(w, "Status", colorize(w, ui.Success, "ok"))
	row(w, "Startup", elapsed.Round(time.Millisecond).String())
	fmt.Fprintln(w)
	return nil
}

// checkLaunch starts one session of the configured driver and closes it
func checkLaunch(ctx context.Context, a *app.Application) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Config.Timeout)
	defer cancel()

	start := time.Now()
	session, err := a.Driver.Launch(ctx)
	if err != nil {
		if engine.KindOf(err) == "" {
			err = engine.NewScrapeError(engine.KindBrowserLaunchFailed, "failed to launch browser", err)
		}
		return 0, err
	}
	elapsed := time.Since(start)
	return elapsed, session.Close()
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n", colorize(w, ui.Bold, title))
}

func row(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %-16s %s\n", key+":", value)
}

func must(s string, err error) string {
	if err != nil {
		return err.Error()
	}
	return s
}
