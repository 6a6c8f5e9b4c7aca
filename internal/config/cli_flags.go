package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy for the browser (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", DefaultTimeout.String(), "Hard timeout for a single search")
	cmd.PersistentFlags().String("render-timeout", DefaultRenderTimeout.String(), "How long to wait for result cards to render")
	cmd.PersistentFlags().String("user-agent", "", "Custom user agent string")
	cmd.PersistentFlags().StringArrayP("header", "H", []string{}, "Extra request headers (e.g., -H \"Accept-Language: en\")")
	cmd.PersistentFlags().StringP("driver", "d", DefaultDriver, "Browser driver: chromedp, rod, static, or auto")
	cmd.PersistentFlags().String("chrome-path", "", "Path to a Chrome/Chromium executable")
	cmd.PersistentFlags().Bool("no-headless", false, "Show the browser window")
	cmd.PersistentFlags().String("base-url", "", "Override the marketplace base URL")
	cmd.PersistentFlags().String("cache-ttl", "0s", "Reuse identical search results for this long (0 disables)")
}
