// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cargoplus/productbot/internal/app"
	"github.com/cargoplus/productbot/internal/config"
	"github.com/cargoplus/productbot/internal/engine"
	"github.com/cargoplus/productbot/internal/ui"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "productbot",
	Short: "Search a product marketplace from the command line",
	Long: `Productbot searches the marketplace with a headless browser and prints
the title and price of the first matching product cards.

Pages are rendered in Chrome by default. Use --driver=static for plain HTTP
or --driver=auto to only start a browser when the page needs JavaScript.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with ctx and exits non-zero on failure.
// This is called by main.main().
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", colorize(os.Stderr, ui.Error, "Error:"), err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a failure to the process exit status
func exitCode(err error) int {
	if errors.Is(err, context.Canceled) {
		return 130
	}
	switch engine.KindOf(err) {
	case engine.KindBrowserLaunchFailed:
		return 3
	case engine.KindTimeout:
		return 4
	}
	return 1
}

func init() {
	// Initialize the application lazily so -h/--version never build it
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetAppFromCmd(cmd) != nil {
			return nil
		}

		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		SetApp(cmd, a)
		return nil
	}

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return nil
		}
		return a.Close(context.Background())
	}

	config.RegisterFlags(rootCmd)

	rootCmd.Flags().BoolP("help", "h", false, "Help for productbot")
	rootCmd.Flags().Bool("version", false, "Version for productbot")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(os.Stdout, cmd, true)
	})
	rootCmd.SetUsageFunc(func(cmd *cobra.Command) error {
		renderHelp(os.Stderr, cmd, false)
		return nil
	})
}

// colorize applies f only when w is a terminal
func colorize(w io.Writer, f func(string) string, s string) string {
	if isTerminal(w) {
		return f(s)
	}
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderHelp prints colorized help. The short form used for usage errors
// omits the description, examples and inherited flags.
func renderHelp(w io.Writer, cmd *cobra.Command, full bool) {
	heading := func(title string) {
		fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorWhite, title, ui.ColorReset)
	}

	if full {
		fmt.Fprintf(w, "\n%s%s%s\n", ui.ColorBold+ui.ColorCyan, strings.ToUpper(cmd.Name()), ui.ColorReset)
		if cmd.Short != "" {
			fmt.Fprintln(w, cmd.Short)
		}
		if cmd.Long != "" && cmd.Long != cmd.Short {
			fmt.Fprintf(w, "\n%s\n", wrapText(cmd.Long, 80))
		}
	}

	heading("Usage")
	if cmd.Runnable() {
		fmt.Fprintf(w, "  %s%s%s\n", ui.ColorCyan, cmd.UseLine(), ui.ColorReset)
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "  %s%s%s %s<command>%s %s[flags]%s\n",
			ui.ColorCyan, cmd.CommandPath(), ui.ColorReset,
			ui.ColorYellow, ui.ColorReset,
			ui.ColorDim, ui.ColorReset)
	}

	if full && cmd.HasExample() {
		heading("Examples")
		lastWasCommand := false
		for _, example := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(example)
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, "#") {
				if lastWasCommand {
					fmt.Fprintln(w)
				}
				fmt.Fprintf(w, "  %s%s%s\n", ui.ColorDim, trimmed, ui.ColorReset)
				lastWasCommand = false
			} else {
				fmt.Fprintf(w, "  %s$ %s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
				lastWasCommand = true
			}
		}
	}

	if cmd.HasAvailableSubCommands() {
		heading("Commands")
		var commands []*cobra.Command
		maxLen := 0
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() && c.Name() != "help" {
				commands = append(commands, c)
				maxLen = max(maxLen, len(c.Name()))
			}
		}
		for _, c := range commands {
			fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
				ui.ColorCyan, c.Name(), ui.ColorReset,
				strings.Repeat(" ", maxLen-len(c.Name())+2),
				ui.ColorDim, c.Short, ui.ColorReset)
		}
	}

	if cmd.HasAvailableLocalFlags() {
		heading("Flags")
		printFlags(w, cmd.LocalFlags().FlagUsages())
	}
	if full && cmd.HasAvailableInheritedFlags() {
		heading("Global Flags")
		printFlags(w, cmd.InheritedFlags().FlagUsages())
	}

	fmt.Fprintf(w, "\n%sUse \"%s%s%s %s--help%s\" for more information.%s\n",
		ui.ColorDim,
		ui.ColorCyan, cmd.CommandPath(), ui.ColorReset+ui.ColorDim,
		ui.ColorGreen, ui.ColorReset+ui.ColorDim,
		ui.ColorReset)
	if full {
		fmt.Fprintln(w)
	}
}

// printFlags prints flag usages with the flag names aligned and colored
func printFlags(w io.Writer, flagUsages string) {
	lines := strings.Split(flagUsages, "\n")

	width := 28
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if strings.HasPrefix(trimmed, "-") {
			flagPart := strings.TrimSpace(strings.SplitN(trimmed, "  ", 2)[0])
			width = max(width, len(flagPart))
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if !strings.HasPrefix(trimmed, "-") {
			// Continuation of the previous description
			fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", width+4), ui.ColorDim, trimmed, ui.ColorReset)
			continue
		}

		parts := strings.SplitN(trimmed, "  ", 2)
		if len(parts) != 2 {
			fmt.Fprintf(w, "  %s%s%s\n", ui.ColorGreen, trimmed, ui.ColorReset)
			continue
		}
		flagPart := strings.TrimSpace(parts[0])
		fmt.Fprintf(w, "  %s%s%s%s%s%s%s\n",
			ui.ColorGreen, flagPart, ui.ColorReset,
			strings.Repeat(" ", width-len(flagPart)+2),
			ui.ColorDim, strings.TrimSpace(parts[1]), ui.ColorReset)
	}
}

// wrapText wraps text at width while preserving paragraphs and list items
func wrapText(text string, width int) string {
	var paragraphs []string

	for _, para := range strings.Split(text, "\n\n") {
		words := []string{}
		var lines []string
		flush := func() {
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
				words = words[:0]
			}
		}

		for _, line := range strings.Split(para, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
				flush()
				lines = append(lines, trimmed)
				continue
			}
			for _, word := range strings.Fields(trimmed) {
				if n := len(strings.Join(words, " ")); len(words) > 0 && n+1+len(word) > width {
					flush()
				}
				words = append(words, word)
			}
		}
		flush()

		if len(lines) > 0 {
			paragraphs = append(paragraphs, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(paragraphs, "\n\n")
}
