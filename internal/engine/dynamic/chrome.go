package dynamic

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog/log"
)

// browserNames are looked up on PATH when no install location matches
var browserNames = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
}

// installPaths lists where Chrome or Chromium usually lives on goos
func installPaths(goos, home string) []string {
	switch goos {
	case "darwin":
		paths := []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
		if home != "" {
			paths = append(paths, filepath.Join(home, "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"))
		}
		return paths
	case "linux":
		return []string{
			"/usr/bin/google-chrome-stable",
			"/usr/bin/google-chrome",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	}
	return nil
}

// FindChrome returns the browser binary to launch, or "" to let the driver
// use its own lookup. The explicit path wins, then CHROME_PATH, then known
// install locations, then PATH.
func FindChrome(explicit string) string {
	for _, c := range []struct{ path, from string }{
		{explicit, "config"},
		{os.Getenv("CHROME_PATH"), "CHROME_PATH"},
	} {
		if c.path == "" {
			continue
		}
		if isExecutable(c.path) {
			return c.path
		}
		log.Warn().Str("path", c.path).Str("from", c.from).Msg("Chrome path is not executable, ignoring")
	}

	for _, path := range installPaths(runtime.GOOS, os.Getenv("HOME")) {
		if isExecutable(path) {
			return path
		}
	}
	for _, name := range browserNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	log.Debug().Str("os", runtime.GOOS).Msg("Chrome not found")
	return ""
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return runtime.GOOS == "windows" || info.Mode()&0o111 != 0
}

// ChromeVersion returns the --version banner of the binary at path
func ChromeVersion(path string) string {
	if path == "" {
		return "unknown"
	}
	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		return "detected"
	}
	return strings.TrimSpace(string(out))
}
