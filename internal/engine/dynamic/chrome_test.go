package dynamic

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeBinary(t *testing.T, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho 'Chromium 120.0.0.0'\n"), mode); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFindChrome_ExplicitPathWins(t *testing.T) {
	explicit := writeBinary(t, "chrome", 0o755)
	t.Setenv("CHROME_PATH", writeBinary(t, "other", 0o755))

	if got := FindChrome(explicit); got != explicit {
		t.Errorf("FindChrome = %q, want %q", got, explicit)
	}
}

func TestFindChrome_FallsBackToEnv(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute bit is not checked on windows")
	}
	env := writeBinary(t, "chrome", 0o755)
	t.Setenv("CHROME_PATH", env)

	notExecutable := writeBinary(t, "plain", 0o644)
	if got := FindChrome(notExecutable); got != env {
		t.Errorf("FindChrome = %q, want CHROME_PATH %q", got, env)
	}
	if got := FindChrome(filepath.Join(t.TempDir(), "missing")); got != env {
		t.Errorf("FindChrome = %q, want CHROME_PATH %q", got, env)
	}
}

func TestInstallPaths(t *testing.T) {
	if len(installPaths("linux", "")) == 0 || len(installPaths("darwin", "")) == 0 {
		t.Error("expected install paths for linux and darwin")
	}
	if got := len(installPaths("darwin", "/Users/me")); got != len(installPaths("darwin", ""))+1 {
		t.Errorf("expected home applications path to be added, got %d paths", got)
	}
	if installPaths("plan9", "") != nil {
		t.Error("expected no install paths for unknown OS")
	}
}

func TestChromeVersion(t *testing.T) {
	if ChromeVersion("") != "unknown" {
		t.Error("expected unknown for empty path")
	}
	if runtime.GOOS == "windows" {
		return
	}
	if got := ChromeVersion(writeBinary(t, "chrome", 0o755)); got != "Chromium 120.0.0.0" {
		t.Errorf("ChromeVersion = %q", got)
	}
}
