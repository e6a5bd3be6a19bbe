package configuration

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnv_FallsBackToGoModRoot(t *testing.T) {
	tmp := t.TempDir()

	requireWriteFile(t, filepath.Join(tmp, "go.mod"), "module example.com/test\n\ngo 1.22\n")
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "LEGACY_IMPORT_TEST_ENV_LOAD=ok\n")

	sub := filepath.Join(tmp, "cmd", "legacy-import")
	requireMkdirAll(t, sub)

	origWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(sub); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	_ = os.Unsetenv("LEGACY_IMPORT_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("LEGACY_IMPORT_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded from repo root, got %q", got)
	}
}

func TestImportOptions_ApplyConfirmed(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"":      false,
		"no":    false,
		"0":     false,
		"1":     true,
		"true":  true,
		" YES ": true,
	}
	for raw, want := range cases {
		opts := ImportOptions{ConfirmApply: raw}
		if got := opts.ApplyConfirmed(); got != want {
			t.Fatalf("ApplyConfirmed(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestLoad_ParsesImportOptions(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_CONFIRM_APPLY", "yes")
	t.Setenv("IMPORT_ERROR_LIMIT", "10")
	t.Setenv("DB_MAX_CONNS", "2")
	t.Setenv("LOG_PATH", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(c.Unload)

	if !c.Import.ApplyConfirmed() {
		t.Fatalf("expected apply to be confirmed")
	}
	if c.Import.ErrorLimit != 10 {
		t.Fatalf("expected error limit 10, got %d", c.Import.ErrorLimit)
	}
	if c.Database.Opts == "" || c.Logger() == nil {
		t.Fatalf("expected connection string and logger to be initialised")
	}
}

func TestLoad_RejectsInvalidErrorLimit(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IMPORT_ERROR_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for IMPORT_ERROR_LIMIT=0")
	}
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func requireMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}
