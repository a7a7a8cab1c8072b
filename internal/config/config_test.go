package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amonks/slotpool/internal/config"
	"github.com/amonks/slotpool/internal/testsupport"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func globalConfig(homeDir string) string {
	return filepath.Join(homeDir, ".config", "slots", "config.toml")
}

func TestLoad_NotFound(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Pool.Size != config.DefaultSize {
		t.Errorf("Size = %d, expected %d", cfg.Pool.Size, config.DefaultSize)
	}
	if cfg.Pool.Placeholder != config.DefaultPlaceholder {
		t.Errorf("Placeholder = %q, expected %q", cfg.Pool.Placeholder, config.DefaultPlaceholder)
	}
	if cfg.Pool.Base != "HEAD" {
		t.Errorf("Base = %q, expected HEAD", cfg.Pool.Base)
	}
	if cfg.Pool.WorktreesDir != "" {
		t.Errorf("expected empty WorktreesDir, got %q", cfg.Pool.WorktreesDir)
	}
	if cfg.Slot.OnAllocate != "" {
		t.Error("expected empty OnAllocate")
	}

	timeout, err := cfg.GitTimeout()
	if err != nil {
		t.Fatalf("git timeout: %v", err)
	}
	if timeout != config.DefaultGitTimeout {
		t.Errorf("GitTimeout = %v, expected %v", timeout, config.DefaultGitTimeout)
	}
}

func TestLoad_Full(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	writeFile(t, filepath.Join(tmpDir, "slots.toml"), `
[pool]
size = 8
worktrees-dir = "/tmp/slots"
placeholder = "parked-{id}"
base = "origin/main"
git-timeout = "2m"

[slot]
on-allocate = """
npm install
go mod download
"""
`)

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pool.Size != 8 {
		t.Errorf("Size = %d, expected 8", cfg.Pool.Size)
	}
	if cfg.Pool.WorktreesDir != "/tmp/slots" {
		t.Errorf("WorktreesDir = %q", cfg.Pool.WorktreesDir)
	}
	if cfg.Pool.Placeholder != "parked-{id}" {
		t.Errorf("Placeholder = %q", cfg.Pool.Placeholder)
	}
	if cfg.Pool.Base != "origin/main" {
		t.Errorf("Base = %q", cfg.Pool.Base)
	}
	if timeout, _ := cfg.GitTimeout(); timeout != 2*time.Minute {
		t.Errorf("GitTimeout = %v, expected 2m", timeout)
	}
	if !strings.Contains(cfg.Slot.OnAllocate, "go mod download") {
		t.Errorf("OnAllocate = %q", cfg.Slot.OnAllocate)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()

	writeFile(t, filepath.Join(tmpDir, "slots.toml"), `this is not valid toml [`)

	if _, err := config.Load(tmpDir); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "zero size",
			content: "[pool]\nsize = 0\n",
			want:    "pool.size",
		},
		{
			name:    "negative size",
			content: "[pool]\nsize = -2\n",
			want:    "pool.size",
		},
		{
			name:    "placeholder without id",
			content: "[pool]\nplaceholder = \"parked\"\n",
			want:    "pool.placeholder",
		},
		{
			name:    "bad timeout",
			content: "[pool]\ngit-timeout = \"soon\"\n",
			want:    "pool.git-timeout",
		},
		{
			name:    "negative timeout",
			content: "[pool]\ngit-timeout = \"-1s\"\n",
			want:    "pool.git-timeout",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testsupport.SetupTestHome(t)
			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, "slots.toml"), tc.content)

			_, err := config.Load(tmpDir)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_UsesGlobalWhenProjectMissing(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	writeFile(t, globalConfig(homeDir), `
[pool]
size = 2
base = "develop"

[slot]
on-allocate = "global allocate"
`)

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pool.Size != 2 {
		t.Errorf("Size = %d, expected 2", cfg.Pool.Size)
	}
	if cfg.Pool.Base != "develop" {
		t.Errorf("Base = %q, expected develop", cfg.Pool.Base)
	}
	if cfg.Slot.OnAllocate != "global allocate" {
		t.Errorf("OnAllocate = %q, expected global allocate", cfg.Slot.OnAllocate)
	}
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	homeDir := testsupport.SetupTestHome(t)
	writeFile(t, globalConfig(homeDir), `
[pool]
size = 2
placeholder = "global-{id}"

[slot]
on-allocate = "global allocate"
`)

	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "slots.toml"), `
[pool]
size = 6

[slot]
on-allocate = ""
`)

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Pool.Size != 6 {
		t.Errorf("Size = %d, expected 6", cfg.Pool.Size)
	}
	if cfg.Pool.Placeholder != "global-{id}" {
		t.Errorf("Placeholder = %q, expected global-{id}", cfg.Pool.Placeholder)
	}
	if cfg.Slot.OnAllocate != "" {
		t.Errorf("expected project to clear OnAllocate, got %q", cfg.Slot.OnAllocate)
	}
}

func TestLoad_ZeroTimeoutDisables(t *testing.T) {
	testsupport.SetupTestHome(t)
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "slots.toml"), "[pool]\ngit-timeout = \"0s\"\n")

	cfg, err := config.Load(tmpDir)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	timeout, err := cfg.GitTimeout()
	if err != nil {
		t.Fatalf("git timeout: %v", err)
	}
	if timeout != 0 {
		t.Fatalf("expected zero timeout, got %v", timeout)
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
	if cfg.Pool.Size != config.DefaultSize {
		t.Fatalf("Size = %d, expected %d", cfg.Pool.Size, config.DefaultSize)
	}
}

func TestRunScript_Empty(t *testing.T) {
	tmpDir := t.TempDir()

	// Empty script should be a no-op
	if err := config.RunScript(tmpDir, ""); err != nil {
		t.Errorf("unexpected error for empty script: %v", err)
	}

	if err := config.RunScript(tmpDir, "   "); err != nil {
		t.Errorf("unexpected error for whitespace script: %v", err)
	}
}

func TestRunScript_SimpleBash(t *testing.T) {
	tmpDir := t.TempDir()

	if err := config.RunScript(tmpDir, `touch created.txt`); err != nil {
		t.Fatalf("script failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "created.txt")); os.IsNotExist(err) {
		t.Error("script did not create file")
	}
}

func TestRunScript_MultipleBashCommands(t *testing.T) {
	tmpDir := t.TempDir()

	script := `
touch file1.txt
touch file2.txt
echo "done"
`

	if err := config.RunScript(tmpDir, script); err != nil {
		t.Fatalf("script failed: %v", err)
	}

	for _, name := range []string{"file1.txt", "file2.txt"} {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); os.IsNotExist(err) {
			t.Errorf("script did not create %s", name)
		}
	}
}

func TestRunScript_ShebangWithArgs(t *testing.T) {
	tmpDir := t.TempDir()

	// Use bash -e to exit on first error
	script := `#!/bin/bash -e
touch success.txt
`

	if err := config.RunScript(tmpDir, script); err != nil {
		t.Fatalf("script failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "success.txt")); os.IsNotExist(err) {
		t.Error("script did not create file")
	}
}

func TestRunScript_FailingScript(t *testing.T) {
	tmpDir := t.TempDir()

	err := config.RunScript(tmpDir, `exit 1`)
	if err == nil {
		t.Fatal("expected error for failing script")
	}
	if !strings.Contains(err.Error(), tmpDir) {
		t.Fatalf("expected error to name the directory, got %v", err)
	}
}
