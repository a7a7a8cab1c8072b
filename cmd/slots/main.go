// Package main implements the slots CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/amonks/slotpool/internal/config"
	"github.com/amonks/slotpool/internal/paths"
	"github.com/amonks/slotpool/slot"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:          "slots",
	Short:        "Slots - a fixed pool of git worktrees bound to branches on demand",
	SilenceUsage: true,
}

var (
	rootQuiet    bool
	rootStateDir string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootQuiet, "quiet", "q", false, "Suppress log output on stderr")
	rootCmd.PersistentFlags().StringVar(&rootStateDir, "state-dir", "", "Directory holding pool.json (default ~/.local/state/slots/<repo>)")
}

// getRepoPath returns the main git repository root for the current directory.
func getRepoPath() (string, error) {
	cwd, err := paths.WorkingDir()
	if err != nil {
		return "", err
	}

	return resolveRepoRoot(cwd)
}

// openPool opens the pool for the current repository using its configuration.
func openPool() (*slot.Pool, error) {
	repoPath, err := getRepoPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(repoPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	opts, err := slot.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.StateDir = rootStateDir
	opts.Logger = newLogger(rootQuiet)

	pool, err := slot.OpenWithOptions(repoPath, opts)
	if err != nil {
		return nil, fmt.Errorf("open slot pool: %w", err)
	}
	return pool, nil
}

func newLogger(quiet bool) slot.Logger {
	if quiet {
		return slot.NopLogger()
	}
	return slot.NewConsoleLogger(os.Stderr)
}
