package testsupport

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

var (
	buildOnce sync.Once
	slotsPath string
	buildErr  error
)

// BuildSlots builds the slots binary once and returns its path.
func BuildSlots(t testing.TB) string {
	t.Helper()

	buildOnce.Do(func() {
		moduleRoot, err := findModuleRoot()
		if err != nil {
			buildErr = err
			return
		}

		binDir, err := os.MkdirTemp("", "slots-bin-")
		if err != nil {
			buildErr = err
			return
		}

		slotsPath = filepath.Join(binDir, "slots")
		cmd := exec.Command("go", "build", "-o", slotsPath, "./cmd/slots")
		cmd.Dir = moduleRoot
		output, err := cmd.CombinedOutput()
		if err != nil {
			buildErr = fmt.Errorf("build slots: %w: %s", err, strings.TrimSpace(string(output)))
		}
	})

	if buildErr != nil {
		t.Fatalf("%v", buildErr)
	}

	return slotsPath
}

// SetupScriptEnv configures common environment variables for testscript.
func SetupScriptEnv(t testing.TB, env *testscript.Env) error {
	t.Helper()

	env.Setenv("SLOTS", BuildSlots(t))

	homeDir := filepath.Join(env.WorkDir, "home")
	if err := EnsureHomeDirs(homeDir); err != nil {
		return err
	}
	env.Setenv("HOME", homeDir)
	env.Setenv("NO_COLOR", "1")

	// Keep git deterministic and independent of the host configuration.
	env.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	env.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(homeDir, ".gitconfig"))
	env.Setenv("GIT_AUTHOR_NAME", "Slots Test")
	env.Setenv("GIT_AUTHOR_EMAIL", "slots@example.com")
	env.Setenv("GIT_COMMITTER_NAME", "Slots Test")
	env.Setenv("GIT_COMMITTER_EMAIL", "slots@example.com")
	return nil
}

// CmdEnvSet stores the trimmed contents of a file in an env var.
func CmdEnvSet(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("envset does not support negation")
	}
	if len(args) != 2 {
		ts.Fatalf("usage: envset VAR FILE")
	}

	value := strings.TrimSpace(ts.ReadFile(args[1]))
	ts.Setenv(args[0], value)
}

// CmdBranchIs asserts the branch checked out in a worktree directory.
func CmdBranchIs(ts *testscript.TestScript, neg bool, args []string) {
	if len(args) != 2 {
		ts.Fatalf("usage: branchis DIR BRANCH")
	}

	cmd := exec.Command("git", "symbolic-ref", "--quiet", "--short", "HEAD")
	cmd.Dir = ts.MkAbs(args[0])
	output, err := cmd.Output()
	branch := strings.TrimSpace(string(output))
	matched := err == nil && branch == args[1]

	if neg && matched {
		ts.Fatalf("expected %s not to be on %s", args[0], args[1])
	}
	if !neg && !matched {
		ts.Fatalf("expected %s to be on %s, got %q (%v)", args[0], args[1], branch, err)
	}
}

func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find module root (go.mod)")
		}
		dir = parent
	}
}
