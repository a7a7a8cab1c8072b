package testsupport

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// gitIdentity keeps test commits independent of the user's git config.
var gitIdentity = []string{
	"-c", "user.name=Slots Test",
	"-c", "user.email=slots@example.com",
	"-c", "commit.gpgsign=false",
}

// RequireGit skips the test when git is not installed.
func RequireGit(t testing.TB) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// InitGitRepo creates a repository with one commit on main and returns its
// symlink-resolved path.
func InitGitRepo(t testing.TB) string {
	t.Helper()
	RequireGit(t)

	dir := t.TempDir()
	dir, _ = filepath.EvalSymlinks(dir)

	RunGit(t, dir, "init", "--quiet", "--initial-branch=main")
	RunGit(t, dir, "commit", "--quiet", "--allow-empty", "-m", "initial")
	return dir
}

// RunGit runs git in dir and fails the test on error. It returns trimmed stdout.
func RunGit(t testing.TB, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append(append([]string{}, gitIdentity...), args...)...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %s: %v: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output))
}
