// Package git provides a wrapper around the git CLI for slot worktrees.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	internalstrings "github.com/amonks/slotpool/internal/strings"
)

var (
	// ErrDetachedHead indicates a worktree has no branch checked out.
	ErrDetachedHead = errors.New("detached HEAD")
	// ErrWorktreeMissing indicates a worktree directory does not exist.
	ErrWorktreeMissing = errors.New("worktree missing")
	// ErrNotARepository indicates a path is not inside a git repository.
	ErrNotARepository = errors.New("not a git repository")
)

// DefaultTimeout bounds each git invocation.
const DefaultTimeout = 60 * time.Second

// Client wraps the git CLI for one repository.
type Client struct {
	repoPath string
	baseRef  string
	timeout  time.Duration
}

// Options configures a Client.
type Options struct {
	// BaseRef is the revision new branches start from. Defaults to "HEAD"
	// resolved in the main repository.
	BaseRef string

	// Timeout bounds each git invocation. Zero means DefaultTimeout;
	// negative disables the timeout.
	Timeout time.Duration
}

// New creates a git client for the repository at repoPath.
func New(repoPath string) *Client {
	return NewWithOptions(repoPath, Options{})
}

// NewWithOptions creates a git client with custom options.
func NewWithOptions(repoPath string, opts Options) *Client {
	baseRef := strings.TrimSpace(opts.BaseRef)
	if baseRef == "" {
		baseRef = "HEAD"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{repoPath: repoPath, baseRef: baseRef, timeout: timeout}
}

// RepoPath returns the main repository path.
func (c *Client) RepoPath() string {
	return c.repoPath
}

func (c *Client) command(dir string, args ...string) (*exec.Cmd, context.CancelFunc) {
	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd, cancel
}

func commandOutput(cmd *exec.Cmd, label string) ([]byte, error) {
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s: %w: %s", label, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return output, nil
}

func commandCombinedOutput(cmd *exec.Cmd, label string) ([]byte, error) {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("%s: %w: %s", label, err, strings.TrimSpace(string(output)))
	}
	return output, nil
}

func (c *Client) output(dir, label string, args ...string) (string, error) {
	cmd, cancel := c.command(dir, args...)
	defer cancel()
	output, err := commandOutput(cmd, label)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (c *Client) run(dir, label string, args ...string) error {
	cmd, cancel := c.command(dir, args...)
	defer cancel()
	_, err := commandCombinedOutput(cmd, label)
	return err
}

// exitCode returns the process exit code carried by err, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// Init initializes a new git repository at the given path with main as the
// initial branch.
func (c *Client) Init(path string) error {
	return c.run(path, "git init", "init", "--quiet", "--initial-branch=main")
}

// RepoRoot returns the top level of the working tree containing path.
func (c *Client) RepoRoot(path string) (string, error) {
	root, err := c.output(path, "git rev-parse --show-toplevel", "rev-parse", "--show-toplevel")
	if err != nil {
		if isNotRepositoryOutput(err.Error()) {
			return "", ErrNotARepository
		}
		return "", err
	}
	return root, nil
}

// MainRepoRoot returns the main repository root for path, which may be the
// main working tree or any linked worktree of it.
func (c *Client) MainRepoRoot(path string) (string, error) {
	commonDir, err := c.output(path, "git rev-parse --git-common-dir",
		"rev-parse", "--path-format=absolute", "--git-common-dir")
	if err != nil {
		if isNotRepositoryOutput(err.Error()) {
			return "", ErrNotARepository
		}
		return "", err
	}
	if filepath.Base(commonDir) != ".git" {
		// Bare repository: the common dir is the repository itself.
		return commonDir, nil
	}
	return filepath.Dir(commonDir), nil
}

// CurrentBranch returns the branch checked out in the worktree at path.
// It returns ErrWorktreeMissing when the directory does not exist and
// ErrDetachedHead when HEAD does not point at a branch.
func (c *Client) CurrentBranch(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrWorktreeMissing
		}
		return "", fmt.Errorf("stat worktree: %w", err)
	}

	branch, err := c.output(path, "git symbolic-ref", "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		// symbolic-ref --quiet exits 1 without output when HEAD is detached.
		if exitCode(err) == 1 {
			return "", ErrDetachedHead
		}
		return "", err
	}
	if branch == "" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// BranchExists reports whether a local branch exists.
func (c *Client) BranchExists(branch string) (bool, error) {
	_, err := c.output(c.repoPath, "git rev-parse --verify",
		"rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	if err != nil {
		if exitCode(err) == 1 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResolveBase returns the commit id new branches are created from.
func (c *Client) ResolveBase() (string, error) {
	return c.output(c.repoPath, "git rev-parse base",
		"rev-parse", "--verify", "--quiet", c.baseRef+"^{commit}")
}

// WorktreeAdd registers a new worktree at path with branch checked out,
// creating the branch from the base ref when it does not exist.
func (c *Client) WorktreeAdd(path, branch string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create worktree parent dir: %w", err)
	}

	// Forget registrations whose directories were deleted out from under git.
	if err := c.run(c.repoPath, "git worktree prune", "worktree", "prune"); err != nil {
		return err
	}

	exists, err := c.BranchExists(branch)
	if err != nil {
		return err
	}
	if exists {
		return c.run(c.repoPath, "git worktree add", "worktree", "add", "--quiet", path, branch)
	}

	base, err := c.ResolveBase()
	if err != nil {
		return fmt.Errorf("resolve base %s: %w", c.baseRef, err)
	}
	return c.run(c.repoPath, "git worktree add", "worktree", "add", "--quiet", "-b", branch, path, base)
}

// Checkout switches the worktree at path to an existing branch.
func (c *Client) Checkout(path, branch string) error {
	return c.run(path, "git checkout", "checkout", "--quiet", branch)
}

// CheckoutNew creates branch from the base ref and switches the worktree at
// path to it.
func (c *Client) CheckoutNew(path, branch string) error {
	base, err := c.ResolveBase()
	if err != nil {
		return fmt.Errorf("resolve base %s: %w", c.baseRef, err)
	}
	return c.run(path, "git checkout -b", "checkout", "--quiet", "-b", branch, base)
}

// CheckoutOrCreateBranch makes branch the checked out branch of the worktree
// at path. A missing worktree directory is added; an absent branch is created
// from the base ref.
func (c *Client) CheckoutOrCreateBranch(path, branch string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return c.WorktreeAdd(path, branch)
		}
		return fmt.Errorf("stat worktree: %w", err)
	}

	exists, err := c.BranchExists(branch)
	if err != nil {
		return err
	}
	if exists {
		return c.Checkout(path, branch)
	}
	return c.CheckoutNew(path, branch)
}

// RemoveArtifacts deletes untracked and ignored files from the worktree at
// path. A missing worktree has nothing to remove.
func (c *Client) RemoveArtifacts(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat worktree: %w", err)
	}
	return c.run(path, "git clean", "clean", "-ffdx", "--quiet")
}

// IsClean reports whether the worktree at path has no uncommitted or
// untracked changes.
func (c *Client) IsClean(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, ErrWorktreeMissing
		}
		return false, fmt.Errorf("stat worktree: %w", err)
	}
	status, err := c.output(path, "git status", "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return internalstrings.IsBlank(status), nil
}

func isNotRepositoryOutput(output string) bool {
	return internalstrings.ContainsAnyLower(output,
		"not a git repository",
		"not a git repo",
	)
}
