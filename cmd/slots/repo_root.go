package main

import (
	"errors"
	"fmt"

	"github.com/amonks/slotpool/internal/git"
)

// resolveRepoRoot returns the main repository for path, so commands run
// inside a slot worktree act on the pool that owns it.
func resolveRepoRoot(path string) (string, error) {
	root, err := git.New(path).MainRepoRoot(path)
	if err != nil {
		return "", formatRepoRootError(err)
	}
	return root, nil
}

func formatRepoRootError(err error) error {
	if errors.Is(err, git.ErrNotARepository) {
		return fmt.Errorf("not in a git repository: %w", err)
	}
	return err
}
