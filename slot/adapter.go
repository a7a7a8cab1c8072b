package slot

// Adapter is the narrow set of git operations the pool needs. *git.Client
// implements it.
type Adapter interface {
	// CurrentBranch returns the branch checked out at path, or an error
	// wrapping ErrWorktreeMissing or ErrDetachedHead.
	CurrentBranch(path string) (string, error)

	// CheckoutOrCreateBranch checks out branch at path, adding the worktree
	// and creating the branch as needed.
	CheckoutOrCreateBranch(path, branch string) error

	// RemoveArtifacts deletes untracked and ignored files at path.
	RemoveArtifacts(path string) error
}

// CleanChecker reports whether a worktree has uncommitted changes.
type CleanChecker interface {
	IsClean(path string) (bool, error)
}
