package slot

import (
	"errors"
	"fmt"

	"github.com/amonks/slotpool/internal/git"
	statestore "github.com/amonks/slotpool/internal/state"
)

var (
	// ErrInvalidBranch indicates a branch name that cannot be allocated.
	ErrInvalidBranch = errors.New("invalid branch name")
	// ErrSlotNotFound indicates a slot id or branch that the pool does not hold.
	ErrSlotNotFound = errors.New("slot not found")
	// ErrInvalidStatus indicates an unknown slot status name.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrDetachedHead indicates a worktree has no branch checked out.
	ErrDetachedHead = git.ErrDetachedHead
	// ErrWorktreeMissing indicates a slot's worktree directory does not exist.
	ErrWorktreeMissing = git.ErrWorktreeMissing
)

// CorruptStateError reports a state file that exists but cannot be decoded.
type CorruptStateError = statestore.CorruptStateError

// ExitCodePoolExhausted is the process exit status for a full pool.
const ExitCodePoolExhausted = 3

// AdapterError reports a failed git mutation. The pool state is left as it
// was before the mutation was attempted.
type AdapterError struct {
	Op     string
	SlotID int
	Path   string
	Branch string
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s %s in slot %d (%s): %v", e.Op, e.Branch, e.SlotID, e.Path, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// PoolExhaustedError reports that no slot is free and none may be evicted.
type PoolExhaustedError struct {
	// Size is the number of slots in the pool.
	Size int
	// CheckedInactive is true when inactive slots were looked for and none
	// was found.
	CheckedInactive bool
}

func (e *PoolExhaustedError) Error() string {
	if e.CheckedInactive {
		return fmt.Sprintf("pool exhausted: all %d slots are occupied and none is inactive", e.Size)
	}
	return fmt.Sprintf("pool exhausted: all %d slots are occupied", e.Size)
}

// ExitCode lets command-line callers exit with a distinct status.
func (e *PoolExhaustedError) ExitCode() int {
	return ExitCodePoolExhausted
}
