package slot

import (
	"time"

	"github.com/amonks/slotpool/internal/age"
)

// InactivePredicate reports whether an occupied slot may be evicted.
type InactivePredicate func(Assignment) bool

// CleanWorktree flags slots whose worktree has no uncommitted or untracked
// changes. Slots that cannot be inspected count as active.
func CleanWorktree(checker CleanChecker) InactivePredicate {
	return func(assignment Assignment) bool {
		clean, err := checker.IsClean(assignment.WorktreePath)
		return err == nil && clean
	}
}

// IdleFor flags slots assigned at least d before now.
func IdleFor(d time.Duration, now time.Time) InactivePredicate {
	return func(assignment Assignment) bool {
		return age.AtLeast(assignment.AssignedAt, now, d)
	}
}

// AllOf flags slots that every non-nil predicate flags.
func AllOf(predicates ...InactivePredicate) InactivePredicate {
	return func(assignment Assignment) bool {
		for _, predicate := range predicates {
			if predicate != nil && !predicate(assignment) {
				return false
			}
		}
		return true
	}
}
