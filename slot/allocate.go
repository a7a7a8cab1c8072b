package slot

import (
	"fmt"

	"github.com/amonks/slotpool/internal/config"
	internalstrings "github.com/amonks/slotpool/internal/strings"
)

// AllocateOptions configures an allocation.
type AllocateOptions struct {
	// Force allows evicting any occupied slot when no free or inactive slot
	// is available.
	Force bool

	// ReuseInactive allows evicting a slot flagged by the inactive
	// predicate when the pool is full.
	ReuseInactive bool

	// CleanupArtifacts removes untracked and ignored files from the slot
	// before checking out the branch.
	CleanupArtifacts bool

	// Inactive overrides the pool's inactive predicate for this call.
	Inactive InactivePredicate
}

// Allocate binds branch to a slot and returns the binding.
//
// The recorded state is reconciled first. If branch already occupies a slot,
// that slot is returned unchanged. Otherwise the branch is bound to the
// lowest free or released slot, or, when the pool is full and opts allow it,
// to the slot chosen by the eviction policy. A full pool without permission
// to evict yields a *PoolExhaustedError.
//
// A failed git mutation yields an *AdapterError and leaves the recorded state
// as reconciliation left it. After a new binding the on-allocate script runs
// in the worktree; its failure is returned along with the allocation, which
// stays recorded.
func (p *Pool) Allocate(branch string, opts AllocateOptions) (Allocation, error) {
	if err := p.validateBranch(branch); err != nil {
		return Allocation{}, err
	}

	unlock, err := p.lock()
	if err != nil {
		return Allocation{}, err
	}
	allocation, err := p.allocateLocked(branch, opts)
	unlock()
	if err != nil {
		return Allocation{}, err
	}

	p.logger.Allocation(AllocationLog{Allocation: allocation, Now: p.now()})

	if allocation.Outcome != OutcomeReused {
		if err := config.RunScript(allocation.WorktreePath, p.onAllocate); err != nil {
			return allocation, fmt.Errorf("on-allocate script: %w", err)
		}
	}
	return allocation, nil
}

func (p *Pool) validateBranch(branch string) error {
	switch {
	case internalstrings.IsBlank(branch):
		return fmt.Errorf("%w: branch name is required", ErrInvalidBranch)
	case internalstrings.ContainsWhitespace(branch):
		return fmt.Errorf("%w: %q must not contain whitespace", ErrInvalidBranch, branch)
	case p.placeholder.MatchesAny(branch):
		return fmt.Errorf("%w: %q is reserved for released slots", ErrInvalidBranch, branch)
	}
	return nil
}

func (p *Pool) allocateLocked(branch string, opts AllocateOptions) (Allocation, error) {
	st, _, err := p.syncLocked()
	if err != nil {
		return Allocation{}, err
	}

	if existing, ok := st.FindBranch(branch); ok {
		return Allocation{Assignment: existing, Outcome: OutcomeReused}, nil
	}

	allocation := Allocation{Outcome: OutcomeBound}
	slotID, path, ok := p.freeSlot(st)
	if !ok {
		victim, err := p.chooseVictim(st, opts)
		if err != nil {
			return Allocation{}, err
		}
		slotID, path = victim.SlotID, victim.WorktreePath
		allocation.Outcome = OutcomeEvicted
		allocation.Previous = &victim
	}

	if opts.CleanupArtifacts {
		if err := p.adapter.RemoveArtifacts(path); err != nil {
			return Allocation{}, &AdapterError{Op: "remove artifacts for", SlotID: slotID, Path: path, Branch: branch, Err: err}
		}
	}
	if err := p.adapter.CheckoutOrCreateBranch(path, branch); err != nil {
		return Allocation{}, &AdapterError{Op: "check out", SlotID: slotID, Path: path, Branch: branch, Err: err}
	}

	allocation.Assignment = Assignment{
		SlotID:       slotID,
		BranchName:   branch,
		AssignedAt:   p.now().UTC(),
		WorktreePath: path,
	}
	next := st.Clone()
	next.Assignments[slotID] = allocation.Assignment
	if err := p.store.Save(next); err != nil {
		return Allocation{}, fmt.Errorf("save state: %w", err)
	}
	return allocation, nil
}

// freeSlot returns the lowest in-range slot that is unrecorded or released,
// with the path its worktree lives at.
func (p *Pool) freeSlot(st *State) (int, string, bool) {
	for id := 0; id < p.size; id++ {
		assignment, ok := st.Lookup(id)
		if !ok {
			return id, p.SlotPath(id), true
		}
		if p.released(assignment) {
			return id, assignment.WorktreePath, true
		}
	}
	return 0, "", false
}

// occupied returns the in-range, non-released assignments by slot id.
func (p *Pool) occupied(st *State) []Assignment {
	var assignments []Assignment
	for _, id := range st.SlotIDs() {
		assignment := st.Assignments[id]
		if p.inRange(id) && !p.released(assignment) {
			assignments = append(assignments, assignment)
		}
	}
	return assignments
}

func (p *Pool) chooseVictim(st *State, opts AllocateOptions) (Assignment, error) {
	occupied := p.occupied(st)

	var candidates []Assignment
	policy := func(c []Assignment) (int, bool) {
		candidates = c
		if len(c) == 0 {
			return 0, false
		}
		return p.policy(c)
	}

	slotID, ok := 0, false
	if opts.ReuseInactive {
		inactive := opts.Inactive
		if inactive == nil {
			inactive = p.inactive
		}
		slotID, ok = Evict(occupied, inactive, policy)
	}
	if !ok && opts.Force {
		slotID, ok = policy(occupied)
	}
	if !ok {
		return Assignment{}, &PoolExhaustedError{Size: p.size, CheckedInactive: opts.ReuseInactive}
	}

	for _, candidate := range candidates {
		if candidate.SlotID == slotID {
			return candidate, nil
		}
	}
	return Assignment{}, fmt.Errorf("eviction policy chose slot %d, which is not a candidate", slotID)
}
