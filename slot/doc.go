// Package slot manages a fixed pool of git worktree slots.
//
// A pool owns size slots, numbered from 0. Each slot is a linked git worktree
// that holds one branch at a time. The pool records which branch occupies
// each slot in a state file, but the worktrees themselves are the source of
// truth: every operation that changes the pool first reconciles the recorded
// branches against what git reports, correcting drift caused by checkouts made
// outside the tool.
//
// # Basic Usage
//
//	pool, err := slot.Open("/path/to/repo")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	allocation, err := pool.Allocate("feature-x", slot.AllocateOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Work in allocation.WorktreePath...
//
// Allocating a branch that already occupies a slot returns that slot. When
// every slot is taken, Allocate fails with a *PoolExhaustedError unless the
// caller allows eviction with ReuseInactive or Force, in which case the least
// recently assigned eligible slot is rebound.
//
// # Configuration
//
// Repositories can include a slots.toml file:
//
//	[pool]
//	size = 4
//	placeholder = "slot-{id}-stub"
//
//	[slot]
//	on-allocate = "npm install"  # Run in the worktree after each new binding
//
// # Storage
//
// By default, state is stored in ~/.local/state/slots/<repo>/pool.json and
// worktrees are created in ~/.local/share/slots/worktrees/<repo>/.
//
// # Concurrency
//
// Operations take an exclusive lock on the state directory, so concurrent
// processes serialize their load, reconcile, allocate and save steps.
package slot
