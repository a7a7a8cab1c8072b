package main

import (
	"fmt"
	"time"

	"github.com/amonks/slotpool/internal/listflags"
	"github.com/amonks/slotpool/slot"
	"github.com/spf13/cobra"
)

var allocateCmd = &cobra.Command{
	Use:   "allocate BRANCH",
	Short: "Bind a branch to a slot and print its worktree path",
	Long: `Bind a branch to a slot and print its worktree path.

A branch that already occupies a slot keeps it. Otherwise the lowest free
slot is used. When every slot is occupied, --reuse-inactive evicts the least
recently assigned slot without local changes, and --force evicts the least
recently assigned slot regardless. A full pool exits with status 3.`,
	Args: cobra.ExactArgs(1),
	RunE: runAllocate,
}

var (
	allocateForce            bool
	allocateReuseInactive    bool
	allocateCleanupArtifacts bool
	allocateIdleAfter        time.Duration
	allocateJSON             bool
)

func init() {
	rootCmd.AddCommand(allocateCmd)

	allocateCmd.Flags().BoolVar(&allocateForce, "force", false, "Evict the least recently assigned slot even if it is active")
	allocateCmd.Flags().BoolVar(&allocateReuseInactive, "reuse-inactive", false, "Evict the least recently assigned inactive slot when the pool is full")
	allocateCmd.Flags().BoolVar(&allocateCleanupArtifacts, "cleanup-artifacts", false, "Remove untracked and ignored files before checkout")
	allocateCmd.Flags().DurationVar(&allocateIdleAfter, "idle-after", 0, "Only treat slots assigned at least this long ago as inactive")
	listflags.AddJSONFlag(allocateCmd, &allocateJSON)
	addReuseFlagAliases(allocateCmd)
}

func runAllocate(cmd *cobra.Command, args []string) error {
	pool, err := openPool()
	if err != nil {
		return err
	}

	opts := slot.AllocateOptions{
		Force:            allocateForce,
		ReuseInactive:    allocateReuseInactive,
		CleanupArtifacts: allocateCleanupArtifacts,
	}
	if allocateIdleAfter > 0 {
		opts.Inactive = slot.AllOf(pool.DefaultInactive(), slot.IdleFor(allocateIdleAfter, time.Now()))
	}

	allocation, err := pool.Allocate(args[0], opts)
	if err != nil && allocation.WorktreePath == "" {
		return fmt.Errorf("allocate %s: %w", args[0], err)
	}

	if allocateJSON {
		if encodeErr := encodeJSONToStdout(allocationJSON(allocation)); encodeErr != nil {
			return encodeErr
		}
	} else {
		fmt.Println(allocation.WorktreePath)
	}
	return err
}
