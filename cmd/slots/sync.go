package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Correct recorded branches to match what each slot has checked out",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	pool, err := openPool()
	if err != nil {
		return err
	}

	corrected, err := pool.Sync()
	if err != nil {
		return fmt.Errorf("sync slots: %w", err)
	}

	fmt.Println(syncMessage(corrected))
	return nil
}

func syncMessage(corrected int) string {
	switch corrected {
	case 0:
		return "All slots match their worktrees."
	case 1:
		return "Corrected 1 slot."
	default:
		return fmt.Sprintf("Corrected %d slots.", corrected)
	}
}
