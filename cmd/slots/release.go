package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release SLOT|BRANCH",
	Short: "Park a slot on its placeholder branch so it can be reused",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	pool, err := openPool()
	if err != nil {
		return err
	}

	released, err := pool.Release(args[0])
	if err != nil {
		return fmt.Errorf("release %s: %w", args[0], err)
	}

	fmt.Println(released.WorktreePath)
	return nil
}
