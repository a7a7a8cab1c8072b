// Package listflags defines flags shared by commands that print slots.
package listflags

import "github.com/spf13/cobra"

// AddAllFlag adds a shared --all flag to list commands.
func AddAllFlag(cmd *cobra.Command, target *bool) {
	if target == nil {
		cmd.Flags().Bool("all", false, "Include free slots")
		return
	}

	cmd.Flags().BoolVar(target, "all", false, "Include free slots")
}

// AddJSONFlag adds a shared --json flag to commands that print slots.
func AddJSONFlag(cmd *cobra.Command, target *bool) {
	if target == nil {
		cmd.Flags().Bool("json", false, "Output as JSON")
		return
	}

	cmd.Flags().BoolVar(target, "json", false, "Output as JSON")
}
