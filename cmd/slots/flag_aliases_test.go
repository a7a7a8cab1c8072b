package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestReuseAliasUsesSingleFlag(t *testing.T) {
	var reuse bool
	cmd := &cobra.Command{Use: "example"}
	addReuseFlagAliases(cmd)
	cmd.Flags().BoolVar(&reuse, "reuse-inactive", false, "Evict an inactive slot when the pool is full")

	if err := cmd.Flags().Set("reuse", "true"); err != nil {
		t.Fatalf("set reuse alias: %v", err)
	}
	if !reuse {
		t.Fatal("expected reuse-inactive to be set via alias")
	}
	if !cmd.Flags().Changed("reuse-inactive") {
		t.Fatal("expected reuse-inactive flag to be marked as changed")
	}

	usage := cmd.Flags().FlagUsages()
	if strings.Contains(usage, "--reuse ") {
		t.Fatalf("did not expect alias to appear in usage, got %q", usage)
	}
}

func TestAllocateCommandAcceptsReuseAlias(t *testing.T) {
	if flag := allocateCmd.Flags().Lookup("reuse"); flag == nil || flag.Name != "reuse-inactive" {
		t.Fatalf("expected --reuse to resolve to reuse-inactive, got %v", flag)
	}
}
