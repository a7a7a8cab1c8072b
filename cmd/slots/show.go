package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amonks/slotpool/internal/listflags"
	"github.com/amonks/slotpool/internal/markdown"
	"github.com/amonks/slotpool/internal/ui"
	"github.com/amonks/slotpool/slot"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showCmd = &cobra.Command{
	Use:   "show SLOT|BRANCH",
	Short: "Show one slot",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var showJSON bool

func init() {
	rootCmd.AddCommand(showCmd)

	listflags.AddJSONFlag(showCmd, &showJSON)
}

func runShow(cmd *cobra.Command, args []string) error {
	pool, err := openPool()
	if err != nil {
		return err
	}

	item, err := pool.Show(args[0])
	if err != nil {
		return err
	}

	if showJSON {
		return encodeJSONToStdout(infoJSON(item))
	}

	doc := slotMarkdown(item, time.Now())
	fmt.Println(string(markdown.SafeRender(terminalWidth(os.Stdout), 0, []byte(doc))))
	return nil
}

func slotMarkdown(item slot.Info, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Slot %d\n\n", item.SlotID)

	lines := []string{
		"**Status:** " + string(item.Status),
	}
	if item.Branch != "" {
		lines = append(lines, "**Branch:** `"+item.Branch+"`")
	}
	if !item.AssignedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("**Assigned:** %s (%s)",
			ui.FormatAssignedAgo(item.AssignedAt, now),
			item.AssignedAt.Local().Format(time.RFC3339)))
	}
	lines = append(lines, "**Path:** `"+item.Path+"`")
	if !item.InRange {
		lines = append(lines, "**Note:** beyond the configured pool size; never allocated")
	}
	b.WriteString(markdown.Bullets(lines))
	return b.String()
}

func terminalWidth(f *os.File) int {
	if f != nil && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}
