package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/amonks/slotpool/internal/listflags"
	"github.com/amonks/slotpool/internal/ui"
	"github.com/amonks/slotpool/slot"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the slots of the current repository",
	Long: `List the slots of the current repository as recorded.

The recorded state is shown without reconciling it; run "slots sync" first
to pick up checkouts made outside slots.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listJSON   bool
	listAll    bool
	listStatus string
)

func init() {
	rootCmd.AddCommand(listCmd)

	listflags.AddJSONFlag(listCmd, &listJSON)
	listflags.AddAllFlag(listCmd, &listAll)
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (occupied, released, free)")
}

func runList(cmd *cobra.Command, args []string) error {
	pool, err := openPool()
	if err != nil {
		return err
	}

	items, err := pool.List()
	if err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	var status slot.Status
	if listStatus != "" {
		status, err = slot.ParseStatus(listStatus)
		if err != nil {
			return err
		}
	}
	filtered := filterSlotList(items, listAll, status)

	if listJSON {
		out := make([]slotJSON, 0, len(filtered))
		for _, item := range filtered {
			out = append(out, infoJSON(item))
		}
		return encodeJSONToStdout(out)
	}

	if len(filtered) == 0 {
		fmt.Println(slotEmptyListMessage(len(items), listAll, status))
		return nil
	}

	var highlight func(slot.Status, string) string
	if ui.ColorEnabled(os.Stdout) {
		highlight = statusHighlighter()
	}
	fmt.Print(formatSlotTable(filtered, highlight, time.Now()))
	return nil
}

func filterSlotList(items []slot.Info, includeAll bool, status slot.Status) []slot.Info {
	if includeAll && status == "" {
		return items
	}

	filtered := make([]slot.Info, 0, len(items))
	for _, item := range items {
		if status != "" {
			if item.Status != status {
				continue
			}
		} else if item.Status == slot.StatusFree {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}

func slotEmptyListMessage(total int, includeAll bool, status slot.Status) string {
	if status != "" {
		return fmt.Sprintf("No %s slots found.", status)
	}
	if total == 0 || includeAll {
		return "No slots found."
	}
	return "No slots are in use. Use --all to include free slots."
}

func statusHighlighter() func(slot.Status, string) string {
	styles := map[slot.Status]lipgloss.Style{
		slot.StatusOccupied: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		slot.StatusReleased: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		slot.StatusFree:     lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
	}
	return func(status slot.Status, value string) string {
		style, ok := styles[status]
		if !ok {
			return value
		}
		return style.Render(value)
	}
}

func formatSlotTable(items []slot.Info, highlight func(slot.Status, string) string, now time.Time) string {
	if highlight == nil {
		highlight = func(_ slot.Status, value string) string { return value }
	}

	table := ui.NewTableBuilder([]string{"SLOT", "STATUS", "BRANCH", "AGE", "PATH"}, len(items))
	for _, item := range items {
		id := strconv.Itoa(item.SlotID)
		if !item.InRange {
			id += "*"
		}
		branch := item.Branch
		if branch == "" {
			branch = "-"
		}
		table.AddRow([]string{
			id,
			highlight(item.Status, string(item.Status)),
			ui.TruncateTableCell(branch),
			ui.FormatAssignedAge(item.AssignedAt, now),
			ui.TruncateTableCell(item.Path),
		})
	}

	return table.String()
}
