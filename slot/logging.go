package slot

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/slotpool/internal/ui"
	"github.com/charmbracelet/lipgloss"
)

const (
	lineWidth      = 80
	documentIndent = 4
)

// Logger receives pool events.
type Logger interface {
	Reconcile(ReconcileLog)
	Allocation(AllocationLog)
	Release(ReleaseLog)
}

// ReconcileLog captures every disposition of one reconciliation pass.
type ReconcileLog struct {
	Dispositions []Disposition
}

// AllocationLog captures a completed allocation.
type AllocationLog struct {
	Allocation Allocation
	Now        time.Time
}

// ReleaseLog captures a released slot.
type ReleaseLog struct {
	SlotID      int
	Branch      string
	Placeholder string
	Path        string
}

type noopLogger struct{}

func (noopLogger) Reconcile(ReconcileLog)   {}
func (noopLogger) Allocation(AllocationLog) {}
func (noopLogger) Release(ReleaseLog)       {}

// NopLogger returns a Logger that discards every entry.
func NopLogger() Logger {
	return noopLogger{}
}

// ConsoleLogger writes formatted log output.
type ConsoleLogger struct {
	writer      io.Writer
	headerStyle lipgloss.Style
	started     bool
}

// NewConsoleLogger builds a styled logger. Colour follows the writer: it is
// used only for terminals and honours NO_COLOR.
func NewConsoleLogger(writer io.Writer) *ConsoleLogger {
	if writer == nil {
		writer = io.Discard
	}
	renderer := lipgloss.NewRenderer(writer)
	return &ConsoleLogger{
		writer:      writer,
		headerStyle: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
	}
}

// Reconcile logs the slots that reconciliation corrected or skipped. A pass
// where every slot matched writes nothing.
func (logger *ConsoleLogger) Reconcile(entry ReconcileLog) {
	if logger == nil {
		return
	}
	var rows [][]string
	for _, d := range entry.Dispositions {
		if d.Kind == DispositionUnchanged {
			continue
		}
		observed := d.Observed
		if d.Kind == DispositionQueryFailed && d.Err != nil {
			observed = d.Err.Error()
		}
		rows = append(rows, []string{strconv.Itoa(d.SlotID), d.Recorded, dash(observed), d.Kind.String()})
	}
	if len(rows) == 0 {
		return
	}
	logger.writeBlock(
		formatLogLabel(logger.headerStyle.Render("Reconciled slots:")),
		formatLogBody(ui.FormatTable([]string{"Slot", "Recorded", "Observed", "Action"}, rows), false),
	)
}

// Allocation logs a completed allocation.
func (logger *ConsoleLogger) Allocation(entry AllocationLog) {
	if logger == nil {
		return
	}
	allocation := entry.Allocation
	var label string
	switch allocation.Outcome {
	case OutcomeReused:
		label = fmt.Sprintf("Reused slot %d for %s:", allocation.SlotID, allocation.BranchName)
	case OutcomeEvicted:
		label = fmt.Sprintf("Evicted slot %d for %s:", allocation.SlotID, allocation.BranchName)
	default:
		label = fmt.Sprintf("Bound slot %d to %s:", allocation.SlotID, allocation.BranchName)
	}

	body := allocation.WorktreePath
	if allocation.Previous != nil {
		previous := allocation.Previous
		body += fmt.Sprintf("\n\nreplaced %s, assigned %s", previous.BranchName, ui.FormatAssignedAgo(previous.AssignedAt, entry.Now))
	}
	logger.writeBlock(
		formatLogLabel(logger.headerStyle.Render(label)),
		formatLogBody(body, true),
	)
}

// Release logs a released slot.
func (logger *ConsoleLogger) Release(entry ReleaseLog) {
	if logger == nil {
		return
	}
	logger.writeBlock(
		formatLogLabel(logger.headerStyle.Render(fmt.Sprintf("Released slot %d:", entry.SlotID))),
		formatLogBody(fmt.Sprintf("%s -> %s\n%s", entry.Branch, entry.Placeholder, entry.Path), false),
	)
}

func (logger *ConsoleLogger) writeBlock(lines ...string) {
	if len(lines) == 0 {
		return
	}
	if logger.started {
		fmt.Fprintln(logger.writer)
	}
	logger.started = true
	for _, line := range lines {
		fmt.Fprintln(logger.writer, line)
	}
}

func formatLogLabel(label string) string {
	if strings.TrimSpace(label) == "" {
		return ""
	}
	return label
}

func formatLogBody(body string, wrap bool) string {
	body = strings.TrimRight(body, "\r\n")
	if strings.TrimSpace(body) == "" {
		body = "-"
	}
	if wrap {
		return ui.ReflowIndentedText(body, lineWidth, documentIndent)
	}
	return ui.IndentBlock(body, documentIndent)
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
