package slot_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amonks/slotpool/slot"
	"github.com/stretchr/testify/assert"
)

func TestConsoleLoggerSkipsCleanReconcile(t *testing.T) {
	var buf bytes.Buffer
	logger := slot.NewConsoleLogger(&buf)

	logger.Reconcile(slot.ReconcileLog{Dispositions: []slot.Disposition{
		{SlotID: 0, Kind: slot.DispositionUnchanged, Recorded: "a", Observed: "a"},
	}})

	assert.Empty(t, buf.String())
}

func TestConsoleLoggerReconcileTable(t *testing.T) {
	var buf bytes.Buffer
	logger := slot.NewConsoleLogger(&buf)

	logger.Reconcile(slot.ReconcileLog{Dispositions: []slot.Disposition{
		{SlotID: 0, Kind: slot.DispositionCorrected, Recorded: "a", Observed: "b"},
		{SlotID: 1, Kind: slot.DispositionDetached, Recorded: "c"},
		{SlotID: 2, Kind: slot.DispositionQueryFailed, Recorded: "d", Err: errors.New("boom")},
	}})

	out := buf.String()
	assert.Contains(t, out, "Reconciled slots:")
	assert.Contains(t, out, "corrected")
	assert.Contains(t, out, "detached HEAD")
	assert.Contains(t, out, "boom")
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n")[1:] {
		assert.True(t, strings.HasPrefix(line, "    "), "expected indented line %q", line)
	}
}

func TestConsoleLoggerAllocationAndRelease(t *testing.T) {
	var buf bytes.Buffer
	logger := slot.NewConsoleLogger(&buf)
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	logger.Allocation(slot.AllocationLog{
		Now: now,
		Allocation: slot.Allocation{
			Assignment: slot.Assignment{SlotID: 1, BranchName: "c", WorktreePath: "/wt/slot-1"},
			Outcome:    slot.OutcomeEvicted,
			Previous:   &slot.Assignment{SlotID: 1, BranchName: "a", AssignedAt: now.Add(-2 * time.Hour)},
		},
	})
	logger.Release(slot.ReleaseLog{SlotID: 1, Branch: "c", Placeholder: "slot-1-stub", Path: "/wt/slot-1"})

	out := buf.String()
	assert.Contains(t, out, "Evicted slot 1 for c:")
	assert.Contains(t, out, "replaced a, assigned 2h ago")
	assert.Contains(t, out, "Released slot 1:")
	assert.Contains(t, out, "c -> slot-1-stub")
	assert.Contains(t, out, "\n\nReleased", "blocks are separated by a blank line")
}
