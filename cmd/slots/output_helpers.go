package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/amonks/slotpool/slot"
)

func encodeJSONToStdout(value any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// slotJSON is the --json shape shared by allocate, list and show.
type slotJSON struct {
	SlotID     int        `json:"slot_id"`
	Branch     string     `json:"branch,omitempty"`
	Path       string     `json:"worktree_path"`
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	Status     string     `json:"status,omitempty"`
	Outcome    string     `json:"outcome,omitempty"`
	Previous   *slotJSON  `json:"previous,omitempty"`
}

func assignmentJSON(assignment slot.Assignment) slotJSON {
	return slotJSON{
		SlotID:     assignment.SlotID,
		Branch:     assignment.BranchName,
		Path:       assignment.WorktreePath,
		AssignedAt: timePtr(assignment.AssignedAt),
	}
}

func allocationJSON(allocation slot.Allocation) slotJSON {
	out := assignmentJSON(allocation.Assignment)
	out.Status = string(slot.StatusOccupied)
	out.Outcome = allocation.Outcome.String()
	if allocation.Previous != nil {
		previous := assignmentJSON(*allocation.Previous)
		out.Previous = &previous
	}
	return out
}

func infoJSON(item slot.Info) slotJSON {
	return slotJSON{
		SlotID:     item.SlotID,
		Branch:     item.Branch,
		Path:       item.Path,
		AssignedAt: timePtr(item.AssignedAt),
		Status:     string(item.Status),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
