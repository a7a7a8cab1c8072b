// Package state manages the persisted slot pool file.
//
// The state file (<state-dir>/<repo>/pool.json) maps slot ids to the branch
// believed to occupy each slot. It is secondary truth: the git worktrees are
// primary, and callers reconcile against them before trusting the file.
// Writers serialize through an exclusive lock on pool.lock so that concurrent
// processes do not interleave load and save.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Assignment records which branch occupies a slot, and since when.
type Assignment struct {
	// SlotID is the stable 0-based slot index. It is the key in the
	// persisted mapping rather than a field of the record.
	SlotID int `json:"-"`

	// BranchName is the branch believed to be checked out in the slot.
	BranchName string `json:"branch_name"`

	// AssignedAt is when the slot was bound to its current branch. Drift
	// corrections do not change it.
	AssignedAt time.Time `json:"assigned_at"`

	// WorktreePath is the slot's working tree location.
	WorktreePath string `json:"worktree_path"`
}

// State is the persisted assignment table. A slot id absent from
// Assignments is free.
type State struct {
	Assignments map[int]Assignment
}

// New returns an empty state.
func New() *State {
	return &State{Assignments: make(map[int]Assignment)}
}

// Clone returns a copy that shares nothing mutable with st.
func (st *State) Clone() *State {
	clone := New()
	for id, assignment := range st.Assignments {
		clone.Assignments[id] = assignment
	}
	return clone
}

// SlotIDs returns the occupied slot ids in ascending order.
func (st *State) SlotIDs() []int {
	ids := make([]int, 0, len(st.Assignments))
	for id := range st.Assignments {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Lookup returns the assignment for a slot id.
func (st *State) Lookup(slotID int) (Assignment, bool) {
	assignment, ok := st.Assignments[slotID]
	return assignment, ok
}

// FindBranch returns the lowest-numbered assignment recorded for branch.
func (st *State) FindBranch(branch string) (Assignment, bool) {
	for _, id := range st.SlotIDs() {
		assignment := st.Assignments[id]
		if assignment.BranchName == branch {
			return assignment, true
		}
	}
	return Assignment{}, false
}

// MarshalJSON encodes the state as a mapping of slot id to assignment.
func (st *State) MarshalJSON() ([]byte, error) {
	assignments := st.Assignments
	if assignments == nil {
		assignments = map[int]Assignment{}
	}
	return json.Marshal(assignments)
}

// UnmarshalJSON decodes a mapping of slot id to assignment. Keys must be
// canonical non-negative integers, each slot id may appear once, and every
// record must name its worktree.
func (st *State) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("state must be a JSON object")
	}

	assignments := make(map[int]Assignment)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || strconv.Itoa(id) != key {
			return fmt.Errorf("invalid slot id %q", key)
		}
		if _, dup := assignments[id]; dup {
			return fmt.Errorf("duplicate slot id %d", id)
		}

		var assignment Assignment
		if err := dec.Decode(&assignment); err != nil {
			return fmt.Errorf("slot %d: %w", id, err)
		}
		if assignment.WorktreePath == "" {
			return fmt.Errorf("slot %d: worktree_path is required", id)
		}
		assignment.SlotID = id
		assignments[id] = assignment
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	st.Assignments = assignments
	return nil
}

// UnmarshalJSON accepts assigned_at as either an ISO-8601 string or a number
// of seconds since the Unix epoch.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	var raw struct {
		BranchName   string          `json:"branch_name"`
		AssignedAt   json.RawMessage `json:"assigned_at"`
		WorktreePath string          `json:"worktree_path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	assignedAt, err := parseTimestamp(raw.AssignedAt)
	if err != nil {
		return fmt.Errorf("assigned_at: %w", err)
	}

	a.BranchName = raw.BranchName
	a.AssignedAt = assignedAt
	a.WorktreePath = raw.WorktreePath
	return nil
}

// timestampLayouts are tried in order for string timestamps. Layouts without
// a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, fmt.Errorf("missing timestamp")
	}

	if raw[0] == '"' {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return time.Time{}, err
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
	}

	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return time.Time{}, fmt.Errorf("timestamp must be a string or number: %w", err)
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return time.Time{}, fmt.Errorf("invalid timestamp %v", seconds)
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), nil
}
