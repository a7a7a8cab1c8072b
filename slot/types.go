package slot

import (
	"strings"
	"time"

	statestore "github.com/amonks/slotpool/internal/state"
	"github.com/amonks/slotpool/internal/validation"
)

// Assignment records which branch occupies a slot, and since when.
type Assignment = statestore.Assignment

// State is the recorded assignment table.
type State = statestore.State

// Outcome describes how Allocate satisfied a request.
type Outcome int

const (
	// OutcomeReused means the branch already occupied a slot.
	OutcomeReused Outcome = iota
	// OutcomeBound means the branch was bound to a free slot.
	OutcomeBound
	// OutcomeEvicted means another branch was evicted to make room.
	OutcomeEvicted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReused:
		return "reused"
	case OutcomeBound:
		return "bound"
	case OutcomeEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Allocation is the result of a successful Allocate.
type Allocation struct {
	Assignment

	// Outcome says whether the slot was reused, newly bound, or evicted.
	Outcome Outcome

	// Previous is the evicted assignment when Outcome is OutcomeEvicted.
	Previous *Assignment
}

// Status is a slot's occupancy as reported by List.
type Status string

const (
	// StatusOccupied means a branch is bound to the slot.
	StatusOccupied Status = "occupied"
	// StatusReleased means the slot holds its placeholder branch.
	StatusReleased Status = "released"
	// StatusFree means the slot has never been bound.
	StatusFree Status = "free"
)

// ValidStatuses returns every slot status.
func ValidStatuses() []Status {
	return []Status{StatusOccupied, StatusReleased, StatusFree}
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, valid := range ValidStatuses() {
		if status == valid {
			return status, nil
		}
	}
	return "", validation.FormatInvalidValueError(ErrInvalidStatus, status, ValidStatuses())
}

// Info describes one slot.
type Info struct {
	SlotID     int
	Branch     string
	Path       string
	AssignedAt time.Time
	Status     Status

	// InRange is false for records whose slot id is beyond the configured
	// pool size. They are listed but never allocated.
	InRange bool
}

func newState() *State {
	return statestore.New()
}
