package ui

import (
	"strconv"
	"time"

	"github.com/amonks/slotpool/internal/age"
)

// ageUnits are tried largest first; an age is shown in the first unit it
// fills at least once.
var ageUnits = []struct {
	size   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
}

// FormatAssignedAge renders how long a slot has held its binding in one
// whole unit, like "45s", "2m" or "3d". A slot without an assignment time
// renders as "-".
func FormatAssignedAge(assignedAt, now time.Time) string {
	elapsed, ok := age.Since(assignedAt, now)
	if !ok {
		return "-"
	}
	for _, unit := range ageUnits {
		if elapsed >= unit.size {
			return strconv.FormatInt(int64(elapsed/unit.size), 10) + unit.suffix
		}
	}
	return strconv.FormatInt(int64(elapsed/time.Second), 10) + "s"
}

// FormatAssignedAgo is FormatAssignedAge followed by " ago".
func FormatAssignedAgo(assignedAt, now time.Time) string {
	formatted := FormatAssignedAge(assignedAt, now)
	if formatted == "-" {
		return formatted
	}
	return formatted + " ago"
}
