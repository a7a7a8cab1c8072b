package slot

// EvictionPolicy picks the slot to evict from candidates. It returns false
// when no candidate should be evicted.
type EvictionPolicy func(candidates []Assignment) (slotID int, ok bool)

// LeastRecentlyAssigned evicts the candidate with the oldest AssignedAt.
// Ties go to the lowest slot id.
func LeastRecentlyAssigned(candidates []Assignment) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	oldest := candidates[0]
	for _, candidate := range candidates[1:] {
		switch {
		case candidate.AssignedAt.Before(oldest.AssignedAt):
			oldest = candidate
		case candidate.AssignedAt.Equal(oldest.AssignedAt) && candidate.SlotID < oldest.SlotID:
			oldest = candidate
		}
	}
	return oldest.SlotID, true
}

// EvictionCandidates returns the assignments flagged by inactive, in input
// order. A nil predicate flags nothing.
func EvictionCandidates(assignments []Assignment, inactive InactivePredicate) []Assignment {
	if inactive == nil {
		return nil
	}
	var candidates []Assignment
	for _, assignment := range assignments {
		if inactive(assignment) {
			candidates = append(candidates, assignment)
		}
	}
	return candidates
}

// Evict filters assignments to the inactive ones and lets policy choose.
func Evict(assignments []Assignment, inactive InactivePredicate, policy EvictionPolicy) (int, bool) {
	if policy == nil {
		policy = LeastRecentlyAssigned
	}
	return policy(EvictionCandidates(assignments, inactive))
}
