package slot

import (
	"errors"
	"fmt"
)

// ObservationKind classifies what the adapter reported for a worktree.
type ObservationKind int

const (
	// ObservedBranch means a branch is checked out.
	ObservedBranch ObservationKind = iota
	// ObservedMissing means the worktree directory does not exist.
	ObservedMissing
	// ObservedDetached means HEAD is not a branch.
	ObservedDetached
	// ObservedError means the adapter query failed for another reason.
	ObservedError
)

// Observation is the ground truth for one slot's worktree.
type Observation struct {
	Kind   ObservationKind
	Branch string
	Err    error
}

// Observe asks the adapter for the branch in every recorded slot.
func Observe(adapter Adapter, st *State) map[int]Observation {
	observed := make(map[int]Observation, len(st.Assignments))
	for _, id := range st.SlotIDs() {
		observed[id] = observe(adapter, st.Assignments[id].WorktreePath)
	}
	return observed
}

func observe(adapter Adapter, path string) Observation {
	branch, err := adapter.CurrentBranch(path)
	switch {
	case err == nil:
		return Observation{Kind: ObservedBranch, Branch: branch}
	case errors.Is(err, ErrWorktreeMissing):
		return Observation{Kind: ObservedMissing}
	case errors.Is(err, ErrDetachedHead):
		return Observation{Kind: ObservedDetached}
	default:
		return Observation{Kind: ObservedError, Err: err}
	}
}

// DispositionKind is the action reconciliation took for one slot.
type DispositionKind int

const (
	// DispositionMissing leaves a slot whose worktree is gone.
	DispositionMissing DispositionKind = iota
	// DispositionDetached leaves a slot whose HEAD is detached.
	DispositionDetached
	// DispositionQueryFailed leaves a slot the adapter could not inspect.
	DispositionQueryFailed
	// DispositionUnchanged means the recorded branch is checked out.
	DispositionUnchanged
	// DispositionPlaceholder leaves a slot holding its placeholder branch.
	DispositionPlaceholder
	// DispositionCorrected overwrites the recorded branch with the observed one.
	DispositionCorrected
)

func (k DispositionKind) String() string {
	switch k {
	case DispositionMissing:
		return "worktree missing"
	case DispositionDetached:
		return "detached HEAD"
	case DispositionQueryFailed:
		return "query failed"
	case DispositionUnchanged:
		return "unchanged"
	case DispositionPlaceholder:
		return "placeholder"
	case DispositionCorrected:
		return "corrected"
	default:
		return "unknown"
	}
}

// Disposition records what reconciliation decided for one slot.
type Disposition struct {
	SlotID   int
	Kind     DispositionKind
	Recorded string
	Observed string
	Err      error
}

var errNotObserved = errors.New("not observed")

// Reconcile corrects recorded branch names to match observed ones. It never
// adds or removes assignments and never changes AssignedAt.
//
// When nothing is corrected the recorded state itself is returned, so callers
// can compare pointers to decide whether a write is needed. Otherwise a
// corrected copy is returned and recorded is left unmodified.
func Reconcile(recorded *State, observed map[int]Observation, placeholder Placeholder) (*State, []Disposition) {
	ids := recorded.SlotIDs()
	dispositions := make([]Disposition, 0, len(ids))
	corrected := 0

	for _, id := range ids {
		assignment := recorded.Assignments[id]
		obs, ok := observed[id]
		if !ok {
			obs = Observation{Kind: ObservedError, Err: errNotObserved}
		}

		d := Disposition{SlotID: id, Recorded: assignment.BranchName, Observed: obs.Branch}
		switch {
		case obs.Kind == ObservedMissing:
			d.Kind = DispositionMissing
		case obs.Kind == ObservedDetached:
			d.Kind = DispositionDetached
		case obs.Kind == ObservedError:
			d.Kind = DispositionQueryFailed
			d.Err = obs.Err
		case obs.Branch == assignment.BranchName:
			d.Kind = DispositionUnchanged
		case placeholder.Matches(id, obs.Branch):
			d.Kind = DispositionPlaceholder
		default:
			d.Kind = DispositionCorrected
			corrected++
		}
		dispositions = append(dispositions, d)
	}

	if corrected == 0 {
		return recorded, dispositions
	}

	next := recorded.Clone()
	for _, d := range dispositions {
		if d.Kind != DispositionCorrected {
			continue
		}
		assignment := next.Assignments[d.SlotID]
		assignment.BranchName = d.Observed
		next.Assignments[d.SlotID] = assignment
	}
	return next, dispositions
}

// Corrections counts the corrected dispositions.
func Corrections(dispositions []Disposition) int {
	count := 0
	for _, d := range dispositions {
		if d.Kind == DispositionCorrected {
			count++
		}
	}
	return count
}

// Reconciler brings recorded state in line with the worktrees.
type Reconciler struct {
	adapter     Adapter
	placeholder Placeholder
	logger      Logger
}

// NewReconciler creates a Reconciler. A nil logger discards entries.
func NewReconciler(adapter Adapter, placeholder Placeholder, logger Logger) *Reconciler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Reconciler{adapter: adapter, placeholder: placeholder, logger: logger}
}

// Sync observes every recorded slot and reconciles st against it. It returns
// the resulting state and the number of corrections; zero corrections means
// the returned pointer is st and no write is needed.
func (r *Reconciler) Sync(st *State) (*State, int) {
	if st == nil {
		st = newState()
	}
	next, dispositions := Reconcile(st, Observe(r.adapter, st), r.placeholder)
	r.logger.Reconcile(ReconcileLog{Dispositions: dispositions})
	return next, Corrections(dispositions)
}

func (d Disposition) String() string {
	switch d.Kind {
	case DispositionCorrected:
		return fmt.Sprintf("slot %d: %s -> %s", d.SlotID, d.Recorded, d.Observed)
	case DispositionQueryFailed:
		return fmt.Sprintf("slot %d: %s: %v", d.SlotID, d.Kind, d.Err)
	default:
		return fmt.Sprintf("slot %d: %s", d.SlotID, d.Kind)
	}
}
