package slot

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/slotpool/internal/config"
	"github.com/amonks/slotpool/internal/git"
	"github.com/amonks/slotpool/internal/paths"
	statestore "github.com/amonks/slotpool/internal/state"
)

// Store loads and saves the recorded pool state. Callers only Save after a
// real change.
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// locker is implemented by stores that serialize access across processes.
type locker interface {
	Lock() (func(), error)
}

// Pool allocates a fixed set of worktree slots to branches.
type Pool struct {
	repoPath     string
	size         int
	worktreesDir string
	placeholder  Placeholder
	onAllocate   string

	store      Store
	adapter    Adapter
	inactive   InactivePredicate
	policy     EvictionPolicy
	logger     Logger
	now        func() time.Time
	reconciler *Reconciler
}

// Options configures a slot pool.
type Options struct {
	// StateDir is the directory holding pool.json and pool.lock.
	// Defaults to ~/.local/state/slots/<repo> if empty. Ignored when Store
	// is set.
	StateDir string

	// WorktreesDir is the directory slot worktrees are created in.
	// Defaults to ~/.local/share/slots/worktrees/<repo> if empty.
	WorktreesDir string

	// Size is the number of slots. Defaults to 4.
	Size int

	// Placeholder is the branch pattern for released slots.
	// Defaults to "slot-{id}-stub".
	Placeholder string

	// BaseRef is the revision new branches are created from. Ignored when
	// Adapter is set.
	BaseRef string

	// GitTimeout bounds each git invocation. Zero uses the git package
	// default; negative disables the timeout. Ignored when Adapter is set.
	GitTimeout time.Duration

	// OnAllocate is a script run in the worktree after a slot is bound to a
	// new branch.
	OnAllocate string

	// Store overrides the state store.
	Store Store

	// Adapter overrides the git adapter.
	Adapter Adapter

	// Inactive is the default eviction eligibility predicate for
	// AllocateOptions.ReuseInactive. Defaults to CleanWorktree when the
	// adapter can report cleanliness.
	Inactive InactivePredicate

	// Policy chooses among eviction candidates. Defaults to
	// LeastRecentlyAssigned.
	Policy EvictionPolicy

	// Logger receives pool events. Defaults to discarding them.
	Logger Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Open creates a Pool for repoPath configured from slots.toml.
func Open(repoPath string) (*Pool, error) {
	cfg, err := config.Load(repoPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return OpenWithOptions(repoPath, opts)
}

// OptionsFromConfig maps configuration onto pool options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	timeout, err := cfg.GitTimeout()
	if err != nil {
		return Options{}, err
	}
	if timeout == 0 {
		timeout = -1
	}
	return Options{
		WorktreesDir: cfg.Pool.WorktreesDir,
		Size:         cfg.Pool.Size,
		Placeholder:  cfg.Pool.Placeholder,
		BaseRef:      cfg.Pool.Base,
		GitTimeout:   timeout,
		OnAllocate:   cfg.Slot.OnAllocate,
	}, nil
}

// OpenWithOptions creates a Pool for repoPath with custom options.
func OpenWithOptions(repoPath string, opts Options) (*Pool, error) {
	if strings.TrimSpace(repoPath) == "" {
		return nil, fmt.Errorf("repo path is required")
	}

	size := opts.Size
	if size == 0 {
		size = config.DefaultSize
	}
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}

	pattern := opts.Placeholder
	if pattern == "" {
		pattern = config.DefaultPlaceholder
	}
	placeholder, err := NewPlaceholder(pattern)
	if err != nil {
		return nil, err
	}

	slug := statestore.SanitizeRepoName(repoPath)

	store := opts.Store
	if store == nil {
		stateDir := opts.StateDir
		if stateDir == "" {
			stateDir, err = paths.DefaultStateDir()
			if err != nil {
				return nil, err
			}
			stateDir = filepath.Join(stateDir, slug)
		}
		store = statestore.NewStore(stateDir)
	}

	worktreesDir := opts.WorktreesDir
	if worktreesDir == "" {
		worktreesDir, err = paths.DefaultWorktreesDir()
		if err != nil {
			return nil, err
		}
		worktreesDir = filepath.Join(worktreesDir, slug)
	}

	adapter := opts.Adapter
	if adapter == nil {
		adapter = git.NewWithOptions(repoPath, git.Options{
			BaseRef: opts.BaseRef,
			Timeout: opts.GitTimeout,
		})
	}

	inactive := opts.Inactive
	if inactive == nil {
		if checker, ok := adapter.(CleanChecker); ok {
			inactive = CleanWorktree(checker)
		}
	}

	policy := opts.Policy
	if policy == nil {
		policy = LeastRecentlyAssigned
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Pool{
		repoPath:     repoPath,
		size:         size,
		worktreesDir: worktreesDir,
		placeholder:  placeholder,
		onAllocate:   opts.OnAllocate,
		store:        store,
		adapter:      adapter,
		inactive:     inactive,
		policy:       policy,
		logger:       logger,
		now:          now,
		reconciler:   NewReconciler(adapter, placeholder, logger),
	}, nil
}

// RepoPath returns the repository the pool belongs to.
func (p *Pool) RepoPath() string {
	return p.repoPath
}

// Size returns the number of slots.
func (p *Pool) Size() int {
	return p.size
}

// Placeholder returns the pool's placeholder pattern.
func (p *Pool) Placeholder() Placeholder {
	return p.placeholder
}

// DefaultInactive returns the predicate ReuseInactive uses when a call does
// not supply its own. It may be nil.
func (p *Pool) DefaultInactive() InactivePredicate {
	return p.inactive
}

// SlotPath returns the default worktree path for slotID.
func (p *Pool) SlotPath(slotID int) string {
	return filepath.Join(p.worktreesDir, "slot-"+strconv.Itoa(slotID))
}

func (p *Pool) lock() (func(), error) {
	l, ok := p.store.(locker)
	if !ok {
		return func() {}, nil
	}
	unlock, err := l.Lock()
	if err != nil {
		return nil, fmt.Errorf("lock pool: %w", err)
	}
	return unlock, nil
}

func (p *Pool) load() (*State, error) {
	st, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if st == nil {
		st = newState()
	}
	return st, nil
}

// syncLocked loads and reconciles the state, saving only when a correction
// was made. The caller must hold the pool lock.
func (p *Pool) syncLocked() (*State, int, error) {
	st, err := p.load()
	if err != nil {
		return nil, 0, err
	}
	synced, corrected := p.reconciler.Sync(st)
	if corrected > 0 {
		if err := p.store.Save(synced); err != nil {
			return nil, 0, fmt.Errorf("save state: %w", err)
		}
	}
	return synced, corrected, nil
}

// Sync reconciles the recorded state with the worktrees and returns the
// number of corrected slots. The state file is only written when that number
// is positive.
func (p *Pool) Sync() (int, error) {
	unlock, err := p.lock()
	if err != nil {
		return 0, err
	}
	defer unlock()

	_, corrected, err := p.syncLocked()
	return corrected, err
}

func (p *Pool) inRange(slotID int) bool {
	return slotID >= 0 && slotID < p.size
}

func (p *Pool) released(assignment Assignment) bool {
	return p.placeholder.Matches(assignment.SlotID, assignment.BranchName)
}

func (p *Pool) info(slotID int, assignment Assignment, recorded bool) Info {
	item := Info{
		SlotID:  slotID,
		Path:    p.SlotPath(slotID),
		Status:  StatusFree,
		InRange: p.inRange(slotID),
	}
	if !recorded {
		return item
	}
	item.Branch = assignment.BranchName
	item.Path = assignment.WorktreePath
	item.AssignedAt = assignment.AssignedAt
	item.Status = StatusOccupied
	if p.released(assignment) {
		item.Status = StatusReleased
	}
	return item
}

// List returns every slot in the pool, plus any recorded slots beyond the
// configured size, sorted by slot id. It reads the state as recorded without
// reconciling or writing it.
func (p *Pool) List() ([]Info, error) {
	st, err := p.load()
	if err != nil {
		return nil, err
	}

	items := make([]Info, 0, p.size)
	for id := 0; id < p.size; id++ {
		assignment, ok := st.Lookup(id)
		items = append(items, p.info(id, assignment, ok))
	}
	for _, id := range st.SlotIDs() {
		if p.inRange(id) {
			continue
		}
		items = append(items, p.info(id, st.Assignments[id], true))
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].SlotID < items[j].SlotID
	})
	return items, nil
}

// Show returns one slot, named by slot id or by the branch occupying it.
func (p *Pool) Show(target string) (Info, error) {
	items, err := p.List()
	if err != nil {
		return Info{}, err
	}

	if id, ok := parseSlotID(target); ok {
		for _, item := range items {
			if item.SlotID == id {
				return item, nil
			}
		}
	}
	for _, item := range items {
		if item.Status != StatusFree && item.Branch == target {
			return item, nil
		}
	}
	return Info{}, fmt.Errorf("%w: %s", ErrSlotNotFound, target)
}

// Release checks out the slot's placeholder branch and records the slot as
// released. The target is a slot id or the branch occupying the slot.
// Releasing an already released slot changes nothing.
func (p *Pool) Release(target string) (Assignment, error) {
	unlock, err := p.lock()
	if err != nil {
		return Assignment{}, err
	}
	defer unlock()

	st, _, err := p.syncLocked()
	if err != nil {
		return Assignment{}, err
	}

	assignment, ok := resolve(st, target)
	if !ok {
		return Assignment{}, fmt.Errorf("%w: %s", ErrSlotNotFound, target)
	}

	placeholder := p.placeholder.Branch(assignment.SlotID)
	if assignment.BranchName == placeholder {
		return assignment, nil
	}

	if err := p.adapter.CheckoutOrCreateBranch(assignment.WorktreePath, placeholder); err != nil {
		return Assignment{}, &AdapterError{
			Op:     "release",
			SlotID: assignment.SlotID,
			Path:   assignment.WorktreePath,
			Branch: placeholder,
			Err:    err,
		}
	}

	previous := assignment.BranchName
	assignment.BranchName = placeholder
	assignment.AssignedAt = p.now().UTC()

	next := st.Clone()
	next.Assignments[assignment.SlotID] = assignment
	if err := p.store.Save(next); err != nil {
		return Assignment{}, fmt.Errorf("save state: %w", err)
	}

	p.logger.Release(ReleaseLog{
		SlotID:      assignment.SlotID,
		Branch:      previous,
		Placeholder: placeholder,
		Path:        assignment.WorktreePath,
	})
	return assignment, nil
}

// resolve finds a recorded assignment by slot id, falling back to branch.
func resolve(st *State, target string) (Assignment, bool) {
	if id, ok := parseSlotID(target); ok {
		if assignment, found := st.Lookup(id); found {
			return assignment, true
		}
	}
	return st.FindBranch(target)
}

func parseSlotID(target string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(target))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
