package slot_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	statestore "github.com/amonks/slotpool/internal/state"
	"github.com/amonks/slotpool/slot"
	"github.com/stretchr/testify/require"
)

// fakeAdapter simulates worktrees in memory. A path with no branch entry is
// treated as a missing worktree.
type fakeAdapter struct {
	branches    map[string]string
	detached    map[string]bool
	queryErr    map[string]error
	dirty       map[string]bool
	checkoutErr error
	removeErr   error
	calls       []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		branches: map[string]string{},
		detached: map[string]bool{},
		queryErr: map[string]error{},
		dirty:    map[string]bool{},
	}
}

func (a *fakeAdapter) CurrentBranch(path string) (string, error) {
	if err := a.queryErr[path]; err != nil {
		return "", err
	}
	if a.detached[path] {
		return "", slot.ErrDetachedHead
	}
	branch, ok := a.branches[path]
	if !ok {
		return "", slot.ErrWorktreeMissing
	}
	return branch, nil
}

func (a *fakeAdapter) CheckoutOrCreateBranch(path, branch string) error {
	a.calls = append(a.calls, "checkout "+branch)
	if a.checkoutErr != nil {
		return a.checkoutErr
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	a.branches[path] = branch
	delete(a.detached, path)
	return nil
}

func (a *fakeAdapter) RemoveArtifacts(path string) error {
	a.calls = append(a.calls, "remove artifacts")
	return a.removeErr
}

func (a *fakeAdapter) IsClean(path string) (bool, error) {
	if err := a.queryErr[path]; err != nil {
		return false, err
	}
	return !a.dirty[path], nil
}

// countingStore keeps state in memory and counts loads and saves.
type countingStore struct {
	st    *slot.State
	err   error
	loads int
	saves int
	locks int
}

func newCountingStore(st *slot.State) *countingStore {
	if st == nil {
		st = statestore.New()
	}
	return &countingStore{st: st}
}

func (s *countingStore) Load() (*slot.State, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.st.Clone(), nil
}

func (s *countingStore) Save(st *slot.State) error {
	s.saves++
	s.st = st.Clone()
	return nil
}

func (s *countingStore) Lock() (func(), error) {
	s.locks++
	return func() {}, nil
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testPool struct {
	*slot.Pool
	adapter *fakeAdapter
	store   *countingStore
	clock   *fakeClock
	dir     string
}

func newTestPool(t *testing.T, size int, mutate ...func(*slot.Options)) *testPool {
	t.Helper()

	tp := &testPool{
		adapter: newFakeAdapter(),
		store:   newCountingStore(nil),
		clock:   newFakeClock(),
		dir:     t.TempDir(),
	}
	opts := slot.Options{
		WorktreesDir: tp.dir,
		Size:         size,
		Store:        tp.store,
		Adapter:      tp.adapter,
		Now:          tp.clock.Now,
	}
	for _, fn := range mutate {
		fn(&opts)
	}

	pool, err := slot.OpenWithOptions("/repo", opts)
	require.NoError(t, err)
	tp.Pool = pool
	return tp
}

func (tp *testPool) slotPath(id int) string {
	return filepath.Join(tp.dir, fmt.Sprintf("slot-%d", id))
}

// seed records an assignment and makes the fake worktree agree with it.
func (tp *testPool) seed(id int, branch string, assignedAt time.Time) slot.Assignment {
	assignment := slot.Assignment{
		SlotID:       id,
		BranchName:   branch,
		AssignedAt:   assignedAt,
		WorktreePath: tp.slotPath(id),
	}
	tp.store.st.Assignments[id] = assignment
	tp.adapter.branches[assignment.WorktreePath] = branch
	return assignment
}
