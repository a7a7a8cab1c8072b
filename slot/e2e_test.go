package slot_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amonks/slotpool/internal/testsupport"
	"github.com/amonks/slotpool/slot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openGitPool(t *testing.T, size int) (*slot.Pool, string, *fakeClock) {
	t.Helper()
	repoPath := testsupport.InitGitRepo(t)
	clock := newFakeClock()
	base := t.TempDir()

	pool, err := slot.OpenWithOptions(repoPath, slot.Options{
		StateDir:     filepath.Join(base, "state"),
		WorktreesDir: filepath.Join(base, "worktrees"),
		Size:         size,
		Now:          clock.Now,
	})
	require.NoError(t, err)
	return pool, repoPath, clock
}

func TestPoolWithGit_AllocateEvictAndRelease(t *testing.T) {
	pool, _, clock := openGitPool(t, 2)

	a, err := pool.Allocate("a", slot.AllocateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, a.SlotID)
	assert.Equal(t, "a", testsupport.RunGit(t, a.WorktreePath, "symbolic-ref", "--short", "HEAD"))

	clock.Advance(time.Minute)
	b, err := pool.Allocate("b", slot.AllocateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.SlotID)

	again, err := pool.Allocate("a", slot.AllocateOptions{})
	require.NoError(t, err)
	assert.Equal(t, slot.OutcomeReused, again.Outcome)

	_, err = pool.Allocate("c", slot.AllocateOptions{})
	var exhausted *slot.PoolExhaustedError
	require.ErrorAs(t, err, &exhausted)

	// Uncommitted work keeps slot 0 active, so slot 1 is evicted even though
	// it is newer.
	require.NoError(t, os.WriteFile(filepath.Join(a.WorktreePath, "wip.txt"), []byte("wip"), 0644))
	clock.Advance(time.Minute)
	c, err := pool.Allocate("c", slot.AllocateOptions{ReuseInactive: true})
	require.NoError(t, err)
	assert.Equal(t, slot.OutcomeEvicted, c.Outcome)
	assert.Equal(t, 1, c.SlotID)
	assert.Equal(t, "c", testsupport.RunGit(t, c.WorktreePath, "symbolic-ref", "--short", "HEAD"))

	released, err := pool.Release("c")
	require.NoError(t, err)
	assert.Equal(t, "slot-1-stub", released.BranchName)
	assert.Equal(t, "slot-1-stub", testsupport.RunGit(t, c.WorktreePath, "symbolic-ref", "--short", "HEAD"))

	d, err := pool.Allocate("d", slot.AllocateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, d.SlotID)
	assert.Equal(t, slot.OutcomeBound, d.Outcome)
}

func TestPoolWithGit_SyncCorrectsDrift(t *testing.T) {
	pool, _, _ := openGitPool(t, 2)

	a, err := pool.Allocate("a", slot.AllocateOptions{})
	require.NoError(t, err)

	testsupport.RunGit(t, a.WorktreePath, "checkout", "--quiet", "-b", "renamed")

	corrected, err := pool.Sync()
	require.NoError(t, err)
	assert.Equal(t, 1, corrected)

	info, err := pool.Show("0")
	require.NoError(t, err)
	assert.Equal(t, "renamed", info.Branch)
	assert.True(t, a.AssignedAt.Equal(info.AssignedAt), "drift correction keeps assigned_at")

	corrected, err = pool.Sync()
	require.NoError(t, err)
	assert.Equal(t, 0, corrected)
}

func TestPoolWithGit_DetachedAndMissingWorktrees(t *testing.T) {
	pool, _, _ := openGitPool(t, 2)

	a, err := pool.Allocate("a", slot.AllocateOptions{})
	require.NoError(t, err)
	b, err := pool.Allocate("b", slot.AllocateOptions{})
	require.NoError(t, err)

	testsupport.RunGit(t, a.WorktreePath, "checkout", "--quiet", "--detach")
	require.NoError(t, os.RemoveAll(b.WorktreePath))

	corrected, err := pool.Sync()
	require.NoError(t, err)
	assert.Equal(t, 0, corrected)

	items, err := pool.List()
	require.NoError(t, err)
	assert.Equal(t, "a", items[0].Branch)
	assert.Equal(t, "b", items[1].Branch)

	// Reallocating a branch whose worktree vanished returns the recorded slot.
	again, err := pool.Allocate("b", slot.AllocateOptions{})
	require.NoError(t, err)
	assert.Equal(t, slot.OutcomeReused, again.Outcome)
}

func TestPoolWithGit_CleanupArtifacts(t *testing.T) {
	pool, _, clock := openGitPool(t, 1)

	a, err := pool.Allocate("a", slot.AllocateOptions{})
	require.NoError(t, err)
	artifact := filepath.Join(a.WorktreePath, "build.out")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0644))

	clock.Advance(time.Minute)
	_, err = pool.Allocate("b", slot.AllocateOptions{Force: true, CleanupArtifacts: true})
	require.NoError(t, err)

	_, statErr := os.Stat(artifact)
	assert.True(t, os.IsNotExist(statErr))
}
