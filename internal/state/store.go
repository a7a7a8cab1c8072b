package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
)

// Store manages the pool state file and its lock file.
type Store struct {
	dir string
}

// NewStore creates a new state store using the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the path to the state file.
func (s *Store) Path() string {
	return filepath.Join(s.dir, "pool.json")
}

// lockPath returns the path to the lock file.
func (s *Store) lockPath() string {
	return filepath.Join(s.dir, "pool.lock")
}

// Load reads the state from disk. Returns an empty state if the file doesn't
// exist, and a *CorruptStateError if it exists but cannot be decoded.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st := New()
	if err := json.Unmarshal(data, st); err != nil {
		return nil, &CorruptStateError{Path: s.Path(), Err: err}
	}

	return st, nil
}

// Save writes the state to disk atomically. The file is left untouched when
// its contents already match.
func (s *Store) Save(st *State) error {
	if st == nil {
		return fmt.Errorf("save state: nil state")
	}

	// Ensure directory exists
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	if existing, err := os.ReadFile(s.Path()); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read state file: %w", err)
	}

	// Write atomically via temp file
	tmpFile, err := os.CreateTemp(s.dir, filepath.Base(s.Path())+".tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := os.Rename(name, s.Path()); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename state file: %w", err)
	}

	return nil
}

// Lock takes an exclusive lock on the pool, blocking until it is available.
// The returned function releases it. The lock is not reentrant: callers must
// not Lock again before unlocking.
func (s *Store) Lock() (func(), error) {
	// Ensure directory exists
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	return func() {
		syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)
		lockFile.Close()
	}, nil
}

var (
	repoNameInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	repoNameHyphenRuns   = regexp.MustCompile(`-+`)
)

// SanitizeRepoName converts a file path to a safe directory name.
func SanitizeRepoName(path string) string {
	// Expand ~ if present
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	path = strings.TrimPrefix(path, "/")
	path = strings.ToLower(path)

	// Replace path separators and spaces with hyphens
	path = strings.ReplaceAll(path, "/", "-")
	path = strings.ReplaceAll(path, " ", "-")

	path = repoNameInvalidChars.ReplaceAllString(path, "")
	path = repoNameHyphenRuns.ReplaceAllString(path, "-")

	return strings.Trim(path, "-")
}
