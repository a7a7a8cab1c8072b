package state

import "fmt"

// CorruptStateError reports a state file that exists but cannot be parsed.
// It is never repaired automatically; the caller decides how to recover.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt pool state %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error {
	return e.Err
}
