package slot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/amonks/slotpool/internal/config"
)

// Placeholder is the branch name pattern written to released slots. The
// pattern's {id} token is replaced with the slot id.
type Placeholder struct {
	pattern string
	re      *regexp.Regexp
}

// NewPlaceholder compiles a placeholder pattern such as "slot-{id}-stub".
func NewPlaceholder(pattern string) (Placeholder, error) {
	pattern = strings.TrimSpace(pattern)
	if !strings.Contains(pattern, config.PlaceholderToken) {
		return Placeholder{}, fmt.Errorf("placeholder %q must contain %s", pattern, config.PlaceholderToken)
	}

	parts := strings.Split(pattern, config.PlaceholderToken)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	re, err := regexp.Compile(`^` + strings.Join(parts, `(\d+)`) + `$`)
	if err != nil {
		return Placeholder{}, fmt.Errorf("compile placeholder %q: %w", pattern, err)
	}
	return Placeholder{pattern: pattern, re: re}, nil
}

// MustPlaceholder is like NewPlaceholder but panics on an invalid pattern.
func MustPlaceholder(pattern string) Placeholder {
	p, err := NewPlaceholder(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Pattern returns the uncompiled pattern.
func (p Placeholder) Pattern() string {
	return p.pattern
}

// Branch returns the placeholder branch for slotID.
func (p Placeholder) Branch(slotID int) string {
	return strings.ReplaceAll(p.pattern, config.PlaceholderToken, strconv.Itoa(slotID))
}

// Matches reports whether branch is slotID's own placeholder.
func (p Placeholder) Matches(slotID int, branch string) bool {
	return p.pattern != "" && branch == p.Branch(slotID)
}

// MatchesAny reports whether branch has the shape of any slot's placeholder.
func (p Placeholder) MatchesAny(branch string) bool {
	return p.re != nil && p.re.MatchString(branch)
}
