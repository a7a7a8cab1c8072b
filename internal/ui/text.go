package ui

import (
	"strings"

	internalstrings "github.com/amonks/slotpool/internal/strings"
	"github.com/muesli/reflow/wordwrap"
)

// IndentBlock prefixes each line with spaces.
func IndentBlock(value string, spaces int) string {
	value = internalstrings.TrimTrailingNewlines(value)
	if spaces <= 0 {
		return value
	}
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

// ReflowIndentedText wraps and preserves indentation levels.
func ReflowIndentedText(value string, width int, baseIndent int) string {
	value = internalstrings.NormalizeNewlines(value)
	value = strings.TrimRight(value, "\n")
	if internalstrings.IsBlank(value) {
		return IndentBlock("-", baseIndent)
	}

	lines := strings.Split(value, "\n")
	var out []string
	for i := 0; i < len(lines); {
		line := lines[i]
		if internalstrings.IsBlank(line) {
			out = append(out, strings.Repeat(" ", baseIndent))
			i++
			continue
		}
		indent := internalstrings.LeadingSpaces(line)
		var parts []string
		for i < len(lines) {
			line = lines[i]
			if internalstrings.IsBlank(line) {
				break
			}
			if internalstrings.LeadingSpaces(line) != indent {
				break
			}
			parts = append(parts, strings.TrimSpace(line[indent:]))
			i++
		}
		normalized := internalstrings.NormalizeWhitespace(strings.Join(parts, " "))
		if normalized == "" {
			out = append(out, strings.Repeat(" ", baseIndent+indent)+"-")
			continue
		}
		wrapWidth := width - baseIndent - indent
		if wrapWidth < 1 {
			wrapWidth = 1
		}
		wrapped := wordwrap.String(normalized, wrapWidth)
		wrapped = IndentBlock(wrapped, baseIndent+indent)
		out = append(out, strings.Split(wrapped, "\n")...)
	}
	return strings.Join(out, "\n")
}
