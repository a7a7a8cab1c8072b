package ui

import "unicode/utf8"

// decodeRune decodes the first rune in value. Invalid bytes decode as a
// single-column replacement so truncation still makes progress.
func decodeRune(value string) (rune, int) {
	r, size := utf8.DecodeRuneInString(value)
	if r == utf8.RuneError && size <= 1 {
		return '?', 1
	}
	return r, size
}
