package model

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Movie is the film a session screens. The core only reads it: Key is
// the lookup identity, Title and Director are display fields.
type Movie struct {
	Title    string `json:"title"`
	Director string `json:"director"`
}

// Key returns the case-insensitive identity of the movie.
func (m Movie) Key() string {
	return MovieKey(m.Title)
}

func (m Movie) String() string {
	return fmt.Sprintf("%q (%s)", m.Title, m.Director)
}

// MovieKey normalizes a title for lookups.
func MovieKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// CapitalizeFirst trims s and upper-cases its first letter. Titles and
// directors are stored in this form.
func CapitalizeFirst(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
