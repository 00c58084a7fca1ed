// Package match maps free-text time entries onto workspace task records.
// Client names match loosely (prefix either way, plus curated aliases);
// task names match on a normalized form of the entry's first line. This is a
// deliberate compromise for messy real-world naming, not a general fuzzy
// matcher.
package match

import (
	"strings"
	"unicode"
)

// Matcher holds the alias table for known naming mismatches between the two
// systems (e.g. one provider's "internal tasks" bucket is the other's
// top-level account name).
type Matcher struct {
	aliases map[string]string // normalized name -> normalized canonical name
}

// New creates a Matcher. aliases maps a client name in one system to its
// equivalent in the other; both sides are normalized before use.
func New(aliases map[string]string) *Matcher {
	m := &Matcher{aliases: make(map[string]string, len(aliases))}
	for k, v := range aliases {
		m.aliases[normalizeClient(k)] = normalizeClient(v)
	}
	return m
}

// MatchClientName reports whether two client names refer to the same client:
// case-insensitive, whitespace-trimmed, one a prefix of the other in either
// direction, after alias resolution.
func (m *Matcher) MatchClientName(a, b string) bool {
	na := m.canonical(normalizeClient(a))
	nb := m.canonical(normalizeClient(b))
	if na == "" || nb == "" {
		return false
	}
	return strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na)
}

// MatchTaskName reports whether two task labels are the same task: exact
// equality of their normalized forms.
func (m *Matcher) MatchTaskName(a, b string) bool {
	na := NormalizeTaskName(a)
	return na != "" && na == NormalizeTaskName(b)
}

func (m *Matcher) canonical(name string) string {
	if alias, ok := m.aliases[name]; ok {
		return alias
	}
	return name
}

func normalizeClient(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TaskLabel extracts the task label from a time entry's notes: the first
// line only, trimmed. Free-text detail on later lines is ignored.
func TaskLabel(notes string) string {
	line, _, _ := strings.Cut(notes, "\n")
	return strings.TrimSpace(line)
}

// NormalizeTaskName reduces a task label to its comparable form: first line
// only, bracketed and parenthesised segments stripped, lowercased, and only
// alphanumeric characters kept.
func NormalizeTaskName(s string) string {
	line := TaskLabel(s)
	line = stripEnclosed(line, '[', ']')
	line = stripEnclosed(line, '(', ')')

	var b strings.Builder
	for _, r := range strings.ToLower(line) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripEnclosed removes open...close segments, tolerating unbalanced input
// (an unclosed open drops the rest of the line).
func stripEnclosed(s string, open, close rune) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == open:
			depth++
		case r == close:
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
