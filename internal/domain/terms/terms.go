// Package terms flags comment text that mentions any of a configured set of terms.
// Matching is substring based after Unicode NFC normalization and case folding,
// so "DENÚNCIA" matches the term "denúncia".
package terms

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTerms is the term set used when none is configured.
var DefaultTerms = []string{"cheater", "wall", "xitado", "xiter", "denúncia"} //nolint:gochecknoglobals // default set

// chains hands out fresh fold chains; a transform.Transformer is stateful.
var chains = sync.Pool{ //nolint:gochecknoglobals // pooled transformers
	New: func() any {
		return transform.Chain(norm.NFC, cases.Fold())
	},
}

// Fold returns the comparison form of s.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chains.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chains.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// Matcher reports whether any text contains one of its terms.
// It is safe for concurrent use.
type Matcher struct {
	terms []string
}

// NewMatcher folds and stores the given terms. Blank terms are ignored;
// an empty set falls back to DefaultTerms.
func NewMatcher(list []string) *Matcher {
	m := &Matcher{}
	for _, t := range list {
		if f := Fold(strings.TrimSpace(t)); f != "" {
			m.terms = append(m.terms, f)
		}
	}
	if len(m.terms) == 0 {
		for _, t := range DefaultTerms {
			m.terms = append(m.terms, Fold(t))
		}
	}
	return m
}

// Terms returns the folded term set.
func (m *Matcher) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// Contains reports whether text mentions any term.
func (m *Matcher) Contains(text string) bool {
	folded := Fold(text)
	for _, t := range m.terms {
		if strings.Contains(folded, t) {
			return true
		}
	}
	return false
}

// Any reports whether any of the texts mentions a term.
func (m *Matcher) Any(texts []string) bool {
	for _, text := range texts {
		if m.Contains(text) {
			return true
		}
	}
	return false
}
