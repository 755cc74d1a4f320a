// Package rewrite turns untagged bare-word occurrences of known tags into
// tagged form.
package rewrite

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinel is the tag marker character.
const Sentinel = '#'

// Rule is the matching rule derived from one tag: a case-insensitive literal
// search for the tag's bare word, accepted only at word boundaries and only
// when the occurrence is not already tagged.
type Rule struct {
	word string // lowercase bare word
	re   *regexp.Regexp
}

// NewRule derives the rule for a tag token. It returns ok=false for tags
// whose bare word is empty after stripping the sentinel; such a tag must
// never yield a rule (it would match every position).
func NewRule(tag string) (Rule, bool) {
	word := strings.ToLower(strings.TrimPrefix(tag, string(Sentinel)))
	if word == "" {
		return Rule{}, false
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(word))
	return Rule{word: word, re: re}, true
}

// Tagged returns the rewritten form: sentinel + lowercase bare word. The
// original occurrence's casing is not preserved.
func (r Rule) Tagged() string {
	return string(Sentinel) + r.word
}

// Rewrite replaces every qualifying occurrence of the rule's word in text and
// reports whether anything changed.
//
// RE2 has no lookbehind, so the boundary and not-already-tagged conditions
// are checked on the runes surrounding each candidate match instead of being
// folded into the pattern.
func (r Rule) Rewrite(text string) (string, bool) {
	locs := r.re.FindAllStringIndex(text, -1)
	if locs == nil {
		return text, false
	}

	var (
		b       strings.Builder
		prev    int
		changed bool
	)
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if !r.boundaryOK(text, start, end) {
			continue
		}
		b.WriteString(text[prev:start])
		b.WriteString(r.Tagged())
		prev = end
		changed = true
	}
	if !changed {
		return text, false
	}
	b.WriteString(text[prev:])
	return b.String(), true
}

// boundaryOK reports whether the match at [start,end) sits at word boundaries
// and is not immediately preceded by the sentinel.
func (r Rule) boundaryOK(text string, start, end int) bool {
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(text[:start])
		if prev == Sentinel || isWordRune(prev) {
			return false
		}
	}
	if end < len(text) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
