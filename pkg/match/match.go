// Package match holds the keyword helpers and the ordered first-match rule
// engine shared by the intent classifier and the knowledge base.
package match

import (
	"strings"
	"unicode"
)

// Rule pairs a result with the predicate that selects it.
type Rule[T any] struct {
	Result T
	Match  func(normalized string) bool
}

// First evaluates rules in order against normalized input and returns the
// result of the first rule that matches.
func First[T any](rules []Rule[T], normalized string) (T, bool) {
	for _, r := range rules {
		if r.Match(normalized) {
			return r.Result, true
		}
	}
	var zero T
	return zero, false
}

// Normalize lower-cases and trims a message.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tokens splits s into letter/digit runs.
func Tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenSet returns the tokens of s as a set.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokens(s) {
		set[t] = struct{}{}
	}
	return set
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ContainsAnyWord reports whether any keyword appears in s on word
// boundaries. Multi-word keywords match as a token sequence.
func ContainsAnyWord(s string, keywords []string) bool {
	tokens := Tokens(s)
	for _, kw := range keywords {
		if containsSeq(tokens, Tokens(kw)) {
			return true
		}
	}
	return false
}

func containsSeq(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j := range seq {
			if tokens[i+j] != seq[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
