package cli

// ABOUTME: Fuzzy "did you mean" suggestions for mistyped resource classes.

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kstenerud/devcli/internal/prune"
)

// classError is a usage error that carries class suggestions.
type classError struct {
	msg string
	err error
}

func (e *classError) Error() string { return e.msg }
func (e *classError) Unwrap() error { return e.err }

// unknownClassError wraps a ParseClass failure with the known class names
// closest to what was typed.
func unknownClassError(name string, err error) error {
	name = strings.ToLower(name)
	var suggestions []string
	for _, c := range append(append([]prune.Class{}, prune.Order...), prune.ClassAll) {
		if levenshtein(name, string(c)) <= 3 {
			suggestions = append(suggestions, string(c))
		}
	}
	sort.Strings(suggestions)

	msg := err.Error()
	if len(suggestions) > 0 {
		msg = fmt.Sprintf("%s\n\nDid you mean: %s?", msg, strings.Join(suggestions, ", "))
	}
	return &UsageError{Err: &classError{msg: msg, err: err}}
}

// levenshtein is the edit distance between a typed class and a known one.
func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
