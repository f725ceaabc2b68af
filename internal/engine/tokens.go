package engine

import (
	"sort"
	"sync"
)

// Tokens is the shared set of utility tokens discovered across the build.
// Every extraction merges into it concurrently.
type Tokens struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

// NewTokens creates an empty token set.
func NewTokens() *Tokens {
	return &Tokens{set: make(map[string]struct{})}
}

// Add merges tokens into the set and reports how many were new.
func (t *Tokens) Add(tokens ...string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, ok := t.set[tok]; !ok {
			t.set[tok] = struct{}{}
			added++
		}
	}
	return added
}

// Has reports whether tok has been seen.
func (t *Tokens) Has(tok string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.set[tok]
	return ok
}

// Len returns the number of distinct tokens.
func (t *Tokens) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.set)
}

// Sorted returns a sorted snapshot of the set.
func (t *Tokens) Sorted() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.set))
	for tok := range t.set {
		out = append(out, tok)
	}
	t.mu.RUnlock()

	sort.Strings(out)
	return out
}
