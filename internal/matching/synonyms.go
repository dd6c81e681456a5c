package matching

import (
	"strings"
	"sync"
)

// SynonymTable rewrites tokens to canonical keyword forms. Safe for
// concurrent use; Replace swaps the whole mapping on reload.
type SynonymTable struct {
	mu      sync.RWMutex
	mapping map[string]string
	// keys sorted by descending length so longer synonym keys are scanned
	// before their own substrings
	sortedKeys []string
}

// NewSynonymTable creates an empty synonym table.
func NewSynonymTable() *SynonymTable {
	return &SynonymTable{mapping: map[string]string{}}
}

// Replace installs a new input-word to canonical-keyword mapping.
func (t *SynonymTable) Replace(mapping map[string]string) {
	if mapping == nil {
		mapping = map[string]string{}
	}
	keys := make(map[string]struct{}, len(mapping))
	for k := range mapping {
		keys[k] = struct{}{}
	}
	sorted := sortByLengthDesc(keys)

	t.mu.Lock()
	t.mapping = mapping
	t.sortedKeys = sorted
	t.mu.Unlock()
}

// Len returns the number of mappings.
func (t *SynonymTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.mapping)
}

// Resolve maps each token to its canonical keyword when one exists, then
// scans the whitespace-stripped raw message for synonym keys that
// tokenization may have fragmented and injects their canonical forms.
// Guarantees that a query like "สามหกห้า" still surfaces "365".
func (t *SynonymTable) Resolve(raw string, tokens []string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.mapping) == 0 {
		return tokens
	}

	out := make([]string, 0, len(tokens))
	present := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		key := strings.ToLower(strings.TrimSpace(tok))
		if canonical, ok := t.mapping[key]; ok {
			tok = canonical
		}
		out = append(out, tok)
		present[tok] = struct{}{}
	}

	stripped := strings.ToLower(stripWhitespace(raw))
	for _, key := range t.sortedKeys {
		if !strings.Contains(stripped, key) {
			continue
		}
		canonical := t.mapping[key]
		if _, ok := present[canonical]; ok {
			continue
		}
		out = append(out, canonical)
		present[canonical] = struct{}{}
	}
	return out
}

func stripWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
