package matching

import (
	"strings"
	"sync"
)

// SemanticTable holds pairwise token similarities loaded from the semantic
// pair store. An empty table degrades to pure lexical overlap: exact match
// scores 1.0, everything else 0.0.
type SemanticTable struct {
	mu    sync.RWMutex
	pairs map[string]map[string]float64
}

// NewSemanticTable creates an empty similarity table.
func NewSemanticTable() *SemanticTable {
	return &SemanticTable{pairs: map[string]map[string]float64{}}
}

// Replace installs a new pair mapping.
func (t *SemanticTable) Replace(pairs map[string]map[string]float64) {
	if pairs == nil {
		pairs = map[string]map[string]float64{}
	}
	t.mu.Lock()
	t.pairs = pairs
	t.mu.Unlock()
}

// Len returns the number of source tokens with at least one pairing.
func (t *SemanticTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.pairs)
}

// Similarity returns the similarity between two tokens. Exact matches are
// 1.0 regardless of table contents; table entries are consulted in both
// directions.
func (t *SemanticTable) Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.pairs[a]; ok {
		if v, ok := m[b]; ok {
			return v
		}
	}
	if m, ok := t.pairs[b]; ok {
		if v, ok := m[a]; ok {
			return v
		}
	}
	return 0
}
