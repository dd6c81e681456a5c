package matching

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// lookBackwardWindow is how many tokens before a keyword are scanned for a
// negation marker.
const lookBackwardWindow = 3

// NegativePattern pairs a negation word with its score modifier.
type NegativePattern struct {
	Word     string
	Modifier float64
}

// inlineNegationPatterns are the built-in negation phrases checked for
// inline detection even when absent from the dynamic store. Order here is
// irrelevant; detection always tries the longest phrase first so "ไม่เอา"
// wins over bare "ไม่".
var inlineNegationPatterns = []NegativePattern{
	{Word: "ไม่เอา", Modifier: -1.0},
	{Word: "ไม่ต้อง", Modifier: -1.0},
	{Word: "ไม่อยาก", Modifier: -1.0},
	{Word: "ไม่ต้องการ", Modifier: -1.0},
	{Word: "ไม่สนใจ", Modifier: -1.0},
	{Word: "ไม่", Modifier: -1.0},
}

// BaselineNegationPatterns returns the built-in negation phrases, longest
// first. The engine seeds these into the active store when missing and not
// explicitly ignored.
func BaselineNegationPatterns() []NegativePattern {
	out := make([]NegativePattern, len(inlineNegationPatterns))
	copy(out, inlineNegationPatterns)
	sortPatternsByLengthDesc(out)
	return out
}

// NegativeSet is the loaded negation dictionary: word to weight modifier,
// with words ordered by descending length for longest-match precedence.
// Safe for concurrent use.
type NegativeSet struct {
	mu          sync.RWMutex
	modifiers   map[string]float64
	sortedWords []string
}

// NewNegativeSet creates an empty negation dictionary.
func NewNegativeSet() *NegativeSet {
	return &NegativeSet{modifiers: map[string]float64{}}
}

// Replace installs a new word-to-modifier mapping.
func (s *NegativeSet) Replace(modifiers map[string]float64) {
	if modifiers == nil {
		modifiers = map[string]float64{}
	}
	keys := make(map[string]struct{}, len(modifiers))
	for w := range modifiers {
		keys[w] = struct{}{}
	}
	sorted := sortByLengthDesc(keys)

	s.mu.Lock()
	s.modifiers = modifiers
	s.sortedWords = sorted
	s.mu.Unlock()
}

// Len returns the number of active negation words.
func (s *NegativeSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.modifiers)
}

// Modifier returns the weight modifier for a negation word.
func (s *NegativeSet) Modifier(word string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modifiers[strings.ToLower(strings.TrimSpace(word))]
	return m, ok
}

// PrefixMatch reports the longest negation word the message begins with.
// Built-in patterns participate even when the dynamic store is empty.
func (s *NegativeSet) PrefixMatch(message string) (string, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return "", false
	}

	s.mu.RLock()
	words := s.sortedWords
	s.mu.RUnlock()

	best := ""
	for _, w := range words {
		if strings.HasPrefix(msg, w) && utf8.RuneCountInString(w) > utf8.RuneCountInString(best) {
			best = w
		}
	}
	for _, p := range inlineNegationPatterns {
		if strings.HasPrefix(msg, p.Word) && utf8.RuneCountInString(p.Word) > utf8.RuneCountInString(best) {
			best = p.Word
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// NegationResult describes whether a keyword occurrence is negated.
type NegationResult struct {
	Negated  bool
	Word     string
	Modifier float64
}

// Detect checks whether keyword is negated in the token sequence. Two
// passes, first match wins: an inline pass over the token containing the
// keyword (built-in patterns before dynamic ones, longest first), then a
// look-backward pass over the preceding tokens, closest first.
func (s *NegativeSet) Detect(tokens []string, keyword string, keywordIndex int) NegationResult {
	result := NegationResult{Modifier: 1.0}

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" || len(tokens) == 0 {
		return result
	}

	idx := keywordIndex
	if idx < 0 || idx >= len(tokens) {
		idx = -1
		for i, tok := range tokens {
			lower := strings.ToLower(strings.TrimSpace(tok))
			if strings.Contains(lower, keyword) || strings.Contains(keyword, lower) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return result
	}

	holder := strings.ToLower(strings.TrimSpace(tokens[idx]))

	// Inline: a negation phrase inside the same token, before the keyword.
	if pos := strings.Index(holder, keyword); pos >= 0 {
		before := holder[:pos]

		builtin := BaselineNegationPatterns()
		for _, p := range builtin {
			if strings.Contains(before, p.Word) {
				return NegationResult{Negated: true, Word: p.Word, Modifier: p.Modifier}
			}
		}

		s.mu.RLock()
		sorted := s.sortedWords
		s.mu.RUnlock()
		for _, w := range sorted {
			if strings.Contains(before, w) {
				m, _ := s.Modifier(w)
				return NegationResult{Negated: true, Word: w, Modifier: m}
			}
		}
	}

	// Look backward: closest preceding token in the dictionary wins.
	start := idx - lookBackwardWindow
	if start < 0 {
		start = 0
	}
	for i := idx - 1; i >= start; i-- {
		tok := strings.ToLower(strings.TrimSpace(tokens[i]))
		if m, ok := s.Modifier(tok); ok {
			return NegationResult{Negated: true, Word: tok, Modifier: m}
		}
	}

	return result
}

func sortPatternsByLengthDesc(patterns []NegativePattern) {
	sort.Slice(patterns, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(patterns[i].Word), utf8.RuneCountInString(patterns[j].Word)
		if li != lj {
			return li > lj
		}
		return patterns[i].Word < patterns[j].Word
	})
}
