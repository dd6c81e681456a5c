package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/campusbot/faq-engine/internal/observability"
)

var asciiOnlyPattern = regexp.MustCompile(`^[a-zA-Z0-9\s.,?!]+$`)

// FilterConfig tunes the dominance filter.
type FilterConfig struct {
	// MinTopScore is the absolute score the top candidate must exceed
	// before the relative cutoff applies.
	MinTopScore float64
	// RelativeCutoff keeps candidates scoring at least this fraction of
	// the top score when no keyword overlap exists.
	RelativeCutoff float64
	// GenericTerms are keywords too broad to drive specific-term
	// narrowing.
	GenericTerms []string
}

// Filter narrows ranked candidates so literal keyword hits always win over
// fuzzy scores.
type Filter struct {
	cfg     FilterConfig
	generic map[string]struct{}
	logger  *observability.Logger
}

// NewFilter creates a Filter.
func NewFilter(cfg FilterConfig, logger *observability.Logger) *Filter {
	generic := make(map[string]struct{}, len(cfg.GenericTerms))
	for _, t := range cfg.GenericTerms {
		generic[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &Filter{cfg: cfg, generic: generic, logger: logger.WithComponent("filter")}
}

// Apply runs dominance filtering and specific-term narrowing over ranked
// candidates. An empty result means no candidate was convincing enough.
func (f *Filter) Apply(rawQuery string, ranked []RankedCandidate) []RankedCandidate {
	if len(ranked) == 0 {
		return nil
	}

	maxOverlap := 0
	for _, c := range ranked {
		if c.OverlapCount > maxOverlap {
			maxOverlap = c.OverlapCount
		}
	}

	var surviving []RankedCandidate
	if maxOverlap > 0 {
		for _, c := range ranked {
			if c.OverlapCount == maxOverlap {
				surviving = append(surviving, c)
			}
		}
	} else {
		top := ranked[0].TotalScore
		if top <= f.cfg.MinTopScore {
			f.logger.Debug().Float64("top_score", top).Msg("top score below threshold, inconclusive")
			return nil
		}
		cutoff := top * f.cfg.RelativeCutoff
		for _, c := range ranked {
			if c.TotalScore >= cutoff {
				surviving = append(surviving, c)
			}
		}
	}

	return f.narrowBySpecificTerm(rawQuery, surviving)
}

// narrowBySpecificTerm restricts survivors to candidates sharing a
// sufficiently specific keyword of the top result that the user typed
// verbatim.
func (f *Filter) narrowBySpecificTerm(rawQuery string, surviving []RankedCandidate) []RankedCandidate {
	if len(surviving) < 2 {
		return surviving
	}

	// Whitespace is stripped from both sides so a keyword the user split
	// across tokens still counts as typed.
	query := stripWhitespace(strings.ToLower(rawQuery))
	term := ""
	for _, kw := range surviving[0].Entry.Keywords {
		kw = stripWhitespace(strings.ToLower(kw))
		if utf8.RuneCountInString(kw) <= 4 {
			continue
		}
		if _, ok := f.generic[kw]; ok {
			continue
		}
		if !strings.Contains(query, kw) {
			continue
		}
		if utf8.RuneCountInString(kw) > utf8.RuneCountInString(term) {
			term = kw
		}
	}
	if term == "" {
		return surviving
	}

	narrowed := make([]RankedCandidate, 0, len(surviving))
	for _, c := range surviving {
		if candidateMentions(c.Entry.Keywords, c.Entry.Title, term) {
			narrowed = append(narrowed, c)
		}
	}
	if len(narrowed) == 0 {
		return surviving
	}
	f.logger.Debug().Str("term", term).Int("kept", len(narrowed)).Msg("narrowed by specific term")
	return narrowed
}

func candidateMentions(keywords []string, title, term string) bool {
	for _, kw := range keywords {
		if strings.Contains(stripWhitespace(strings.ToLower(kw)), term) {
			return true
		}
	}
	return strings.Contains(stripWhitespace(strings.ToLower(title)), term)
}

// StrictNoMatch reports whether an ASCII-only query has no lexical
// connection to the known keyword and category vocabulary. Such queries
// skip ranking entirely. A partial match requires the token to be longer
// than two runes.
func StrictNoMatch(rawQuery string, queryTokens, knownKeywords, knownCategories []string) bool {
	query := strings.TrimSpace(rawQuery)
	if query == "" || !asciiOnlyPattern.MatchString(query) {
		return false
	}

	vocab := make([]string, 0, len(knownKeywords)+len(knownCategories))
	for _, w := range knownKeywords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			vocab = append(vocab, w)
		}
	}
	for _, w := range knownCategories {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			vocab = append(vocab, w)
		}
	}

	for _, tok := range queryTokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		long := utf8.RuneCountInString(tok) > 2
		for _, w := range vocab {
			if tok == w {
				return false
			}
			if long && (strings.Contains(w, tok) || strings.Contains(tok, w)) {
				return false
			}
		}
	}
	return true
}
