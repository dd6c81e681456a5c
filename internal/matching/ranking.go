package matching

import (
	"context"
	"sort"
	"strings"

	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

// Score component weights.
const (
	overlapWeight         = 10.0
	semanticKeywordWeight = 2.5
	semanticTextWeight    = 1.0
	semanticTitleWeight   = 2.0
	categoryWeight        = 3.0
	jaccardTextWeight     = 1.0
	jaccardTitleWeight    = 2.0
)

// RankedCandidate is a scored FAQ entry. Component scores are kept so the
// dominance filter and diagnostics can inspect them.
type RankedCandidate struct {
	Entry        storage.FAQEntry
	TotalScore   float64
	OverlapCount int
	Components   map[string]float64
}

// Ranker scores candidates against a normalized query.
type Ranker struct {
	tokenizer *Tokenizer
	synonyms  *SynonymTable
	semantic  *SemanticTable
	negatives *NegativeSet
	logger    *observability.Logger
}

// NewRanker creates a Ranker.
func NewRanker(tokenizer *Tokenizer, synonyms *SynonymTable, semantic *SemanticTable, negatives *NegativeSet, logger *observability.Logger) *Ranker {
	return &Ranker{
		tokenizer: tokenizer,
		synonyms:  synonyms,
		semantic:  semantic,
		negatives: negatives,
		logger:    logger.WithComponent("ranker"),
	}
}

// Rank scores every candidate and returns them sorted by descending total
// score. originalTokens is the raw message split on whitespace, used for
// negation detection around matched keywords. Ties break on ascending
// entry ID so identical inputs always produce identical order.
func (r *Ranker) Rank(ctx context.Context, queryTokens, originalTokens []string, candidates []storage.FAQEntry) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, entry := range candidates {
		ranked = append(ranked, r.score(ctx, queryTokens, originalTokens, entry))
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].Entry.ID < ranked[j].Entry.ID
	})
	return ranked
}

func (r *Ranker) score(ctx context.Context, queryTokens, originalTokens []string, entry storage.FAQEntry) RankedCandidate {
	keywordTokens := r.resolve(strings.Join(entry.Keywords, " "), r.keywordTokens(ctx, entry.Keywords))
	bodyTokens := r.resolve(entry.Body, r.tokenizer.Normalize(ctx, entry.Body))
	titleTokens := r.resolve(entry.Title, r.tokenizer.Normalize(ctx, entry.Title))
	categoryTokens := r.resolve(entry.Category, r.tokenizer.Normalize(ctx, entry.Category))

	keywordSet := tokenSet(keywordTokens)
	categorySet := tokenSet(categoryTokens)

	overlapCount := 0
	overlapScore := 0.0
	for _, tok := range queryTokens {
		if _, ok := keywordSet[tok]; !ok {
			continue
		}
		neg := r.negatives.Detect(originalTokens, tok, -1)
		if neg.Negated {
			overlapScore += neg.Modifier * overlapWeight
			continue
		}
		overlapCount++
		overlapScore += overlapWeight
	}

	semanticKeyword := r.semanticSum(queryTokens, keywordTokens) * semanticKeywordWeight
	semanticText := r.semanticSum(queryTokens, bodyTokens) * semanticTextWeight
	semanticTitle := r.semanticSum(queryTokens, titleTokens) * semanticTitleWeight

	categoryOverlap := 0
	for _, tok := range queryTokens {
		if _, ok := categorySet[tok]; ok {
			categoryOverlap++
		}
	}
	categoryScore := float64(categoryOverlap) * categoryWeight

	jaccardText := jaccard(queryTokens, bodyTokens) * jaccardTextWeight
	jaccardTitle := jaccard(queryTokens, titleTokens) * jaccardTitleWeight

	total := overlapScore + semanticKeyword + semanticText + semanticTitle + categoryScore + jaccardText + jaccardTitle

	return RankedCandidate{
		Entry:        entry,
		TotalScore:   total,
		OverlapCount: overlapCount,
		Components: map[string]float64{
			"overlap":         overlapScore,
			"semanticKeyword": semanticKeyword,
			"semanticText":    semanticText,
			"semanticTitle":   semanticTitle,
			"category":        categoryScore,
			"jaccardText":     jaccardText,
			"jaccardTitle":    jaccardTitle,
		},
	}
}

// keywordTokens normalizes every keyword and keeps the whole lowercased
// keywords alongside their fragments, so a query token matching a full
// keyword still counts even when tokenization would split it.
func (r *Ranker) keywordTokens(ctx context.Context, keywords []string) []string {
	seen := make(map[string]struct{})
	tokens := make([]string, 0, len(keywords))
	add := func(tok string) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	for _, kw := range keywords {
		add(kw)
		for _, tok := range r.tokenizer.Normalize(ctx, kw) {
			add(tok)
		}
	}
	return tokens
}

// resolve maps candidate tokens through the synonym table so both sides of
// the match share canonical keyword forms.
func (r *Ranker) resolve(raw string, tokens []string) []string {
	if r.synonyms == nil {
		return tokens
	}
	return r.synonyms.Resolve(raw, tokens)
}

// semanticSum is the sum over query tokens of the best pairwise similarity
// against the target tokens.
func (r *Ranker) semanticSum(queryTokens, targetTokens []string) float64 {
	if len(targetTokens) == 0 {
		return 0
	}
	sum := 0.0
	for _, q := range queryTokens {
		best := 0.0
		for _, t := range targetTokens {
			if s := r.semantic.Similarity(q, t); s > best {
				best = s
			}
			if best == 1.0 {
				break
			}
		}
		sum += best
	}
	return sum
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// jaccard computes intersection-over-union of two token sets.
func jaccard(a, b []string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
