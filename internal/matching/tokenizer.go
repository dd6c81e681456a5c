// Package matching implements the query matching and ranking engine behind
// the chatbot: tokenization, synonym and stopword resolution, negation
// detection, candidate ranking and the keyword-dominance filter.
package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/campusbot/faq-engine/internal/observability"
)

// StopwordProvider supplies the current active stopword set.
type StopwordProvider interface {
	Active(ctx context.Context) map[string]struct{}
}

// RemoteTokenizer calls an external word-segmentation service.
type RemoteTokenizer struct {
	httpClient *http.Client
	url        string
}

// RemoteTokenizerConfig holds remote tokenizer settings.
type RemoteTokenizerConfig struct {
	URL     string
	Timeout time.Duration
}

// NewRemoteTokenizer creates a client for the segmentation service.
// Returns nil when no URL is configured; the adapter then always uses
// local segmentation.
func NewRemoteTokenizer(cfg RemoteTokenizerConfig) *RemoteTokenizer {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RemoteTokenizer{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
	}
}

type tokenizeRequest struct {
	Text string `json:"text"`
}

type tokenizeResponse struct {
	Tokens []string `json:"tokens"`
}

// Tokenize sends the text to the segmentation service. Any non-2xx status,
// malformed body or timeout is returned as an error; callers fall back to
// local segmentation.
func (t *RemoteTokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	body, err := json.Marshal(tokenizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("tokenizer status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed tokenizeResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	tokens := make([]string, 0, len(parsed.Tokens))
	for _, tok := range parsed.Tokens {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}

// Tokenizer turns raw text into normalized tokens. It prefers the remote
// segmentation service and falls back to local stopword-based splitting.
type Tokenizer struct {
	remote    *RemoteTokenizer
	stopwords StopwordProvider
	logger    *observability.Logger
}

// NewTokenizer creates the tokenizer adapter.
func NewTokenizer(remote *RemoteTokenizer, stopwords StopwordProvider, logger *observability.Logger) *Tokenizer {
	return &Tokenizer{
		remote:    remote,
		stopwords: stopwords,
		logger:    logger.WithComponent("tokenizer"),
	}
}

// Normalize converts text into a sequence of lowercased, stopword-free
// tokens. It never returns an error: remote failure degrades to local
// segmentation, and a query made up entirely of stopwords yields an empty
// slice.
func (t *Tokenizer) Normalize(ctx context.Context, text string) []string {
	cleaned := CleanText(text)
	if cleaned == "" {
		return nil
	}

	stopwords := t.stopwords.Active(ctx)
	sorted := sortByLengthDesc(stopwords)

	if t.remote != nil {
		tokens, err := t.remote.Tokenize(ctx, cleaned)
		if err != nil {
			t.logger.Warn().Err(err).Msg("remote tokenizer failed, using local segmentation")
		} else if len(tokens) > 0 {
			return refineTokens(tokens, stopwords, sorted)
		}
	}

	return refineTokens(t.segmentLocal(cleaned, stopwords, sorted), stopwords, sorted)
}

// segmentLocal splits text without the segmentation service: short
// stopwords act as delimiters, then whitespace, then short stopword
// prefixes are stripped.
func (t *Tokenizer) segmentLocal(cleaned string, stopwords map[string]struct{}, sorted []string) []string {
	segmented := cleaned
	for i := len(sorted) - 1; i >= 0; i-- { // shortest stopwords first
		sw := sorted[i]
		if utf8.RuneCountInString(sw) <= 4 {
			segmented = strings.ReplaceAll(segmented, sw, " ")
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(segmented) {
		if _, ok := stopwords[tok]; ok {
			continue
		}
		stripped := tok
		for _, sw := range sorted {
			if utf8.RuneCountInString(sw) <= 2 && strings.HasPrefix(stripped, sw) && len(stripped) > len(sw) {
				stripped = stripped[len(sw):]
				break
			}
		}
		if stripped == "" {
			continue
		}
		if _, ok := stopwords[stripped]; ok {
			continue
		}
		tokens = append(tokens, stripped)
	}
	return tokens
}

// refineTokens splits any token that still contains a stopword as a
// substring into its surrounding fragments, longest stopword first.
// Recursion always operates on strictly shorter fragments, so the pass
// terminates for every input. Exact stopwords and duplicates are dropped.
func refineTokens(tokens []string, stopwords map[string]struct{}, sorted []string) []string {
	var out []string
	seen := make(map[string]struct{})

	var expand func(tok string)
	expand = func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		if _, stop := stopwords[tok]; stop {
			return
		}
		for _, sw := range sorted {
			if sw == "" || sw == tok {
				continue
			}
			if strings.Contains(tok, sw) {
				for _, part := range strings.Split(tok, sw) {
					expand(part)
				}
				return
			}
		}
		out = append(out, tok)
	}

	for _, tok := range tokens {
		expand(tok)
	}
	return out
}

// CleanText lowercases and trims text, replaces punctuation and symbols
// with spaces and separates letter-digit boundaries, so "มี2.00" becomes
// "มี 2 00".
func CleanText(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))

	var b strings.Builder
	b.Grow(len(lowered) + 8)
	var prev rune
	for _, r := range lowered {
		switch {
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			b.WriteRune(' ')
			prev = ' '
			continue
		case unicode.IsLetter(r) && unicode.IsDigit(prev),
			unicode.IsDigit(r) && unicode.IsLetter(prev):
			b.WriteRune(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// SimpleTokenize splits raw text on whitespace and punctuation without any
// stopword handling. Used for negation detection, which needs to see words
// the normalizer would discard.
func SimpleTokenize(text string) []string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// sortByLengthDesc orders words by descending rune length, then
// lexicographically, so longest-match behavior is deterministic.
func sortByLengthDesc(words map[string]struct{}) []string {
	sorted := make([]string, 0, len(words))
	for w := range words {
		if w != "" {
			sorted = append(sorted, w)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(sorted[i]), utf8.RuneCountInString(sorted[j])
		if li != lj {
			return li > lj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}
