package matching

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusbot/faq-engine/internal/contacts"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

// ErrInvalidRequest indicates a request with neither a message nor an
// entry ID.
var ErrInvalidRequest = errors.New("invalid request payload")

// User-facing response messages.
const (
	msgDBNotReady    = "ฐานข้อมูลยังไม่พร้อม"
	msgNotUnderstood = "ขออภัย ไม่เข้าใจคำถาม"
	msgNoInformation = "😓 ขออภัยจริงๆ ฉันไม่มีข้อมูลเกี่ยวกับคำถามนี้"
	msgNoMatch       = "ไม่พบข้อมูลที่ตรงกัน"
	msgSingleResult  = "✨ นี่คือคำตอบที่คุณหา"
	msgMultiResults  = "✨ พบ %d คำถามที่ใกล้เคียง\n(ลองเลือกซักอันดูสิ 😊)"
	msgTopicBlocked  = "รับทราบค่ะ จะไม่พูดถึง \"%s\" จนกว่าจะเริ่มการสนทนาใหม่นะคะ"
	msgTopicRejected = "รับทราบค่ะ จะไม่นำเสนอข้อมูลเกี่ยวกับ \"%s\" อีกนะคะ"
	msgCancelled     = "รับทราบค่ะ ยกเลิกให้แล้วนะคะ"
)

const previewRunes = 200

// Request is a single chat query.
type Request struct {
	SessionID         string
	Message           string
	EntryID           *int64
	ResetConversation bool
}

// Alternative is one candidate answer in a chat response.
type Alternative struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Preview       string   `json:"preview"`
	Text          string   `json:"text"`
	Score         float64  `json:"score"`
	Keywords      []string `json:"keywords"`
	Categories    string   `json:"categories,omitempty"`
	CategoriesPDF string   `json:"categoriesPDF,omitempty"`
}

// Response is the chat endpoint payload.
type Response struct {
	Success         bool               `json:"success"`
	Reset           bool               `json:"reset,omitempty"`
	Found           bool               `json:"found"`
	MultipleResults bool               `json:"multipleResults,omitempty"`
	Blocked         bool               `json:"blocked,omitempty"`
	Message         string             `json:"message,omitempty"`
	Answer          string             `json:"answer,omitempty"`
	Title           string             `json:"title,omitempty"`
	QuestionID      int64              `json:"questionId,omitempty"`
	Categories      string             `json:"categories,omitempty"`
	CategoriesPDF   string             `json:"categoriesPDF,omitempty"`
	Contacts        []contacts.Contact `json:"contacts"`
	Alternatives    []Alternative      `json:"alternatives,omitempty"`
}

// CandidateSource supplies the FAQ entries scored per request.
type CandidateSource interface {
	ListWithKeywords(ctx context.Context) ([]*storage.FAQEntry, error)
	GetByID(ctx context.Context, id int64) (*storage.FAQEntry, error)
}

// SynonymSource supplies the active synonym mapping.
type SynonymSource interface {
	ListActive(ctx context.Context) (map[string]string, error)
}

// NegativeKeywordSource supplies and seeds the negation dictionary.
type NegativeKeywordSource interface {
	ListActive(ctx context.Context) ([]storage.NegativeKeyword, error)
	ListIgnored(ctx context.Context) ([]string, error)
	UpsertActive(ctx context.Context, word string, modifier float64) error
}

// SemanticSource supplies the pairwise similarity table.
type SemanticSource interface {
	Load(ctx context.Context) (map[string]map[string]float64, error)
}

// ContactSource resolves fallback and per-entry contacts.
type ContactSource interface {
	DefaultContacts(ctx context.Context) []contacts.Contact
	ForEntries(ctx context.Context, entryIDs []int64) []contacts.Contact
}

// Engine owns the dictionary tables and orchestrates a chat query from
// normalization through ranking, filtering, and fallback contacts.
type Engine struct {
	faqs      CandidateSource
	synRepo   SynonymSource
	negRepo   NegativeKeywordSource
	semRepo   SemanticSource
	tokenizer *Tokenizer
	stopwords *StopwordCache
	synonyms  *SynonymTable
	negatives *NegativeSet
	semantics *SemanticTable
	ranker    *Ranker
	filter    *Filter
	sessions  SessionStore
	resolver  ContactSource

	maxResults int
	logger     *observability.Logger
}

// EngineDeps bundles the collaborators an Engine needs.
type EngineDeps struct {
	FAQs             CandidateSource
	Synonyms         SynonymSource
	NegativeKeywords NegativeKeywordSource
	SemanticPairs    SemanticSource
	Tokenizer        *Tokenizer
	Stopwords        *StopwordCache
	Sessions         SessionStore
	Contacts         ContactSource
	FilterConfig     FilterConfig
	MaxResults       int
	Logger           *observability.Logger
}

// NewEngine constructs an Engine with empty dictionary tables. Call
// WarmUp to load them before serving traffic.
func NewEngine(deps EngineDeps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	maxResults := deps.MaxResults
	if maxResults < 1 {
		maxResults = 3
	}

	e := &Engine{
		faqs:       deps.FAQs,
		synRepo:    deps.Synonyms,
		negRepo:    deps.NegativeKeywords,
		semRepo:    deps.SemanticPairs,
		tokenizer:  deps.Tokenizer,
		stopwords:  deps.Stopwords,
		synonyms:   NewSynonymTable(),
		negatives:  NewNegativeSet(),
		semantics:  NewSemanticTable(),
		sessions:   deps.Sessions,
		resolver:   deps.Contacts,
		maxResults: maxResults,
		logger:     logger.WithComponent("engine"),
	}
	e.ranker = NewRanker(deps.Tokenizer, e.synonyms, e.semantics, e.negatives, logger)
	e.filter = NewFilter(deps.FilterConfig, logger)
	return e
}

// WarmUp loads all dictionary tables. Individual failures are logged and
// leave the previous table in place so the engine can start degraded.
func (e *Engine) WarmUp(ctx context.Context) {
	if err := e.ReloadSynonyms(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("synonym load failed")
	}
	if err := e.ReloadNegativeKeywords(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("negative keyword load failed")
	}
	if err := e.ReloadSemanticPairs(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("semantic pair load failed")
	}
}

// ReloadSynonyms replaces the synonym table from the store.
func (e *Engine) ReloadSynonyms(ctx context.Context) error {
	mapping, err := e.synRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("reload synonyms: %w", err)
	}
	e.synonyms.Replace(mapping)
	e.logger.Info().Int("count", len(mapping)).Msg("synonyms reloaded")
	return nil
}

// ReloadNegativeKeywords rebuilds the negation dictionary: active rows,
// minus the ignored list, plus the built-in baseline. Baseline words
// missing from the store are written back unless ignored.
func (e *Engine) ReloadNegativeKeywords(ctx context.Context) error {
	active, err := e.negRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("reload negative keywords: %w", err)
	}
	ignoredList, err := e.negRepo.ListIgnored(ctx)
	if err != nil {
		return fmt.Errorf("reload ignored keywords: %w", err)
	}

	ignored := make(map[string]struct{}, len(ignoredList))
	for _, w := range ignoredList {
		ignored[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}

	modifiers := make(map[string]float64, len(active))
	for _, kw := range active {
		word := strings.ToLower(strings.TrimSpace(kw.Word))
		if word == "" {
			continue
		}
		if _, skip := ignored[word]; skip {
			continue
		}
		modifiers[word] = kw.WeightModifier
	}

	for _, p := range BaselineNegationPatterns() {
		if _, skip := ignored[p.Word]; skip {
			continue
		}
		if _, present := modifiers[p.Word]; present {
			continue
		}
		modifiers[p.Word] = p.Modifier
		if err := e.negRepo.UpsertActive(ctx, p.Word, p.Modifier); err != nil {
			e.logger.Warn().Err(err).Str("word", p.Word).Msg("baseline negation upsert failed")
		}
	}

	e.negatives.Replace(modifiers)
	e.logger.Info().Int("count", len(modifiers)).Msg("negative keywords reloaded")
	return nil
}

// ReloadSemanticPairs replaces the similarity table from the store.
func (e *Engine) ReloadSemanticPairs(ctx context.Context) error {
	pairs, err := e.semRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("reload semantic pairs: %w", err)
	}
	e.semantics.Replace(pairs)
	e.logger.Info().Int("count", len(pairs)).Msg("semantic pairs reloaded")
	return nil
}

// InvalidateStopwords forces a stopword reload on the next query.
func (e *Engine) InvalidateStopwords() {
	e.stopwords.Invalidate()
}

// Respond handles one chat query end to end. A returned error means the
// request failed as a whole; degraded collaborators (tokenizer, session
// store, contact directory) never surface as errors.
func (e *Engine) Respond(ctx context.Context, req Request) (*Response, error) {
	log := e.logger.WithSession(req.SessionID)

	if req.ResetConversation {
		if err := e.sessions.Reset(ctx, req.SessionID); err != nil {
			log.Warn().Err(err).Msg("session reset failed")
		}
		if req.Message == "" && req.EntryID == nil {
			return &Response{Success: true, Reset: true, Contacts: []contacts.Contact{}}, nil
		}
	}

	if req.EntryID != nil {
		return e.respondByID(ctx, *req.EntryID)
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrInvalidRequest
	}

	// Blocked topics answer from session state alone, before any
	// storage access.
	if resp := e.checkSessionNegation(ctx, log, req.SessionID, message); resp != nil {
		return resp, nil
	}

	entries, err := e.faqs.ListWithKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	if len(entries) == 0 {
		return &Response{Success: true, Found: false, Message: msgDBNotReady, Contacts: []contacts.Contact{}}, nil
	}

	tokens := e.tokenizer.Normalize(ctx, message)
	tokens = e.synonyms.Resolve(message, tokens)
	if len(tokens) == 0 {
		return &Response{
			Success:  true,
			Found:    false,
			Message:  msgNotUnderstood,
			Contacts: e.resolver.DefaultContacts(ctx),
		}, nil
	}

	keywords, categories := vocabulary(entries)
	if StrictNoMatch(message, tokens, keywords, categories) {
		log.Info().Str("query", message).Msg("strict no-match short-circuit")
		return &Response{
			Success:  true,
			Found:    false,
			Message:  msgNoInformation,
			Contacts: e.resolver.DefaultContacts(ctx),
		}, nil
	}

	candidates := make([]storage.FAQEntry, 0, len(entries))
	for _, entry := range entries {
		candidates = append(candidates, *entry)
	}

	originalTokens := SimpleTokenize(strings.ToLower(message))
	ranked := e.ranker.Rank(ctx, tokens, originalTokens, candidates)
	filtered := e.filter.Apply(message, ranked)

	if len(filtered) == 0 {
		return &Response{
			Success:  true,
			Found:    false,
			Message:  msgNoMatch,
			Contacts: e.resolver.DefaultContacts(ctx),
		}, nil
	}

	top := filtered
	if len(top) > e.maxResults {
		top = top[:e.maxResults]
	}

	alternatives := make([]Alternative, 0, len(top))
	ids := make([]int64, 0, len(top))
	for _, c := range top {
		alternatives = append(alternatives, Alternative{
			ID:            c.Entry.ID,
			Title:         c.Entry.Title,
			Preview:       preview(c.Entry.Body),
			Text:          c.Entry.Body,
			Score:         c.TotalScore,
			Keywords:      c.Entry.Keywords,
			Categories:    c.Entry.Category,
			CategoriesPDF: c.Entry.CategoryPDF,
		})
		ids = append(ids, c.Entry.ID)
	}

	resp := &Response{
		Success:         true,
		Found:           true,
		MultipleResults: len(top) > 1,
		Contacts:        []contacts.Contact{},
		Alternatives:    alternatives,
	}
	if len(top) > 1 {
		resp.Message = fmt.Sprintf(msgMultiResults, len(top))
		resp.Contacts = e.resolver.ForEntries(ctx, ids)
	} else {
		resp.Message = msgSingleResult
	}

	log.Info().Str("query", message).Int("candidates", len(candidates)).Int("results", len(top)).Msg("query answered")
	return resp, nil
}

// respondByID bypasses matching and returns an entry verbatim.
func (e *Engine) respondByID(ctx context.Context, id int64) (*Response, error) {
	entry, err := e.faqs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Response{
		Success:       true,
		Found:         true,
		Answer:        entry.Body,
		Title:         entry.Title,
		QuestionID:    entry.ID,
		Categories:    entry.Category,
		CategoriesPDF: entry.CategoryPDF,
		Contacts:      []contacts.Contact{},
	}, nil
}

// checkSessionNegation runs the blocked-topic short-circuit and the
// negation-prefix handling. A non-nil response ends the turn without
// ranking. Session store failures degrade to "no prior blocks".
func (e *Engine) checkSessionNegation(ctx context.Context, log *observability.Logger, sessionID, message string) *Response {
	blocked, err := e.sessions.Blocked(ctx, sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("session read failed")
		blocked = nil
	}
	if term, ok := BlockedTerm(message, blocked); ok {
		log.Info().Str("term", term).Msg("blocked topic short-circuit")
		return &Response{
			Success:  true,
			Found:    false,
			Blocked:  true,
			Message:  fmt.Sprintf(msgTopicBlocked, term),
			Contacts: []contacts.Contact{},
		}
	}

	word, ok := e.negatives.PrefixMatch(message)
	if !ok {
		return nil
	}

	remainder, substantial := BlockableRemainder(message, word)
	if !substantial {
		return &Response{
			Success:  true,
			Found:    false,
			Blocked:  true,
			Message:  msgCancelled,
			Contacts: []contacts.Contact{},
		}
	}

	if err := e.sessions.Block(ctx, sessionID, remainder); err != nil {
		log.Warn().Err(err).Str("term", remainder).Msg("session write failed")
	}
	log.Info().Str("term", remainder).Msg("topic blocked")
	return &Response{
		Success:  true,
		Found:    false,
		Blocked:  true,
		Message:  fmt.Sprintf(msgTopicRejected, remainder),
		Contacts: []contacts.Contact{},
	}
}

// vocabulary collects the known keyword and category name sets from a
// candidate snapshot.
func vocabulary(entries []*storage.FAQEntry) (keywords, categories []string) {
	kwSeen := make(map[string]struct{})
	catSeen := make(map[string]struct{})
	for _, entry := range entries {
		for _, kw := range entry.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if _, ok := kwSeen[kw]; !ok {
				kwSeen[kw] = struct{}{}
				keywords = append(keywords, kw)
			}
		}
		cat := strings.ToLower(strings.TrimSpace(entry.Category))
		if cat == "" {
			continue
		}
		if _, ok := catSeen[cat]; !ok {
			catSeen[cat] = struct{}{}
			categories = append(categories, cat)
		}
	}
	return keywords, categories
}

func preview(body string) string {
	runes := []rune(body)
	if len(runes) <= previewRunes {
		return body
	}
	return string(runes[:previewRunes])
}
