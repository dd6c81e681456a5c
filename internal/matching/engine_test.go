package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbot/faq-engine/internal/contacts"
	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

type fakeFAQSource struct {
	entries []*storage.FAQEntry
	listErr error
}

func (f *fakeFAQSource) ListWithKeywords(ctx context.Context) ([]*storage.FAQEntry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.entries, nil
}

func (f *fakeFAQSource) GetByID(ctx context.Context, id int64) (*storage.FAQEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

type fakeSynonymSource struct {
	mapping map[string]string
}

func (f *fakeSynonymSource) ListActive(ctx context.Context) (map[string]string, error) {
	return f.mapping, nil
}

type fakeNegativeSource struct {
	active  []storage.NegativeKeyword
	ignored []string
	upserts map[string]float64
}

func (f *fakeNegativeSource) ListActive(ctx context.Context) ([]storage.NegativeKeyword, error) {
	return f.active, nil
}

func (f *fakeNegativeSource) ListIgnored(ctx context.Context) ([]string, error) {
	return f.ignored, nil
}

func (f *fakeNegativeSource) UpsertActive(ctx context.Context, word string, modifier float64) error {
	if f.upserts == nil {
		f.upserts = map[string]float64{}
	}
	f.upserts[word] = modifier
	return nil
}

type fakeSemanticSource struct {
	pairs map[string]map[string]float64
}

func (f *fakeSemanticSource) Load(ctx context.Context) (map[string]map[string]float64, error) {
	return f.pairs, nil
}

type fakeContactSource struct {
	defaults        []contacts.Contact
	entryContacts   []contacts.Contact
	forEntriesCalls int
	lastEntryIDs    []int64
}

func (f *fakeContactSource) DefaultContacts(ctx context.Context) []contacts.Contact {
	return f.defaults
}

func (f *fakeContactSource) ForEntries(ctx context.Context, entryIDs []int64) []contacts.Contact {
	f.forEntriesCalls++
	f.lastEntryIDs = entryIDs
	return f.entryContacts
}

type engineFixture struct {
	engine   *Engine
	faqs     *fakeFAQSource
	negRepo  *fakeNegativeSource
	contacts *fakeContactSource
	sessions *MemoryStore
}

func newEngineFixture(t *testing.T, entries []*storage.FAQEntry) *engineFixture {
	t.Helper()

	logger := observability.NopLogger()
	stopwords := NewStopwordCache(
		&fakeStopwordSource{words: []string{"ไหม", "มี", "อยาก", "ครับ", "ค่ะ"}},
		&fakeKeywordSource{},
		time.Minute,
		logger,
	)
	tokenizer := NewTokenizer(nil, stopwords, logger)

	fix := &engineFixture{
		faqs: &fakeFAQSource{entries: entries},
		negRepo: &fakeNegativeSource{},
		contacts: &fakeContactSource{
			defaults: []contacts.Contact{{Organization: "กองพัฒนานักศึกษา", Phone: "056-717-100"}},
		},
		sessions: NewMemoryStore(0),
	}
	fix.engine = NewEngine(EngineDeps{
		FAQs:             fix.faqs,
		Synonyms:         &fakeSynonymSource{mapping: map[string]string{"สกอลาร์ชิป": "ทุน"}},
		NegativeKeywords: fix.negRepo,
		SemanticPairs:    &fakeSemanticSource{},
		Tokenizer:        tokenizer,
		Stopwords:        stopwords,
		Sessions:         fix.sessions,
		Contacts:         fix.contacts,
		FilterConfig: FilterConfig{
			MinTopScore:    5.0,
			RelativeCutoff: 0.7,
			GenericTerms:   []string{"สมัครเรียน", "ข้อมูล", "ติดต่อ", "มหาวิทยาลัย"},
		},
		MaxResults: 3,
		Logger:     logger,
	})
	fix.engine.WarmUp(context.Background())
	return fix
}

func scholarshipEntries() []*storage.FAQEntry {
	return []*storage.FAQEntry{
		{
			ID:       1,
			Title:    "ทุนเรียนดี",
			Body:     "นักศึกษาที่มีผลการเรียนดีสามารถยื่นขอทุนได้ที่กองพัฒนานักศึกษา",
			Keywords: []string{"ทุน", "เรียนดี"},
			Category: "ทุนการศึกษา",
		},
		{
			ID:       2,
			Title:    "หอพักนักศึกษา",
			Body:     "หอพักเปิดรับสมัครทุกภาคการศึกษา",
			Keywords: []string{"หอพัก"},
			Category: "หอพัก",
		},
	}
}

func TestRespondSingleResult(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "มีทุนไหม"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.True(t, resp.Found)
	assert.False(t, resp.MultipleResults)
	assert.Equal(t, msgSingleResult, resp.Message)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, int64(1), resp.Alternatives[0].ID)
	assert.Empty(t, resp.Contacts, "a single confident answer carries no contact fallback")
	assert.Zero(t, fix.contacts.forEntriesCalls)
}

func TestRespondMultipleResults(t *testing.T) {
	entries := scholarshipEntries()
	entries = append(entries, &storage.FAQEntry{
		ID:       3,
		Title:    "ทุนกู้ยืม",
		Body:     "กยศ. เปิดรับคำขอกู้ยืมช่วงต้นภาคการศึกษา",
		Keywords: []string{"ทุน", "กู้ยืม"},
		Category: "ทุนการศึกษา",
	})
	fix := newEngineFixture(t, entries)
	fix.contacts.entryContacts = []contacts.Contact{{Officer: "วิพาดา ใจดี", Phone: "081-234-5678"}}

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "ทุน"})
	require.NoError(t, err)

	assert.True(t, resp.Found)
	assert.True(t, resp.MultipleResults)
	assert.Contains(t, resp.Message, "2")
	require.Len(t, resp.Alternatives, 2)
	assert.Equal(t, []int64{1, 3}, fix.contacts.lastEntryIDs)
	assert.Equal(t, fix.contacts.entryContacts, resp.Contacts)
}

func TestRespondSynonymResolution(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "สกอลาร์ชิป"})
	require.NoError(t, err)

	assert.True(t, resp.Found)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, int64(1), resp.Alternatives[0].ID)
}

func TestRespondSynonymKeyedEntry(t *testing.T) {
	// The entry is keyed by the input word, not the canonical keyword, so
	// the match only works when candidate tokens pass through the synonym
	// table the same way query tokens do.
	entries := []*storage.FAQEntry{{
		ID:       7,
		Title:    "ทุนสกอลาร์ชิปต่างประเทศ",
		Body:     "สอบถามเงื่อนไขได้ที่กองวิเทศสัมพันธ์",
		Keywords: []string{"สกอลาร์ชิป"},
		Category: "ทุนการศึกษา",
	}}
	fix := newEngineFixture(t, entries)

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "สกอลาร์ชิป"})
	require.NoError(t, err)

	assert.True(t, resp.Found)
	require.Len(t, resp.Alternatives, 1)
	assert.Equal(t, int64(7), resp.Alternatives[0].ID)
}

func TestRespondBlockedTopicSurvivesStorageOutage(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	ctx := context.Background()

	resp, err := fix.engine.Respond(ctx, Request{SessionID: "s1", Message: "ไม่เอาทุน"})
	require.NoError(t, err)
	assert.True(t, resp.Blocked)

	// Candidate loading now fails, but the blocked topic answers from
	// session state before storage is touched.
	fix.faqs.listErr = errors.New("connection refused")

	resp, err = fix.engine.Respond(ctx, Request{SessionID: "s1", Message: "ทุน"})
	require.NoError(t, err)
	assert.True(t, resp.Blocked)
	assert.False(t, resp.Found)
	assert.Equal(t, fmt.Sprintf(msgTopicBlocked, "ทุน"), resp.Message)

	resp, err = fix.engine.Respond(ctx, Request{SessionID: "s1", Message: "ไม่เอาหอพัก"})
	require.NoError(t, err)
	assert.True(t, resp.Blocked, "rejecting a topic must not require candidate data")
}

func TestRespondBlockedTopicLifecycle(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	ctx := context.Background()

	// The user rejects the topic.
	resp, err := fix.engine.Respond(ctx, Request{SessionID: "s1", Message: "ไม่เอาทุน"})
	require.NoError(t, err)
	assert.True(t, resp.Blocked)
	assert.False(t, resp.Found)
	assert.Contains(t, resp.Message, "ทุน")

	// Asking about it again is acknowledged, not answered.
	resp, err = fix.engine.Respond(ctx, Request{SessionID: "s1", Message: "ทุน"})
	require.NoError(t, err)
	assert.True(t, resp.Blocked)
	assert.False(t, resp.Found)
	assert.Contains(t, resp.Message, "ทุน")

	// Another session is unaffected.
	resp, err = fix.engine.Respond(ctx, Request{SessionID: "s2", Message: "ทุน"})
	require.NoError(t, err)
	assert.True(t, resp.Found)

	// Reset clears the block.
	resp, err = fix.engine.Respond(ctx, Request{SessionID: "s1", ResetConversation: true})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.Reset)

	resp, err = fix.engine.Respond(ctx, Request{SessionID: "s1", Message: "ทุน"})
	require.NoError(t, err)
	assert.True(t, resp.Found)
}

func TestRespondBareNegationCancels(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "ไม่เอา"})
	require.NoError(t, err)

	assert.True(t, resp.Blocked)
	assert.Equal(t, msgCancelled, resp.Message)

	blocked, err := fix.sessions.Blocked(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, blocked, "a bare negation blocks nothing")
}

func TestRespondResetIsIdempotent(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := fix.engine.Respond(ctx, Request{SessionID: "s1", ResetConversation: true})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.True(t, resp.Reset)
		assert.NotNil(t, resp.Contacts)
	}
}

func TestRespondResetWithMessageStillAnswers(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	resp, err := fix.engine.Respond(context.Background(), Request{
		SessionID:         "s1",
		Message:           "ทุน",
		ResetConversation: true,
	})
	require.NoError(t, err)
	assert.True(t, resp.Found)
}

func TestRespondStrictNoMatch(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "qwerty asdf"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.Found)
	assert.Equal(t, msgNoInformation, resp.Message)
	assert.Equal(t, fix.contacts.defaults, resp.Contacts)
}

func TestRespondNoMatchFallsBackToContacts(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "ปฏิทินวิชาการ"})
	require.NoError(t, err)

	assert.False(t, resp.Found)
	assert.Equal(t, msgNoMatch, resp.Message)
	assert.Equal(t, fix.contacts.defaults, resp.Contacts)
}

func TestRespondByID(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	id := int64(1)

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", EntryID: &id})
	require.NoError(t, err)

	assert.True(t, resp.Found)
	assert.Equal(t, int64(1), resp.QuestionID)
	assert.Equal(t, "ทุนเรียนดี", resp.Title)
	assert.NotEmpty(t, resp.Answer)
}

func TestRespondByIDNotFound(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	id := int64(99)

	_, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", EntryID: &id})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRespondEmptyMessage(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	_, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "   "})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRespondEmptyDatabase(t *testing.T) {
	fix := newEngineFixture(t, nil)

	resp, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "ทุน"})
	require.NoError(t, err)

	assert.False(t, resp.Found)
	assert.Equal(t, msgDBNotReady, resp.Message)
}

func TestRespondCandidateLoadFailure(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	fix.faqs.listErr = errors.New("connection refused")

	_, err := fix.engine.Respond(context.Background(), Request{SessionID: "s1", Message: "ทุน"})
	assert.Error(t, err)
}

func TestReloadNegativeKeywordsSeedsBaseline(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())

	for _, p := range BaselineNegationPatterns() {
		m, ok := fix.negRepo.upserts[p.Word]
		assert.True(t, ok, "baseline word %q must be written back", p.Word)
		assert.Equal(t, p.Modifier, m)
	}
}

func TestReloadNegativeKeywordsHonorsIgnoreList(t *testing.T) {
	fix := newEngineFixture(t, scholarshipEntries())
	fix.negRepo.ignored = []string{"ไม่"}
	fix.negRepo.upserts = nil

	require.NoError(t, fix.engine.ReloadNegativeKeywords(context.Background()))

	_, ok := fix.engine.negatives.Modifier("ไม่")
	assert.False(t, ok)
	_, seeded := fix.negRepo.upserts["ไม่"]
	assert.False(t, seeded, "ignored baseline word must not be written back")
}
