package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbot/faq-engine/internal/observability"
	"github.com/campusbot/faq-engine/internal/storage"
)

func newTestRanker(semantic map[string]map[string]float64, negatives map[string]float64) *Ranker {
	tk := NewTokenizer(nil, stopwordSet(), observability.NopLogger())
	sem := NewSemanticTable()
	if semantic != nil {
		sem.Replace(semantic)
	}
	neg := NewNegativeSet()
	if negatives != nil {
		neg.Replace(negatives)
	}
	return NewRanker(tk, NewSynonymTable(), sem, neg, observability.NopLogger())
}

func TestRankKeywordOverlap(t *testing.T) {
	r := newTestRanker(nil, nil)
	entries := []storage.FAQEntry{
		{ID: 1, Title: "ทุนเรียนดี", Keywords: []string{"ทุน", "เรียนดี"}},
		{ID: 2, Title: "หอพักนักศึกษา", Keywords: []string{"หอพัก"}},
	}

	ranked := r.Rank(context.Background(), []string{"ทุน"}, []string{"ทุน"}, entries)
	require.Len(t, ranked, 2)

	assert.Equal(t, int64(1), ranked[0].Entry.ID)
	assert.Equal(t, 1, ranked[0].OverlapCount)
	assert.Equal(t, 10.0, ranked[0].Components["overlap"])
	assert.Equal(t, 0, ranked[1].OverlapCount)
	assert.Equal(t, 0.0, ranked[1].Components["overlap"])
	assert.Greater(t, ranked[0].TotalScore, ranked[1].TotalScore)
}

func TestRankNegatedKeyword(t *testing.T) {
	r := newTestRanker(nil, nil)
	entries := []storage.FAQEntry{
		{ID: 1, Title: "ทุนเรียนดี", Keywords: []string{"ทุน"}},
	}

	// The raw message negates the keyword inline.
	ranked := r.Rank(context.Background(), []string{"ทุน"}, []string{"ไม่เอาทุน"}, entries)
	require.Len(t, ranked, 1)

	assert.Equal(t, 0, ranked[0].OverlapCount, "negated match must not count as overlap")
	assert.Equal(t, -10.0, ranked[0].Components["overlap"])
}

func TestRankSemanticSimilarity(t *testing.T) {
	r := newTestRanker(map[string]map[string]float64{
		"ที่พัก": {"หอพัก": 0.8},
	}, nil)
	entries := []storage.FAQEntry{
		{ID: 1, Title: "หอพัก", Keywords: []string{"หอพัก"}},
		{ID: 2, Title: "ปฏิทิน", Keywords: []string{"ปฏิทิน"}},
	}

	ranked := r.Rank(context.Background(), []string{"ที่พัก"}, []string{"ที่พัก"}, entries)
	require.Len(t, ranked, 2)

	assert.Equal(t, int64(1), ranked[0].Entry.ID)
	assert.Equal(t, 0, ranked[0].OverlapCount)
	assert.InDelta(t, 0.8*2.5, ranked[0].Components["semanticKeyword"], 1e-9)
	assert.InDelta(t, 0.8*2.0, ranked[0].Components["semanticTitle"], 1e-9)
}

func TestRankCategoryOverlap(t *testing.T) {
	r := newTestRanker(nil, nil)
	entries := []storage.FAQEntry{
		{ID: 1, Title: "ปฏิทินการศึกษา", Category: "ทะเบียน"},
	}

	ranked := r.Rank(context.Background(), []string{"ทะเบียน"}, []string{"ทะเบียน"}, entries)
	require.Len(t, ranked, 1)
	assert.Equal(t, 3.0, ranked[0].Components["category"])
}

func TestRankJaccard(t *testing.T) {
	r := newTestRanker(nil, nil)
	entries := []storage.FAQEntry{
		{ID: 1, Title: "ทุน", Body: "ทุน สำหรับ นักศึกษา"},
	}

	ranked := r.Rank(context.Background(), []string{"ทุน"}, []string{"ทุน"}, entries)
	require.Len(t, ranked, 1)

	// Query {ทุน} vs body {ทุน, สำหรับ, นักศึกษา}: 1/3.
	assert.InDelta(t, 1.0/3.0, ranked[0].Components["jaccardText"], 1e-9)
	// Query {ทุน} vs title {ทุน}: 1/1, weighted x2.
	assert.InDelta(t, 2.0, ranked[0].Components["jaccardTitle"], 1e-9)
}

func TestRankTiesBreakOnID(t *testing.T) {
	r := newTestRanker(nil, nil)
	entries := []storage.FAQEntry{
		{ID: 7, Title: "ก", Keywords: []string{"ทุน"}},
		{ID: 3, Title: "ข", Keywords: []string{"ทุน"}},
	}

	ranked := r.Rank(context.Background(), []string{"xyz"}, []string{"xyz"}, entries)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(3), ranked[0].Entry.ID)
	assert.Equal(t, int64(7), ranked[1].Entry.ID)
}

func TestRankWholeKeywordMatches(t *testing.T) {
	r := newTestRanker(nil, nil)
	entries := []storage.FAQEntry{
		{ID: 1, Title: "ค่าสมัคร", Keywords: []string{"สมัครเรียน"}},
	}

	// The whole keyword is kept alongside its fragments, so the compound
	// query token still overlaps.
	ranked := r.Rank(context.Background(), []string{"สมัครเรียน"}, []string{"สมัครเรียน"}, entries)
	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].OverlapCount)
}

func TestRankResolvesSynonymKeyedEntry(t *testing.T) {
	tk := NewTokenizer(nil, stopwordSet(), observability.NopLogger())
	syn := NewSynonymTable()
	syn.Replace(map[string]string{"สกอลาร์ชิป": "ทุน"})
	r := NewRanker(tk, syn, NewSemanticTable(), NewNegativeSet(), observability.NopLogger())

	// Entry keyed by the input word, query already resolved to the
	// canonical form. Both sides must meet on the canonical keyword.
	entries := []storage.FAQEntry{
		{ID: 1, Title: "ทุนการศึกษา", Keywords: []string{"สกอลาร์ชิป"}},
	}

	ranked := r.Rank(context.Background(), []string{"ทุน"}, []string{"สกอลาร์ชิป"}, entries)
	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].OverlapCount)
	assert.Equal(t, 10.0, ranked[0].Components["overlap"])
}
