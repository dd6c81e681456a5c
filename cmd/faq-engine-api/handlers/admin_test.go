package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbot/faq-engine/internal/observability"
)

func TestAdminClearEndpoints(t *testing.T) {
	h := NewAdminHandler(observability.NopLogger(), newTestEngine(t))

	cases := []struct {
		name    string
		handler http.HandlerFunc
		cache   string
	}{
		{"stopwords", h.ClearStopwords, "stopwords"},
		{"negative keywords", h.ClearNegativeKeywords, "negative-keywords"},
		{"synonyms", h.ClearSynonyms, "synonyms"},
		{"semantic pairs", h.ClearSemanticPairs, "semantic-pairs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/cache/"+tc.cache+"/clear", nil)
			rec := httptest.NewRecorder()
			tc.handler(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp clearResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, tc.cache, resp.Cache)
		})
	}
}
