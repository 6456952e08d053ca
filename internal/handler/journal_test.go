package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlequestion/littlequestion/internal/model"
	"github.com/littlequestion/littlequestion/internal/testutil"
)

func TestJournalHandler_Phrase(t *testing.T) {
	t.Run("today's phrase", func(t *testing.T) {
		f := newAPIFixture(t)
		f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "What made you smile today?"))

		rec := f.do(t, http.MethodGet, "/phrase", "", "")

		require.Equal(t, http.StatusOK, rec.Code)
		phrase, ok := decodeBody(t, rec)["phrase"].(map[string]any)
		require.True(t, ok, rec.Body.String())
		assert.Equal(t, "What made you smile today?", phrase["text"])
		assert.Equal(t, "2024-03-01", phrase["date"])
		assert.Equal(t, "en", phrase["language"])
		assert.Equal(t, uint64(1), f.metrics.Snapshot().PhrasesServed)
	})

	t.Run("no phrase today", func(t *testing.T) {
		f := newAPIFixture(t)
		f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-29", "yesterday"))

		rec := f.do(t, http.MethodGet, "/phrase", "", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"message":"No phrase found for today"}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		f := newAPIFixture(t)
		f.store.Err = errors.New("connection reset")

		rec := f.do(t, http.MethodGet, "/phrase", "", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to fetch phrase"}`, rec.Body.String())
	})

	t.Run("api prefix", func(t *testing.T) {
		f := newAPIFixture(t)
		f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))

		rec := f.do(t, http.MethodGet, "/api/phrase", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestJournalHandler_SubmitResponse_Validation(t *testing.T) {
	tests := []struct {
		name       string
		token      bool
		unknown    bool
		phrase     bool
		body       string
		wantStatus int
		wantBody   string
	}{
		{"no session", false, false, true, `{"response":"hi"}`, http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"unknown user", true, true, true, `{"response":"hi"}`, http.StatusNotFound, `{"error":"User not found"}`},
		{"malformed json", true, false, true, `{"response":`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"missing field", true, false, true, `{}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"null field", true, false, true, `{"response":null}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"non-string field", true, false, true, `{"response":42}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"empty text", true, false, true, `{"response":""}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"whitespace text", true, false, true, `{"response":"   "}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"too long", true, false, true, `{"response":"` + strings.Repeat("a", 21) + `"}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"invalid body before missing phrase", true, false, false, `{}`, http.StatusBadRequest, `{"error":"Invalid response data"}`},
		{"no phrase today", true, false, false, `{"response":"hi"}`, http.StatusNotFound, `{"error":"No phrase found for today"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			if tt.phrase {
				f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))
			}

			token := ""
			if tt.token {
				token = f.token(t)
			}
			if tt.unknown {
				stranger := testutil.NewTestUser(t, "stranger@example.com")
				var err error
				token, _, err = f.sessions.Issue(stranger)
				require.NoError(t, err)
			}

			rec := f.do(t, http.MethodPost, "/response", tt.body, token)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Zero(t, f.store.ResponseCount())
		})
	}
}

func TestJournalHandler_SubmitResponse_CreateThenUpdate(t *testing.T) {
	f := newAPIFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))
	token := f.token(t)

	rec := f.do(t, http.MethodPost, "/response", `{"response":"first"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"response":"first"}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/response", `{"response":"second"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"response":"second"}`, rec.Body.String())

	assert.Equal(t, 1, f.store.ResponseCount())
	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.ResponsesCreated)
	assert.Equal(t, uint64(1), snap.ResponsesUpdated)
}

func TestJournalHandler_SubmitResponse_BearerToken(t *testing.T) {
	f := newAPIFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))

	req := newJSONRequest(http.MethodPost, "/response", `{"response":"from the cli"}`)
	req.Header.Set("Authorization", "Bearer "+f.token(t))
	rec := serve(f.router, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestJournalHandler_SubmitResponse_StoreFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))
	token := f.token(t)
	f.store.Err = errors.New("disk full")

	rec := f.do(t, http.MethodPost, "/response", `{"response":"hi"}`, token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to save response"}`, rec.Body.String())
}

func TestJournalHandler_GetResponse(t *testing.T) {
	f := newAPIFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "today"))
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-28", "earlier"))
	token := f.token(t)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/response", `{"response":"saved"}`, token).Code)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{"no session", "/response", "", http.StatusUnauthorized, `{"error":"Unauthorized"}`},
		{"today", "/response", token, http.StatusOK, `{"response":"saved"}`},
		{"explicit today", "/response?date=2024-03-01", token, http.StatusOK, `{"response":"saved"}`},
		{"phrase without response", "/response?date=2024-02-28", token, http.StatusOK, `{"response":null}`},
		{"day without phrase", "/response?date=2024-01-15", token, http.StatusOK, `{"response":null}`},
		{"bad format", "/response?date=03-01-2024", token, http.StatusBadRequest, `{"error":"Invalid date format"}`},
		{"impossible day", "/response?date=2024-02-30", token, http.StatusBadRequest, `{"error":"Invalid date format"}`},
		{"timestamp rejected", "/response?date=2024-03-01T00:00:00Z", token, http.StatusBadRequest, `{"error":"Invalid date format"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "", tt.token)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestJournalHandler_GetResponse_StoreFailure(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)
	f.store.Err = errors.New("timeout")

	rec := f.do(t, http.MethodGet, "/response", "", token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch response"}`, rec.Body.String())
}

func TestJournalHandler_Calendar(t *testing.T) {
	f := newAPIFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-28", "one"))
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "two"))
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-04-10", "outside"))
	token := f.token(t)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/response", `{"response":"answer"}`, token).Code)

	other := f.store.AddUser(testutil.NewTestUser(t, "other@example.com"))
	phrase, err := f.store.GetPhraseByDay(context.Background(), mustDay(t, "2024-02-28"))
	require.NoError(t, err)
	_, err = f.store.UpsertResponse(context.Background(), &model.UserResponse{UserID: other.ID, PhraseID: phrase.ID, ResponseText: "not yours"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{"month", "?start=2024-02-01&end=2024-03-01", http.StatusOK,
			`{"phrases":{"2024-02-28":"one","2024-03-01":"two"},"responses":{"2024-03-01":"answer"}}`},
		{"timestamps accepted", "?start=2024-02-28T00:00:00Z&end=2024-02-28T23:59:59Z", http.StatusOK,
			`{"phrases":{"2024-02-28":"one"},"responses":{}}`},
		{"end before start", "?start=2024-03-01&end=2024-02-01", http.StatusOK,
			`{"phrases":{},"responses":{}}`},
		{"missing end", "?start=2024-02-01", http.StatusBadRequest, `{"error":"Missing start or end date"}`},
		{"missing both", "", http.StatusBadRequest, `{"error":"Missing start or end date"}`},
		{"unparseable", "?start=yesterday&end=2024-03-01", http.StatusBadRequest, `{"error":"Invalid date format"}`},
		{"too wide", "?start=2024-01-01&end=2024-03-01", http.StatusBadRequest, `{"error":"Date range too large"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/calendar"+tt.query, "", token)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}

	t.Run("no session", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/calendar?start=2024-02-01&end=2024-03-01", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestJournalHandler_Calendar_StoreFailure(t *testing.T) {
	f := newAPIFixture(t)
	token := f.token(t)
	f.store.Err = errors.New("boom")

	rec := f.do(t, http.MethodGet, "/calendar?start=2024-02-01&end=2024-03-01", "", token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch calendar data"}`, rec.Body.String())
}

func newJSONRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDay(s)
	require.NoError(t, err)
	return d
}
