//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/config"
	"github.com/littlequestion/littlequestion/internal/model"
	"github.com/littlequestion/littlequestion/internal/repository"
	"github.com/littlequestion/littlequestion/internal/testutil"
)

// harness talks to a running API that shares DATABASE_URL and
// SESSION_SECRET with the test process.
type harness struct {
	baseURL string
	cfg     *config.Config
	repo    *repository.Repository
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, cfg.DatabaseURL, repository.DefaultPoolConfig())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	return &harness{
		baseURL: envOrDefault("LQ_BASE_URL", "http://localhost:8080"),
		cfg:     cfg,
		repo:    repo,
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// today returns the server's current day bucket.
func (h *harness) today(t *testing.T) time.Time {
	t.Helper()
	loc, err := h.cfg.Location()
	if err != nil {
		t.Fatalf("timezone: %v", err)
	}
	return model.DayOf(time.Now(), loc)
}

// schedulePhrase makes sure a phrase exists for today.
func (h *harness) schedulePhrase(t *testing.T) *model.Phrase {
	t.Helper()
	ctx := context.Background()

	if p, err := h.repo.GetPhraseByDay(ctx, h.today(t)); err == nil {
		return p
	}

	phrase := &model.Phrase{
		Text:     "What are you looking forward to?",
		Date:     h.today(t),
		Language: model.DefaultLanguage,
	}
	if _, _, err := h.repo.UpsertPhrases(ctx, []*model.Phrase{phrase}); err != nil {
		t.Fatalf("schedule phrase: %v", err)
	}

	p, err := h.repo.GetPhraseByDay(ctx, h.today(t))
	if err != nil {
		t.Fatalf("read back phrase: %v", err)
	}
	return p
}

// signIn provisions a fresh user and mints a session token the server accepts.
func (h *harness) signIn(t *testing.T) (*model.User, string) {
	t.Helper()

	user, err := h.repo.UpsertOAuthUser(context.Background(), model.OAuthProfile{
		Provider:          "google",
		ProviderAccountID: testutil.UniqueID("e2e"),
		Email:             testutil.UniqueEmail("e2e"),
		EmailVerified:     true,
		Name:              "E2E User",
	})
	if err != nil {
		t.Fatalf("provision user: %v", err)
	}

	sessions, err := auth.NewSessionManager(h.cfg.SessionSecret, h.cfg.SessionMaxAge)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	token, _, err := sessions.Issue(user)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return user, token
}

func TestE2EJournalFlow(t *testing.T) {
	h := newHarness(t)
	phrase := h.schedulePhrase(t)
	_, token := h.signIn(t)

	var phraseResp struct {
		Phrase struct {
			Text string `json:"text"`
			Date string `json:"date"`
		} `json:"phrase"`
	}
	if status := doJSON(t, http.MethodGet, h.baseURL+"/phrase", "", nil, &phraseResp); status != http.StatusOK {
		t.Fatalf("GET /phrase status = %d", status)
	}
	if phraseResp.Phrase.Text != phrase.Text {
		t.Errorf("phrase text = %q, want %q", phraseResp.Phrase.Text, phrase.Text)
	}

	if status := doJSON(t, http.MethodPost, h.baseURL+"/response", token, map[string]string{"response": "a first draft"}, nil); status != http.StatusCreated {
		t.Fatalf("first submit status = %d, want 201", status)
	}
	if status := doJSON(t, http.MethodPost, h.baseURL+"/response", token, map[string]string{"response": "the final answer"}, nil); status != http.StatusOK {
		t.Fatalf("second submit status = %d, want 200", status)
	}

	var got struct {
		Response *string `json:"response"`
	}
	if status := doJSON(t, http.MethodGet, h.baseURL+"/response", token, nil, &got); status != http.StatusOK {
		t.Fatalf("GET /response status = %d", status)
	}
	if got.Response == nil || *got.Response != "the final answer" {
		t.Errorf("stored response = %v, want the final answer", got.Response)
	}

	day := model.FormatDay(h.today(t))
	var cal struct {
		Phrases   map[string]string `json:"phrases"`
		Responses map[string]string `json:"responses"`
	}
	url := h.baseURL + "/calendar?start=" + day + "&end=" + day
	if status := doJSON(t, http.MethodGet, url, token, nil, &cal); status != http.StatusOK {
		t.Fatalf("GET /calendar status = %d", status)
	}
	if cal.Phrases[day] != phrase.Text {
		t.Errorf("calendar phrase = %q, want %q", cal.Phrases[day], phrase.Text)
	}
	if cal.Responses[day] != "the final answer" {
		t.Errorf("calendar response = %q", cal.Responses[day])
	}
}

func TestE2EUnauthenticated(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/response", "/calendar?start=2024-01-01&end=2024-01-31"} {
		var errResp map[string]any
		if status := doJSON(t, http.MethodGet, h.baseURL+path, "", nil, &errResp); status != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, status)
		}
		if errResp["error"] != "Unauthorized" {
			t.Errorf("GET %s error = %v", path, errResp["error"])
		}
	}

	var session map[string]any
	if status := doJSON(t, http.MethodGet, h.baseURL+"/auth/session", "", nil, &session); status != http.StatusOK {
		t.Fatalf("GET /auth/session status = %d", status)
	}
	if len(session) != 0 {
		t.Errorf("anonymous session = %v, want {}", session)
	}
}

func TestE2ESignOutRevokesSession(t *testing.T) {
	h := newHarness(t)
	_, token := h.signIn(t)

	var session map[string]any
	doJSON(t, http.MethodGet, h.baseURL+"/auth/session", token, nil, &session)
	if session["user"] == nil {
		t.Fatalf("session before signout = %v, want a user", session)
	}

	if status := doJSON(t, http.MethodPost, h.baseURL+"/auth/signout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("POST /auth/signout status = %d", status)
	}

	if status := doJSON(t, http.MethodGet, h.baseURL+"/response", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("revoked token status = %d, want 401", status)
	}
}

func TestE2EWriteRateLimiting(t *testing.T) {
	h := newHarness(t)
	h.schedulePhrase(t)
	_, token := h.signIn(t)

	if !h.cfg.RateLimitEnabled {
		t.Skip("rate limiting disabled")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var limited *http.Response

	for i := 0; i < h.cfg.RateLimitWriteBurst*3; i++ {
		req, err := http.NewRequest(http.MethodPost, h.baseURL+"/response", strings.NewReader(`{"response":"again"}`))
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = resp
			break
		}
		resp.Body.Close()
	}

	if limited == nil {
		t.Fatalf("expected 429 after the write burst, never hit the limit")
	}
	defer limited.Body.Close()

	if limited.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header on 429 response")
	}

	var errResp map[string]any
	if err := json.NewDecoder(limited.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 429 response: %v", err)
	}
	if errResp["error"] == nil {
		t.Error("429 response missing 'error' field")
	}
}

// TestE2ENoTokensInResponses checks error bodies never echo the credential.
func TestE2ENoTokensInResponses(t *testing.T) {
	h := newHarness(t)

	fake := "eyJhbGciOiJIUzI1NiJ9." + strings.Repeat("x", 40)
	req, err := http.NewRequest(http.MethodGet, h.baseURL+"/response", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+fake)

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if strings.Contains(string(body), fake) {
		t.Error("SECURITY: error response leaked the Authorization value")
	}
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
