package testutil

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/littlequestion/littlequestion/internal/model"
)

// FakeProvider is an identity provider returning a canned profile.
type FakeProvider struct {
	mu      sync.Mutex
	Profile *model.OAuthProfile
	Err     error
	Codes   []string
}

// NewFakeProvider returns a provider that signs in a verified Google user.
func NewFakeProvider(email string) *FakeProvider {
	return &FakeProvider{Profile: &model.OAuthProfile{
		Provider:          model.ProviderGoogle,
		ProviderAccountID: "google-" + email,
		Email:             email,
		EmailVerified:     true,
		Name:              "Test User",
	}}
}

// AuthCodeURL implements auth.Provider.
func (p *FakeProvider) AuthCodeURL(state string) string {
	return "https://idp.example.com/auth?state=" + url.QueryEscape(state)
}

// Exchange implements auth.Provider.
func (p *FakeProvider) Exchange(_ context.Context, code string) (*model.OAuthProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Codes = append(p.Codes, code)
	if p.Err != nil {
		return nil, p.Err
	}
	profile := *p.Profile
	return &profile, nil
}

// MemoryStates keeps OAuth states and revoked sessions in memory.
// It satisfies the sign-in state store, the session revoker and the
// middleware revocation checker.
type MemoryStates struct {
	mu      sync.Mutex
	states  map[string]string
	revoked map[string]time.Duration
	Err     error
}

// NewMemoryStates returns an empty MemoryStates.
func NewMemoryStates() *MemoryStates {
	return &MemoryStates{
		states:  make(map[string]string),
		revoked: make(map[string]time.Duration),
	}
}

// SaveOAuthState records a pending sign-in.
func (m *MemoryStates) SaveOAuthState(_ context.Context, state, callbackURL string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.states[state] = callbackURL
	return nil
}

// ConsumeOAuthState returns and forgets a pending sign-in.
func (m *MemoryStates) ConsumeOAuthState(_ context.Context, state string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", false, m.Err
	}
	cb, ok := m.states[state]
	delete(m.states, state)
	return cb, ok, nil
}

// RevokeSession marks a session id as signed out.
func (m *MemoryStates) RevokeSession(_ context.Context, sessionID string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.revoked[sessionID] = ttl
	return nil
}

// IsSessionRevoked reports whether RevokeSession was called for the id.
func (m *MemoryStates) IsSessionRevoked(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.revoked[sessionID]
	return ok, nil
}

// RevokedTTL returns the TTL a session was revoked with.
func (m *MemoryStates) RevokedTTL(sessionID string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.revoked[sessionID]
	return ttl, ok
}

// PendingStates returns the stored state values.
func (m *MemoryStates) PendingStates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.states))
	for k := range m.states {
		out = append(out, k)
	}
	return out
}
