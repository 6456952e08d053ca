package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/littlequestion/littlequestion/internal/model"
)

// MemoryStore is an in-memory stand-in for the PostgreSQL repository.
// Setting Err makes every call fail with it.
type MemoryStore struct {
	mu        sync.Mutex
	users     map[string]*model.User // by email
	phrases   map[string]*model.Phrase
	responses map[string]*model.UserResponse // by user_id + phrase_id
	nextID    int64

	Err error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*model.User),
		phrases:   make(map[string]*model.Phrase),
		responses: make(map[string]*model.UserResponse),
	}
}

// AddUser stores a user keyed by email.
func (m *MemoryStore) AddUser(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = ulid.Make().String()
	}
	m.users[u.Email] = u
	return u
}

// AddPhrase stores a phrase keyed by its day, assigning an ID.
func (m *MemoryStore) AddPhrase(p *model.Phrase) *model.Phrase {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.phrases[model.FormatDay(p.Date)] = p
	return p
}

// ResponseCount returns the number of stored responses.
func (m *MemoryStore) ResponseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.responses)
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) UpsertOAuthUser(_ context.Context, profile model.OAuthProfile) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	now := time.Now().UTC()
	u, ok := m.users[profile.Email]
	if !ok {
		u = &model.User{ID: ulid.Make().String(), Email: profile.Email, CreatedAt: now}
		m.users[profile.Email] = u
	}
	u.Name = profile.Name
	u.Image = profile.Image
	u.UpdatedAt = now
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetPhraseByDay(_ context.Context, day time.Time) (*model.Phrase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.phrases[model.FormatDay(day)]
	if !ok {
		return nil, model.ErrPhraseNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) ListPhrasesInRange(_ context.Context, start, end time.Time) ([]*model.Phrase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*model.Phrase
	for _, p := range m.phrases {
		if !p.Date.Before(start) && !p.Date.After(end) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func responseKey(userID string, phraseID int64) string {
	return fmt.Sprintf("%s/%d", userID, phraseID)
}

func (m *MemoryStore) GetResponse(_ context.Context, userID string, phraseID int64) (*model.UserResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	r, ok := m.responses[responseKey(userID, phraseID)]
	if !ok {
		return nil, model.ErrResponseNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) UpsertResponse(_ context.Context, resp *model.UserResponse) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if !m.hasPhraseLocked(resp.PhraseID) {
		return false, model.ErrPhraseNotFound
	}

	now := time.Now().UTC()
	key := responseKey(resp.UserID, resp.PhraseID)
	existing, ok := m.responses[key]
	if ok {
		existing.ResponseText = resp.ResponseText
		existing.UpdatedAt = now
		*resp = *existing
		return false, nil
	}

	resp.ID = ulid.Make().String()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	cp := *resp
	m.responses[key] = &cp
	return true, nil
}

func (m *MemoryStore) ListResponsesInRange(_ context.Context, userID string, start, end time.Time) ([]*model.DatedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*model.DatedResponse
	for _, p := range m.phrases {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		if r, ok := m.responses[responseKey(userID, p.ID)]; ok {
			out = append(out, &model.DatedResponse{UserResponse: *r, PhraseDate: p.Date})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PhraseDate.Before(out[j].PhraseDate) })
	return out, nil
}

func (m *MemoryStore) hasPhraseLocked(id int64) bool {
	for _, p := range m.phrases {
		if p.ID == id {
			return true
		}
	}
	return false
}
