package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/model"
)

const sessionSecret = "0123456789abcdef0123456789abcdef"

type fakeUserStore struct {
	users     map[string]*model.User
	lookupErr error
	created   int
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, model.ErrUserNotFound
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	if f.users == nil {
		f.users = map[string]*model.User{}
	}
	if user.ID == "" {
		user.ID = "generated"
	}
	f.users[user.Email] = user
	f.created++
	return nil
}

func TestSessionIssue_CreatesUser(t *testing.T) {
	store := &fakeUserStore{}
	var out bytes.Buffer
	ctx := &Context{Ctx: context.Background(), Out: &out, Users: store}

	cmd := &SessionIssueCmd{Email: " Ana@Example.com ", Name: "Ana", Secret: sessionSecret, MaxAge: time.Hour, Format: "json"}
	require.NoError(t, cmd.Run(ctx))

	assert.Equal(t, 1, store.created)

	var got issuedSession
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "generated", got.UserID)

	sessions, err := auth.NewSessionManager(sessionSecret, time.Hour)
	require.NoError(t, err)
	id, err := sessions.Parse(got.Token)
	require.NoError(t, err)
	assert.Equal(t, got.SessionID, id.SessionID)
	assert.Equal(t, "ana@example.com", id.Email)
}

func TestSessionIssue_ReusesExistingUser(t *testing.T) {
	store := &fakeUserStore{users: map[string]*model.User{
		"ana@example.com": {ID: "user-1", Email: "ana@example.com"},
	}}
	var out bytes.Buffer
	ctx := &Context{Ctx: context.Background(), Out: &out, Users: store}

	cmd := &SessionIssueCmd{Email: "ana@example.com", Secret: sessionSecret, MaxAge: time.Hour, Format: "plain"}
	require.NoError(t, cmd.Run(ctx))

	assert.Zero(t, store.created)
	assert.NotEmpty(t, bytes.TrimSpace(out.Bytes()))
}

func TestSessionIssue_Errors(t *testing.T) {
	t.Run("empty email", func(t *testing.T) {
		ctx := &Context{Ctx: context.Background(), Out: &bytes.Buffer{}, Users: &fakeUserStore{}}
		err := (&SessionIssueCmd{Email: "  ", Secret: sessionSecret, MaxAge: time.Hour}).Run(ctx)
		assert.Error(t, err)
	})

	t.Run("lookup failure", func(t *testing.T) {
		store := &fakeUserStore{lookupErr: errors.New("db down")}
		ctx := &Context{Ctx: context.Background(), Out: &bytes.Buffer{}, Users: store}
		err := (&SessionIssueCmd{Email: "ana@example.com", Secret: sessionSecret, MaxAge: time.Hour}).Run(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "look up user")
		assert.Zero(t, store.created)
	})
}
