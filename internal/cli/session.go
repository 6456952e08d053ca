package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/model"
)

type issuedSession struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SessionIssueCmd mints a session token for a user, creating the user
// when the email is unknown. Useful for local development and smoke tests.
type SessionIssueCmd struct {
	Email  string        `required:"" help:"User email."`
	Name   string        `help:"Display name used when the user is created."`
	Secret string        `name:"secret" env:"SESSION_SECRET" required:"" help:"Session signing secret shared with the API."`
	MaxAge time.Duration `default:"720h" env:"SESSION_MAX_AGE" help:"Token lifetime."`
	Format string        `default:"plain" enum:"plain,json" help:"Output format: plain or json."`
}

func (c *SessionIssueCmd) Run(ctx *Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if email == "" {
		return errors.New("--email is empty")
	}

	sessions, err := auth.NewSessionManager(c.Secret, c.MaxAge)
	if err != nil {
		return err
	}

	store, err := ctx.userStore()
	if err != nil {
		return err
	}

	user, err := ensureUser(ctx, store, email, c.Name)
	if err != nil {
		return err
	}

	token, id, err := sessions.Issue(user)
	if err != nil {
		return err
	}

	switch c.Format {
	case "json":
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(issuedSession{
			UserID:    user.ID,
			Email:     user.Email,
			SessionID: id.SessionID,
			Token:     token,
			ExpiresAt: id.ExpiresAt.UTC().Format(time.RFC3339),
		})
	default:
		fmt.Fprintln(ctx.Out, token)
		return nil
	}
}

func ensureUser(ctx *Context, store UserStore, email, name string) (*model.User, error) {
	user, err := store.GetUserByEmail(ctx.Ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	user = &model.User{Email: email, Name: name}
	if err := store.CreateUser(ctx.Ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
