// Package cli implements the lqctl operator commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/littlequestion/littlequestion/internal/model"
	"github.com/littlequestion/littlequestion/internal/repository"
)

// PhraseStore is the slice of the repository the phrase commands use.
type PhraseStore interface {
	UpsertPhrases(ctx context.Context, phrases []*model.Phrase) (inserted, updated int, err error)
	ListPhrasesInRange(ctx context.Context, start, end time.Time) ([]*model.Phrase, error)
}

// UserStore is the slice of the repository the session commands use.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

// Context is passed to every command's Run method.
type Context struct {
	Ctx         context.Context
	DatabaseURL string
	Out         io.Writer

	// Phrases is opened from DatabaseURL on first use when nil.
	Phrases PhraseStore
	Users   UserStore

	closers []func()
}

// phraseStore returns the configured store, connecting if needed.
func (c *Context) phraseStore() (PhraseStore, error) {
	if c.Phrases != nil {
		return c.Phrases, nil
	}
	repo, err := c.connect()
	if err != nil {
		return nil, err
	}
	c.Phrases = repo
	return repo, nil
}

func (c *Context) userStore() (UserStore, error) {
	if c.Users != nil {
		return c.Users, nil
	}
	repo, err := c.connect()
	if err != nil {
		return nil, err
	}
	c.Users = repo
	return repo, nil
}

func (c *Context) connect() (*repository.Repository, error) {
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	repo, err := repository.New(c.Ctx, c.DatabaseURL, repository.PoolConfig{
		MaxConns:        2,
		MinConns:        0,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	c.closers = append(c.closers, repo.Close)
	return repo, nil
}

// Close releases connections opened by commands.
func (c *Context) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
