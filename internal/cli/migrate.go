package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/pressly/goose/v3"

	"github.com/littlequestion/littlequestion/migrations"
)

// MigrateUpCmd applies pending migrations.
type MigrateUpCmd struct{}

func (c *MigrateUpCmd) Run(ctx *Context) error {
	return withProvider(ctx, func(p *goose.Provider) error {
		results, err := p.Up(ctx.Ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		if len(results) == 0 {
			fmt.Fprintln(ctx.Out, "Schema is up to date.")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(ctx.Out, "applied %05d %s (%s)\n", r.Source.Version, r.Source.Path, r.Duration)
		}
		return nil
	})
}

// MigrateDownCmd rolls back the most recent migration.
type MigrateDownCmd struct{}

func (c *MigrateDownCmd) Run(ctx *Context) error {
	return withProvider(ctx, func(p *goose.Provider) error {
		r, err := p.Down(ctx.Ctx)
		if err != nil {
			if errors.Is(err, goose.ErrNoNextVersion) {
				fmt.Fprintln(ctx.Out, "Nothing to roll back.")
				return nil
			}
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintf(ctx.Out, "rolled back %05d %s\n", r.Source.Version, r.Source.Path)
		return nil
	})
}

// MigrateStatusCmd lists every migration and whether it is applied.
type MigrateStatusCmd struct{}

func (c *MigrateStatusCmd) Run(ctx *Context) error {
	return withProvider(ctx, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx.Ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}

		tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%05d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
		}
		return tw.Flush()
	})
}

func withProvider(ctx *Context, fn func(*goose.Provider) error) error {
	if ctx.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	db, err := migrations.Open(ctx.Ctx, ctx.DatabaseURL)
	if err != nil {
		return err
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	provider, err := migrations.NewProvider(db)
	if err != nil {
		return err
	}
	return fn(provider)
}
