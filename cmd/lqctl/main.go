// Command lqctl manages the Little Question schema, phrase schedule and dev sessions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/littlequestion/littlequestion/internal/cli"
)

var CLI struct {
	DatabaseURL string `help:"PostgreSQL connection URL." env:"DATABASE_URL"`

	Migrate struct {
		Up     cli.MigrateUpCmd     `cmd:"" help:"Apply pending migrations."`
		Down   cli.MigrateDownCmd   `cmd:"" help:"Roll back the latest migration."`
		Status cli.MigrateStatusCmd `cmd:"" help:"Show migration state."`
	} `cmd:"" help:"Manage schema migrations."`

	Phrases struct {
		Import cli.PhrasesImportCmd `cmd:"" help:"Upsert phrases from a YAML file."`
		List   cli.PhrasesListCmd   `cmd:"" help:"List phrases in a date range."`
	} `cmd:"" help:"Manage daily phrases."`

	Session struct {
		Issue cli.SessionIssueCmd `cmd:"" help:"Mint a session token for a user."`
	} `cmd:"" help:"Manage sessions."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("lqctl"),
		kong.Description("Operator tool for the Little Question journal."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCtx := &cli.Context{
		Ctx:         ctx,
		DatabaseURL: CLI.DatabaseURL,
		Out:         os.Stdout,
	}
	defer appCtx.Close()

	if err := kctx.Run(appCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		appCtx.Close()
		os.Exit(1)
	}
}
