package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/littlequestion/littlequestion/internal/model"
)

// PhrasesImportCmd upserts phrases from a YAML seed file.
type PhrasesImportCmd struct {
	File   string `arg:"" type:"existingfile" help:"YAML file with a list of {date, text, language}."`
	DryRun bool   `help:"Validate the file without writing."`
}

func (c *PhrasesImportCmd) Run(ctx *Context) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	phrases, err := ParseSeed(f)
	if err != nil {
		return err
	}

	if c.DryRun {
		fmt.Fprintf(ctx.Out, "%d phrases valid, nothing written\n", len(phrases))
		return nil
	}

	store, err := ctx.phraseStore()
	if err != nil {
		return err
	}

	inserted, updated, err := store.UpsertPhrases(ctx.Ctx, phrases)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "imported %d phrases (%d new, %d replaced)\n", len(phrases), inserted, updated)
	return nil
}

// PhrasesListCmd prints the phrases scheduled in a date range.
type PhrasesListCmd struct {
	From string `required:"" help:"First day, YYYY-MM-DD."`
	To   string `required:"" help:"Last day, YYYY-MM-DD."`
}

func (c *PhrasesListCmd) Run(ctx *Context) error {
	from, err := model.ParseDay(c.From)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := model.ParseDay(c.To)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	store, err := ctx.phraseStore()
	if err != nil {
		return err
	}

	phrases, err := store.ListPhrasesInRange(ctx.Ctx, from, to)
	if err != nil {
		return err
	}

	if len(phrases) == 0 {
		fmt.Fprintln(ctx.Out, "No phrases in range.")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tLANG\tTEXT")
	for _, p := range phrases {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", model.FormatDay(p.Date), p.Language, p.Text)
	}
	return tw.Flush()
}
