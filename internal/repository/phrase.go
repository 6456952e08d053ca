package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/littlequestion/littlequestion/internal/model"
)

const phraseColumns = `id, text, date, language, created_at`

// GetPhraseByDay returns the phrase scheduled for the given day bucket.
func (r *Repository) GetPhraseByDay(ctx context.Context, day time.Time) (*model.Phrase, error) {
	query := `SELECT ` + phraseColumns + ` FROM phrases WHERE date = $1`

	phrase, err := scanPhrase(r.db.QueryRow(ctx, query, day))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPhraseNotFound
		}
		return nil, fmt.Errorf("failed to get phrase by day: %w", err)
	}

	return phrase, nil
}

// ListPhrasesInRange returns phrases with start <= date <= end, oldest first.
func (r *Repository) ListPhrasesInRange(ctx context.Context, start, end time.Time) ([]*model.Phrase, error) {
	query, args, err := r.sql.
		Select("id", "text", "date", "language", "created_at").
		From("phrases").
		Where("date >= ?", start).
		Where("date <= ?", end).
		OrderBy("date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build phrase range query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list phrases: %w", err)
	}
	defer rows.Close()

	var phrases []*model.Phrase
	for rows.Next() {
		phrase, err := scanPhrase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan phrase: %w", err)
		}
		phrases = append(phrases, phrase)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phrases: %w", err)
	}

	return phrases, nil
}

// UpsertPhrases writes phrases keyed by date in a single transaction.
// An existing phrase for the same day has its text and language replaced.
// Returns the number of rows inserted and updated.
func (r *Repository) UpsertPhrases(ctx context.Context, phrases []*model.Phrase) (inserted, updated int, err error) {
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		now := r.now()
		for _, p := range phrases {
			var created bool
			err := tx.QueryRow(ctx, `
				INSERT INTO phrases (text, date, language, created_at)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (date) DO UPDATE
				SET text = EXCLUDED.text, language = EXCLUDED.language
				RETURNING id, (xmax = 0) AS inserted
			`, p.Text, p.Date, p.Language, now).Scan(&p.ID, &created)
			if err != nil {
				return fmt.Errorf("upsert phrase %s: %w", model.FormatDay(p.Date), err)
			}
			if created {
				inserted++
			} else {
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to upsert phrases: %w", err)
	}

	return inserted, updated, nil
}

func scanPhrase(row pgx.Row) (*model.Phrase, error) {
	var phrase model.Phrase
	err := row.Scan(
		&phrase.ID,
		&phrase.Text,
		&phrase.Date,
		&phrase.Language,
		&phrase.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	phrase.Date = model.DayOf(phrase.Date, time.UTC)
	return &phrase, nil
}
