package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/littlequestion/littlequestion/internal/model"
)

const responseColumns = `id, user_id, phrase_id, response_text, created_at, updated_at`

// GetResponse returns the user's response to a phrase.
func (r *Repository) GetResponse(ctx context.Context, userID string, phraseID int64) (*model.UserResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM user_responses WHERE user_id = $1 AND phrase_id = $2`

	var resp model.UserResponse
	err := r.db.QueryRow(ctx, query, userID, phraseID).Scan(
		&resp.ID,
		&resp.UserID,
		&resp.PhraseID,
		&resp.ResponseText,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	return &resp, nil
}

// UpsertResponse creates the user's response to a phrase or replaces its text.
// The unique (user_id, phrase_id) index makes this a single atomic statement,
// so concurrent submissions for the same day cannot produce two rows.
// created reports whether a new row was inserted.
func (r *Repository) UpsertResponse(ctx context.Context, resp *model.UserResponse) (created bool, err error) {
	query := `
		INSERT INTO user_responses (id, user_id, phrase_id, response_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, phrase_id) DO UPDATE
		SET response_text = EXCLUDED.response_text, updated_at = EXCLUDED.updated_at
		RETURNING ` + responseColumns + `, (xmax = 0) AS inserted
	`

	err = r.db.QueryRow(ctx, query,
		newID(), resp.UserID, resp.PhraseID, resp.ResponseText, r.now(),
	).Scan(
		&resp.ID,
		&resp.UserID,
		&resp.PhraseID,
		&resp.ResponseText,
		&resp.CreatedAt,
		&resp.UpdatedAt,
		&created,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("upsert response: %w", model.ErrPhraseNotFound)
		}
		return false, fmt.Errorf("failed to upsert response: %w", err)
	}

	return created, nil
}

// ListResponsesInRange returns the user's responses whose phrase date lies
// in [start, end], oldest first.
func (r *Repository) ListResponsesInRange(ctx context.Context, userID string, start, end time.Time) ([]*model.DatedResponse, error) {
	query, args, err := r.sql.
		Select(
			"ur.id", "ur.user_id", "ur.phrase_id", "ur.response_text",
			"ur.created_at", "ur.updated_at", "p.date",
		).
		From("user_responses ur").
		Join("phrases p ON p.id = ur.phrase_id").
		Where("ur.user_id = ?", userID).
		Where("p.date >= ?", start).
		Where("p.date <= ?", end).
		OrderBy("p.date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build response range query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var responses []*model.DatedResponse
	for rows.Next() {
		var dr model.DatedResponse
		if err := rows.Scan(
			&dr.ID,
			&dr.UserID,
			&dr.PhraseID,
			&dr.ResponseText,
			&dr.CreatedAt,
			&dr.UpdatedAt,
			&dr.PhraseDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		dr.PhraseDate = model.DayOf(dr.PhraseDate, time.UTC)
		responses = append(responses, &dr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}

	return responses, nil
}
