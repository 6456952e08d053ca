package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littlequestion/littlequestion/internal/auth"
	"github.com/littlequestion/littlequestion/internal/metrics"
	"github.com/littlequestion/littlequestion/internal/model"
	"github.com/littlequestion/littlequestion/internal/testutil"
)

var testNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type journalFixture struct {
	svc     *JournalService
	store   *testutil.MemoryStore
	metrics *metrics.InMemoryRecorder
	user    *model.User
}

func newJournalFixture(t *testing.T) *journalFixture {
	t.Helper()

	store := testutil.NewMemoryStore()
	rec := metrics.NewInMemory()
	svc := NewJournalService(store, JournalConfig{
		Location:          time.UTC,
		MaxResponseLength: 1000,
		MaxRangeDays:      400,
	}, rec)
	svc.SetClock(func() time.Time { return testNow })

	user := store.AddUser(testutil.NewTestUser(t, "test@example.com"))
	return &journalFixture{svc: svc, store: store, metrics: rec, user: user}
}

func TestJournalService_TodayPhrase(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "What made you smile today?"))

	phrase, err := f.svc.TodayPhrase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "What made you smile today?", phrase.Text)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().PhrasesServed)
}

func TestJournalService_TodayPhrase_Missing(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-29", "yesterday"))

	_, err := f.svc.TodayPhrase(context.Background())
	require.ErrorIs(t, err, model.ErrPhraseNotFound)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().PhrasesMissing)
}

func TestJournalService_TodayPhrase_StoreError(t *testing.T) {
	f := newJournalFixture(t)
	f.store.Err = errors.New("connection refused")

	_, err := f.svc.TodayPhrase(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, model.ErrPhraseNotFound))
	assert.Equal(t, uint64(1), f.metrics.Snapshot().StoreErrors[OpPhrase])
}

func TestJournalService_TodayUsesLocation(t *testing.T) {
	f := newJournalFixture(t)
	f.svc.cfg.Location = time.FixedZone("JST", 9*3600)
	f.svc.SetClock(func() time.Time { return time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC) })

	assert.Equal(t, "2024-03-02", model.FormatDay(f.svc.Today()))
}

func TestJournalService_ResolveUser(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveUser(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.ResolveUser(ctx, &auth.Identity{})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.ResolveUser(ctx, &auth.Identity{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	user, err := f.svc.ResolveUser(ctx, &auth.Identity{Email: "test@example.com"})
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)
}

func TestJournalService_SubmitResponse_CreateThenUpdate(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))
	ctx := context.Background()

	res, err := f.svc.SubmitResponse(ctx, f.user, "first")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "first", res.Response.ResponseText)

	res, err = f.svc.SubmitResponse(ctx, f.user, "second")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "second", res.Response.ResponseText)

	assert.Equal(t, 1, f.store.ResponseCount())

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.ResponsesCreated)
	assert.Equal(t, uint64(1), snap.ResponsesUpdated)
}

func TestJournalService_SubmitResponse_Validation(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "prompt"))

	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"empty", "", ErrInvalidResponse},
		{"whitespace", "   \n\t", ErrInvalidResponse},
		{"too long", strings.Repeat("a", 1001), ErrInvalidResponse},
		{"max length", strings.Repeat("a", 1000), nil},
		{"multibyte at max", strings.Repeat("é", 1000), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitResponse(context.Background(), f.user, tt.text)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJournalService_SubmitResponse_ValidatesBeforePhraseLookup(t *testing.T) {
	f := newJournalFixture(t)

	_, err := f.svc.SubmitResponse(context.Background(), f.user, "")
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = f.svc.SubmitResponse(context.Background(), f.user, "hello")
	assert.ErrorIs(t, err, model.ErrPhraseNotFound)
	assert.Equal(t, 0, f.store.ResponseCount())
}

func TestJournalService_GetResponse(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "today"))
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-28", "earlier"))
	ctx := context.Background()

	_, err := f.svc.SubmitResponse(ctx, f.user, "my answer")
	require.NoError(t, err)

	t.Run("defaults to today", func(t *testing.T) {
		text, err := f.svc.GetResponse(ctx, f.user, "")
		require.NoError(t, err)
		require.NotNil(t, text)
		assert.Equal(t, "my answer", *text)
	})

	t.Run("explicit date with phrase but no response", func(t *testing.T) {
		text, err := f.svc.GetResponse(ctx, f.user, "2024-02-28")
		require.NoError(t, err)
		assert.Nil(t, text)
	})

	t.Run("date without phrase", func(t *testing.T) {
		text, err := f.svc.GetResponse(ctx, f.user, "2023-01-01")
		require.NoError(t, err)
		assert.Nil(t, text)
	})

	t.Run("invalid formats", func(t *testing.T) {
		for _, d := range []string{"2024/03/01", "2024-02-30", "yesterday", "2024-3-1"} {
			_, err := f.svc.GetResponse(ctx, f.user, d)
			assert.ErrorIs(t, err, ErrInvalidDate, d)
		}
	})
}

func TestJournalService_GetResponse_OtherUsersAreIsolated(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "today"))
	other := f.store.AddUser(testutil.NewTestUser(t, "other@example.com"))
	ctx := context.Background()

	_, err := f.svc.SubmitResponse(ctx, other, "theirs")
	require.NoError(t, err)

	text, err := f.svc.GetResponse(ctx, f.user, "")
	require.NoError(t, err)
	assert.Nil(t, text)
}

func TestJournalService_Calendar(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()

	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-27", "before range"))
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-02-28", "p28"))
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "p01"))

	_, err := f.svc.SubmitResponse(ctx, f.user, "r01")
	require.NoError(t, err)

	cal, err := f.svc.Calendar(ctx, f.user, "2024-02-28", "2024-03-01")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"2024-02-28": "p28", "2024-03-01": "p01"}, cal.Phrases)
	assert.Equal(t, map[string]string{"2024-03-01": "r01"}, cal.Responses)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().CalendarFetches)
}

func TestJournalService_Calendar_AcceptsTimestamps(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "p01"))

	cal, err := f.svc.Calendar(context.Background(), f.user, "2024-03-01T00:00:00.000Z", "2024-03-01T23:59:59Z")
	require.NoError(t, err)
	assert.Equal(t, "p01", cal.Phrases["2024-03-01"])
}

func TestJournalService_Calendar_Errors(t *testing.T) {
	f := newJournalFixture(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		start, end string
		wantErr    error
	}{
		{"missing start", "", "2024-03-01", ErrMissingRange},
		{"missing end", "2024-03-01", "", ErrMissingRange},
		{"bad start", "march", "2024-03-01", ErrInvalidDate},
		{"bad end", "2024-03-01", "2024-02-30", ErrInvalidDate},
		{"too large", "2023-01-01", "2024-12-31", ErrRangeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Calendar(ctx, f.user, tt.start, tt.end)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestJournalService_Calendar_ZeroValueConfigIsUnlimited(t *testing.T) {
	store := testutil.NewMemoryStore()
	user := store.AddUser(testutil.NewTestUser(t, "test@example.com"))
	store.AddPhrase(testutil.NewTestPhrase(t, "2023-01-01", "first"))
	store.AddPhrase(testutil.NewTestPhrase(t, "2024-12-31", "last"))

	svc := NewJournalService(store, JournalConfig{Location: time.UTC}, nil)
	ctx := context.Background()

	cal, err := svc.Calendar(ctx, user, "2024-03-01", "2024-03-01")
	require.NoError(t, err)
	assert.Empty(t, cal.Phrases)

	cal, err = svc.Calendar(ctx, user, "2023-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2023-01-01": "first", "2024-12-31": "last"}, cal.Phrases)
}

func TestJournalService_Calendar_ReversedRangeIsEmpty(t *testing.T) {
	f := newJournalFixture(t)
	f.store.AddPhrase(testutil.NewTestPhrase(t, "2024-03-01", "p01"))

	cal, err := f.svc.Calendar(context.Background(), f.user, "2024-03-05", "2024-03-01")
	require.NoError(t, err)
	assert.Empty(t, cal.Phrases)
	assert.Empty(t, cal.Responses)
	assert.NotNil(t, cal.Phrases)
}

func TestJournalService_Calendar_StoreError(t *testing.T) {
	f := newJournalFixture(t)
	f.store.Err = errors.New("timeout")

	_, err := f.svc.Calendar(context.Background(), f.user, "2024-03-01", "2024-03-02")
	require.Error(t, err)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().StoreErrors[OpCalendar])
}
