package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/aeo-tracker/internal/domain"
	"github.com/bryanwahyu/aeo-tracker/internal/domain/visibility"
)

var ts = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestListCodec(t *testing.T) {
	assert.Equal(t, "[]", encodeList(nil))
	assert.Equal(t, `["a","b \"c\""]`, encodeList([]string{"a", `b "c"`}))
	assert.Equal(t, []string{"a", `b "c"`}, decodeList(`["a","b \"c\""]`))
	assert.Equal(t, []string{}, decodeList(""))
	assert.Equal(t, []string{}, decodeList("null"))
	assert.Equal(t, []string{}, decodeList("{not json"))
}

func TestProjectRepository_SaveAndGet(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewProjectRepository(db)

	mock.ExpectExec(`INSERT INTO projects .* ON DUPLICATE KEY UPDATE`).
		WithArgs("p1", "u1", "Acme Widgets", "Acme", "acme.com", `["best widgets"]`, `[]`, ts, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), &visibility.Project{
		ID: "p1", UserID: "u1", Name: "Acme Widgets", Brand: "Acme", Domain: "acme.com",
		Keywords: []string{"best widgets"}, CreatedAt: ts, UpdatedAt: ts,
	}))

	cols := []string{"id", "user_id", "name", "brand", "domain", "keywords_json", "competitors_json", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM projects WHERE id = \? AND user_id = \?`).
		WithArgs("p1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("p1", "u1", "Acme Widgets", "Acme", "acme.com", `["best widgets"]`, `["Widget Pro"]`, ts, ts))

	p, err := repo.Get(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"best widgets"}, p.Keywords)
	assert.Equal(t, []string{"Widget Pro"}, p.Competitors)

	mock.ExpectQuery(`FROM projects WHERE id = \?`).
		WithArgs("p1", "u2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "u2", "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckRepository_InsertAndSince(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewCheckRepository(db)

	mock.ExpectExec(`INSERT INTO visibility_checks`).
		WithArgs("c1", "p1", "Perplexity", "kw", false, nil, 0, "[]", "[]", "", nil, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Insert(context.Background(), &visibility.Check{
		ID: "c1", ProjectID: "p1", Engine: "Perplexity", Keyword: "kw", Timestamp: ts,
	}))

	cols := []string{"id", "project_id", "engine", "keyword", "presence", "position", "citations_count",
		"observed_urls_json", "competitors_json", "answer_snippet", "answer_url", "checked_at"}
	mock.ExpectQuery(`WHERE project_id = \? AND checked_at >= \? ORDER BY checked_at DESC`).
		WithArgs("p1", ts.Add(-time.Hour)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("c1", "p1", "Perplexity", "kw", true, int64(4), int64(2), `["https://acme.com"]`, `[]`, "Acme", nil, ts))

	got, err := repo.Since(context.Background(), "p1", ts.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Position)
	assert.Equal(t, 4, *got[0].Position)
	assert.Equal(t, []string{"https://acme.com"}, got[0].ObservedURLs)
	assert.Equal(t, []string{}, got[0].CompetitorsMentioned)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFailureRepository_Save(t *testing.T) {
	db, mock := setupDB(t)
	repo := NewFailureRepository(db)

	mock.ExpectExec(`INSERT INTO check_failures`).
		WithArgs("p1", "Claude", "-", "persist", "-", ts).
		WillReturnResult(sqlmock.NewResult(42, 1))

	f := &visibility.CheckFailure{ProjectID: "p1", Engine: "Claude", Phase: "persist", CreatedAt: ts}
	require.NoError(t, repo.Save(context.Background(), f))
	assert.Equal(t, int64(42), f.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
