package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebins/internal/savednote/model"
	"notebins/pkg/apperr"
)

var columns = []string{"id", "title", "content", "note_id", "url", "created_at", "updated_at", "expires_at",
	"content_length", "is_compressed", "password_hash", "is_password_protected"}

func newRepo(t *testing.T) (*SavedNoteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSavedNoteRepository(db), mock
}

func TestList_OrderedAndScanned(t *testing.T) {
	repo, mock := newRepo(t)
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM saved_notes ORDER BY updated_at DESC")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-2", "second", "b", "n2", "https://x/n2", t0, t0.Add(time.Hour), t0.Add(73*time.Hour), 1, false, "digest", true).
			AddRow("id-1", "first", "a", "n1", "https://x/n1", t0, t0, t0.Add(72*time.Hour), 1, false, nil, false))

	notes, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "id-2", notes[0].ID)
	assert.Equal(t, "digest", notes[0].PasswordHash)
	assert.True(t, notes[0].IsPasswordProtected)
	assert.Equal(t, "", notes[1].PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM saved_notes WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByNoteID(t *testing.T) {
	repo, mock := newRepo(t)
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM saved_notes WHERE note_id = $1")).
		WithArgs("n1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("id-1", "first", "a", "n1", "u", t0, t0, t0.Add(72*time.Hour), 1, false, nil, false))

	n, err := repo.GetByNoteID(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, "id-1", n.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_InsertedAndMerged(t *testing.T) {
	repo, mock := newRepo(t)
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	note := model.SavedNote{
		ID: "new-id", Title: "t", Content: "c", NoteID: "n1", URL: "u",
		CreatedAt: t0, UpdatedAt: t0, ExpiresAt: t0.Add(72 * time.Hour), ContentLength: 1,
	}
	withInserted := append(append([]string{}, columns...), "inserted")

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (note_id) DO UPDATE")).
		WithArgs("new-id", "t", "c", "n1", "u", t0, t0, t0.Add(72*time.Hour), 1, false, sql.NullString{}, false).
		WillReturnRows(sqlmock.NewRows(withInserted).
			AddRow("new-id", "t", "c", "n1", "u", t0, t0, t0.Add(72*time.Hour), 1, false, nil, false, true))

	saved, isNew, err := repo.Upsert(context.Background(), note)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "new-id", saved.ID)

	// Second save of the same noteId merges into the existing row. The
	// stored digest is left as it was.
	t1 := t0.Add(time.Hour)
	note.ID, note.UpdatedAt, note.ExpiresAt = "other-id", t1, t1.Add(72*time.Hour)
	note.PasswordHash = "digest"
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (note_id) DO UPDATE")).
		WithArgs("other-id", "t", "c", "n1", "u", t0, t1, t1.Add(72*time.Hour), 1, false,
			sql.NullString{String: "digest", Valid: true}, true).
		WillReturnRows(sqlmock.NewRows(withInserted).
			AddRow("new-id", "t", "c", "n1", "u", t0, t1, t1.Add(72*time.Hour), 1, false, nil, false, false))

	saved, isNew, err = repo.Upsert(context.Background(), note)
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "new-id", saved.ID)
	assert.Empty(t, saved.PasswordHash)
	assert.False(t, saved.IsPasswordProtected)
	assert.True(t, t1.Add(72*time.Hour).Equal(saved.ExpiresAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFoundAndConflict(t *testing.T) {
	repo, mock := newRepo(t)
	t0 := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	note := model.SavedNote{ID: "id-1", Title: "t", Content: "c", NoteID: "n2", UpdatedAt: t0, ExpiresAt: t0.Add(72 * time.Hour)}

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE saved_notes SET")).WillReturnError(sql.ErrNoRows)
	_, err := repo.Update(context.Background(), note)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE saved_notes SET")).WillReturnError(&pq.Error{Code: uniqueViolation})
	_, err = repo.Update(context.Background(), note)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE saved_notes SET")).WillReturnError(errors.New("connection reset"))
	_, err = repo.Update(context.Background(), note)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM saved_notes WHERE id = $1")).
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "id-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM saved_notes WHERE id = $1")).
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), "id-1"), apperr.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpired(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM saved_notes WHERE expires_at <= $1")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_MergeLeavesPasswordColumnsAlone(t *testing.T) {
	conflict := upsertQuery[strings.Index(upsertQuery, "DO UPDATE SET"):]
	assert.NotContains(t, conflict, "password_hash =")
	assert.NotContains(t, conflict, "is_password_protected =")
}
