package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"notebins/internal/savednote/model"
	"notebins/pkg/apperr"
	"notebins/pkg/logger"
)

// uniqueViolation is the SQLSTATE postgres reports for a duplicate key.
const uniqueViolation = "23505"

const noteColumns = `id, title, content, note_id, url, created_at, updated_at, expires_at,
	content_length, is_compressed, password_hash, is_password_protected`

// upsertQuery inserts a note or merges into the row holding its note_id.
// The password columns are only written on insert. xmax is zero only on
// a freshly inserted row version.
const upsertQuery = `
	INSERT INTO saved_notes (id, title, content, note_id, url, created_at, updated_at, expires_at,
		content_length, is_compressed, password_hash, is_password_protected)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (note_id) DO UPDATE SET
		title = EXCLUDED.title,
		content = EXCLUDED.content,
		url = EXCLUDED.url,
		updated_at = EXCLUDED.updated_at,
		expires_at = EXCLUDED.expires_at,
		content_length = EXCLUDED.content_length,
		is_compressed = EXCLUDED.is_compressed
	RETURNING ` + noteColumns + `, (xmax = 0) AS inserted`

type SavedNoteRepository struct {
	DB *sql.DB
}

func NewSavedNoteRepository(db *sql.DB) *SavedNoteRepository {
	return &SavedNoteRepository{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner, extra ...any) (model.SavedNote, error) {
	var n model.SavedNote
	var hash sql.NullString
	dest := []any{&n.ID, &n.Title, &n.Content, &n.NoteID, &n.URL, &n.CreatedAt, &n.UpdatedAt, &n.ExpiresAt,
		&n.ContentLength, &n.IsCompressed, &hash, &n.IsPasswordProtected}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.SavedNote{}, err
	}
	n.PasswordHash = hash.String
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// List returns every stored note, most recently updated first.
func (r *SavedNoteRepository) List(ctx context.Context) ([]model.SavedNote, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+noteColumns+` FROM saved_notes ORDER BY updated_at DESC`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list saved notes: %v", err)
		return nil, err
	}
	defer rows.Close()

	notes := []model.SavedNote{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan saved note: %v", err)
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *SavedNoteRepository) GetByID(ctx context.Context, id string) (model.SavedNote, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM saved_notes WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get saved note %s: %v", id, err)
	}
	return n, err
}

func (r *SavedNoteRepository) GetByNoteID(ctx context.Context, noteID string) (model.SavedNote, error) {
	n, err := scanNote(r.DB.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM saved_notes WHERE note_id = $1`, noteID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavedNote{}, fmt.Errorf("saved note for %s: %w", noteID, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get saved note for %s: %v", noteID, err)
	}
	return n, err
}

// Upsert inserts n, or merges it into the row already holding n.NoteID.
// On merge the id, created_at and password digest of the existing row
// win. The boolean reports whether a row was inserted.
func (r *SavedNoteRepository) Upsert(ctx context.Context, n model.SavedNote) (model.SavedNote, bool, error) {
	var inserted bool
	saved, err := scanNote(r.DB.QueryRowContext(ctx, upsertQuery,
		n.ID, n.Title, n.Content, n.NoteID, n.URL, n.CreatedAt, n.UpdatedAt, n.ExpiresAt,
		n.ContentLength, n.IsCompressed, nullable(n.PasswordHash), n.PasswordHash != "",
	), &inserted)
	if err != nil {
		logger.Sugar.Errorf("Failed to upsert saved note for %s: %v", n.NoteID, err)
		return model.SavedNote{}, false, err
	}
	return saved, inserted, nil
}

// Update rewrites the content fields of the note with n.ID. The password
// digest is left untouched.
func (r *SavedNoteRepository) Update(ctx context.Context, n model.SavedNote) (model.SavedNote, error) {
	query := `
		UPDATE saved_notes SET title = $2, content = $3, note_id = $4, updated_at = $5, expires_at = $6,
			content_length = $7, is_compressed = $8
		WHERE id = $1
		RETURNING ` + noteColumns

	saved, err := scanNote(r.DB.QueryRowContext(ctx, query,
		n.ID, n.Title, n.Content, n.NoteID, n.UpdatedAt, n.ExpiresAt, n.ContentLength, n.IsCompressed,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", n.ID, apperr.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return model.SavedNote{}, fmt.Errorf("noteId %s already saved: %w", n.NoteID, apperr.ErrConflict)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update saved note %s: %v", n.ID, err)
	}
	return saved, err
}

func (r *SavedNoteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM saved_notes WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete saved note %s: %v", id, err)
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("saved note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes every note whose expiry is at or before now.
func (r *SavedNoteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM saved_notes WHERE expires_at <= $1`, now)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete expired saved notes: %v", err)
		return 0, err
	}
	return result.RowsAffected()
}

// Ping reports whether the database is reachable.
func (r *SavedNoteRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
