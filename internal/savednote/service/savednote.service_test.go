package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notebins/internal/savednote/model"
	"notebins/internal/savednote/repository"
	"notebins/pkg/apperr"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T) (*SavedNoteService, *repository.MemoryRepository, *testClock) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	clock := &testClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	svc := NewSavedNoteService(repo)
	svc.Now = clock.Now
	return svc, repo, clock
}

func createReq(noteID, content string) model.CreateSavedNoteRequest {
	return model.CreateSavedNoteRequest{Title: "Title", Content: content, NoteID: noteID, URL: "https://notebins.me/" + noteID}
}

func TestCreate_LargeContentIsCompressed(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()
	content := strings.Repeat("The quick brown fox. ", 1024)[:20480]

	saved, isNew, err := svc.Create(ctx, createReq("n1", content))
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, saved.IsCompressed)
	assert.Equal(t, 20480, saved.ContentLength)
	assert.Equal(t, content, saved.Content)

	stored, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsCompressed)
	assert.Less(t, len(stored.Content), len(content))

	fetched, err := svc.Get(ctx, saved.ID, "")
	require.NoError(t, err)
	assert.Equal(t, content, fetched.Content)
}

func TestCreate_SmallContentStoredPlain(t *testing.T) {
	svc, _, _ := newService(t)
	saved, _, err := svc.Create(context.Background(), createReq("n1", "héllo"))
	require.NoError(t, err)
	assert.False(t, saved.IsCompressed)
	assert.Equal(t, len("héllo"), saved.ContentLength)
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	for _, req := range []model.CreateSavedNoteRequest{
		{Content: "c", NoteID: "n", URL: "u"},
		{Title: "t", NoteID: "n", URL: "u"},
		{Title: "t", Content: "c", URL: "u"},
		{Title: "t", Content: "c", NoteID: "n"},
	} {
		_, _, err := svc.Create(ctx, req)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	notes, _ := repo.List(ctx)
	assert.Empty(t, notes)
}

func TestCreate_PasswordGate(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	req := createReq("n1", "top secret")
	req.Password = "hunter2"
	saved, _, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, saved.IsPasswordProtected)
	assert.Empty(t, saved.PasswordHash)

	_, err = svc.Get(ctx, saved.ID, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Get(ctx, saved.ID, "hunter3")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := svc.Get(ctx, saved.ID, "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "top secret", got.Content)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password\"")
	assert.NotContains(t, string(raw), "PasswordHash")
	assert.Contains(t, string(raw), `"isPasswordProtected":true`)
}

func TestCreate_SameNoteIDMerges(t *testing.T) {
	svc, repo, clock := newService(t)
	ctx := context.Background()

	first, isNew, err := svc.Create(ctx, createReq("n1", "v1"))
	require.NoError(t, err)
	assert.True(t, isNew)

	clock.Advance(2 * time.Hour)
	second, isNew, err := svc.Create(ctx, createReq("n1", "v2"))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "v2", second.Content)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, clock.now.Add(NoteTTL).Equal(second.ExpiresAt))

	notes, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestCreate_MergeKeepsOwnerPassword(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	req := createReq("shared", "v1")
	req.Password = "owner-pw"
	saved, _, err := svc.Create(ctx, req)
	require.NoError(t, err)

	// Re-saving without a password must not strip protection.
	merged, isNew, err := svc.Create(ctx, createReq("shared", "v2"))
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.True(t, merged.IsPasswordProtected)
	_, err = svc.Get(ctx, saved.ID, "owner-pw")
	require.NoError(t, err)

	// Nor may a re-save swap in a different password.
	req.Password = "stranger-pw"
	_, _, err = svc.Create(ctx, req)
	require.NoError(t, err)
	_, err = svc.Get(ctx, saved.ID, "stranger-pw")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Get(ctx, saved.ID, "owner-pw")
	assert.NoError(t, err)
}

func TestCreate_MergeDoesNotProtectOpenNote(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	saved, _, err := svc.Create(ctx, createReq("open", "v1"))
	require.NoError(t, err)

	req := createReq("open", "v2")
	req.Password = "late-pw"
	merged, _, err := svc.Create(ctx, req)
	require.NoError(t, err)
	assert.False(t, merged.IsPasswordProtected)

	got, err := svc.Get(ctx, saved.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestUpdate_SlidingExpiry(t *testing.T) {
	svc, _, clock := newService(t)
	ctx := context.Background()

	t0 := clock.now
	saved, _, err := svc.Create(ctx, createReq("n1", "v1"))
	require.NoError(t, err)
	assert.True(t, t0.Add(3*24*time.Hour).Equal(saved.ExpiresAt))

	clock.Advance(36 * time.Hour)
	t1 := clock.now
	updated, err := svc.Update(ctx, saved.ID, model.UpdateSavedNoteRequest{Title: "T2", Content: "v2", NoteID: "n1"})
	require.NoError(t, err)
	assert.True(t, t1.Add(3*24*time.Hour).Equal(updated.ExpiresAt))
	assert.True(t, t1.Equal(updated.UpdatedAt))
	assert.Equal(t, "T2", updated.Title)
	assert.Equal(t, "v2", updated.Content)
}

func TestUpdate_KeepsPasswordAndRecompresses(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	req := createReq("n1", "small")
	req.Password = "pw"
	saved, _, err := svc.Create(ctx, req)
	require.NoError(t, err)

	big := strings.Repeat("z", 16*1024)
	updated, err := svc.Update(ctx, saved.ID, model.UpdateSavedNoteRequest{Title: "t", Content: big, NoteID: "n1"})
	require.NoError(t, err)
	assert.True(t, updated.IsCompressed)
	assert.Equal(t, len(big), updated.ContentLength)
	assert.True(t, updated.IsPasswordProtected)

	stored, _ := repo.GetByID(ctx, saved.ID)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestUpdate_Errors(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	req := model.UpdateSavedNoteRequest{Title: "t", Content: "c", NoteID: "n1"}

	_, err := svc.Update(ctx, uuid.NewString(), req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, "not-a-uuid", req)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Update(ctx, uuid.NewString(), model.UpdateSavedNoteRequest{Title: "t", NoteID: "n1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	a, _, _ := svc.Create(ctx, createReq("a", "c"))
	_, _, _ = svc.Create(ctx, createReq("b", "c"))
	_, err = svc.Update(ctx, a.ID, model.UpdateSavedNoteRequest{Title: "t", Content: "c", NoteID: "b"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestGet_NotFoundIsDistinctFromUnauthorized(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, uuid.NewString(), "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Get(ctx, "garbage", "pw")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_PasswordGate(t *testing.T) {
	svc, repo, _ := newService(t)
	ctx := context.Background()

	req := createReq("n1", "c")
	req.Password = "pw"
	saved, _, err := svc.Create(ctx, req)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, saved.ID, ""), apperr.ErrUnauthorized)
	assert.ErrorIs(t, svc.Delete(ctx, saved.ID, "nope"), apperr.ErrUnauthorized)
	_, err = repo.GetByID(ctx, saved.ID)
	require.NoError(t, err, "unauthorized delete must not remove the note")

	require.NoError(t, svc.Delete(ctx, saved.ID, "pw"))
	assert.ErrorIs(t, svc.Delete(ctx, saved.ID, "pw"), apperr.ErrNotFound)

	open, _, err := svc.Create(ctx, createReq("n2", "c"))
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, open.ID, ""))
}

func TestList_DecompressedNewestFirstHidesProtected(t *testing.T) {
	svc, _, clock := newService(t)
	ctx := context.Background()

	big := strings.Repeat("abc", 5000)
	_, _, err := svc.Create(ctx, createReq("old", big))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	req := createReq("new", "fresh")
	req.Password = "pw"
	_, _, err = svc.Create(ctx, req)
	require.NoError(t, err)

	notes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "new", notes[0].NoteID)
	assert.Empty(t, notes[0].PasswordHash)
	assert.True(t, notes[0].IsPasswordProtected)
	assert.Empty(t, notes[0].Content, "protected content stays behind the password")
	assert.Equal(t, big, notes[1].Content)
}

func TestCheckExists(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CheckExists(ctx, "n1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	req := createReq("n1", "secret body")
	req.Password = "pw"
	saved, _, err := svc.Create(ctx, req)
	require.NoError(t, err)

	summary, err := svc.CheckExists(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, summary.ID)
	assert.True(t, summary.IsPasswordProtected)

	raw, _ := json.Marshal(summary)
	assert.NotContains(t, string(raw), "secret body")
	assert.NotContains(t, string(raw), "content\"")
}

func TestSweeper_RemovesOnlyExpired(t *testing.T) {
	svc, repo, clock := newService(t)
	ctx := context.Background()

	stale, _, err := svc.Create(ctx, createReq("stale", "c"))
	require.NoError(t, err)
	clock.Advance(2 * 24 * time.Hour)
	fresh, _, err := svc.Create(ctx, createReq("fresh", "c"))
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)

	// Expired but not yet swept: still readable.
	_, err = svc.Get(ctx, stale.ID, "")
	require.NoError(t, err)

	sweeper := NewSweeper(repo, 0)
	sweeper.Now = clock.Now
	assert.Equal(t, DefaultSweepInterval, sweeper.Interval)
	assert.Equal(t, int64(1), sweeper.Sweep(ctx))

	_, err = svc.Get(ctx, stale.ID, "")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = svc.Get(ctx, fresh.ID, "")
	assert.NoError(t, err)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	repo := repository.NewMemoryRepository()
	sweeper := NewSweeper(repo, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
