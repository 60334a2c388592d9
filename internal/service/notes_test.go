package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/readnest/readnest/internal/errors"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/validation"
)

func setupTestNotes(t *testing.T) (*NoteService, *time.Time) {
	t.Helper()

	clock := testDay
	svc := NewNoteService(setupTestStore(t, "Minji"), validation.New(), logger.Discard().Logger)
	svc.now = func() time.Time { return clock }
	return svc, &clock
}

func TestNotes_CreateAndList(t *testing.T) {
	ctx := context.Background()
	svc, clock := setupTestNotes(t)

	older, err := svc.CreateNote(ctx, NoteInput{Body: "library day is Thursday"})
	require.NoError(t, err)
	*clock = clock.Add(time.Hour)
	pinned, err := svc.CreateNote(ctx, NoteInput{Body: "return Frog and Toad", Pinned: true})
	require.NoError(t, err)
	*clock = clock.Add(time.Hour)
	newer, err := svc.CreateNote(ctx, NoteInput{Body: "  ask about level 3  ", Favorite: true})
	require.NoError(t, err)
	assert.Equal(t, "ask about level 3", newer.Body)

	notes, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, pinned.ID, notes[0].ID)
	assert.Equal(t, newer.ID, notes[1].ID)
	assert.Equal(t, older.ID, notes[2].ID)
	assert.True(t, notes[1].Favorite)
	assert.True(t, notes[2].CreatedAt.Equal(testDay))
}

func TestNotes_CreateRequiresBody(t *testing.T) {
	svc, _ := setupTestNotes(t)

	_, err := svc.CreateNote(context.Background(), NoteInput{Body: " \n "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestNotes_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupTestNotes(t)

	note, err := svc.CreateNote(ctx, NoteInput{Body: "draft"})
	require.NoError(t, err)

	updated, err := svc.UpdateNote(ctx, note.ID, NotePatch{Body: ptr("final"), Pinned: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Body)
	assert.True(t, updated.Pinned)
	assert.False(t, updated.Favorite)

	notes, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "final", notes[0].Body)
	assert.True(t, notes[0].Pinned)

	_, err = svc.UpdateNote(ctx, note.ID, NotePatch{Body: ptr("")})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.UpdateNote(ctx, "note-missing", NotePatch{Pinned: ptr(false)})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestNotes_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupTestNotes(t)

	keep, err := svc.CreateNote(ctx, NoteInput{Body: "keep"})
	require.NoError(t, err)
	drop, err := svc.CreateNote(ctx, NoteInput{Body: "drop"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteNote(ctx, drop.ID))
	assert.ErrorIs(t, svc.DeleteNote(ctx, drop.ID), domainerrors.ErrNotFound)

	notes, err := svc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, keep.ID, notes[0].ID)
}
