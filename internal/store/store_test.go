package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnest/readnest/internal/domain"
)

// memBackend keeps tables in memory and counts writes.
type memBackend struct {
	mu      sync.Mutex
	tables  map[Collection]*Table
	writes  map[Collection]int
	readErr error
}

func newMemBackend() *memBackend {
	return &memBackend{tables: map[Collection]*Table{}, writes: map[Collection]int{}}
}

func (m *memBackend) Read(_ context.Context, c Collection) (*Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	t, ok := m.tables[c]
	if !ok {
		return &Table{}, nil
	}
	rows := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = maps.Clone(r)
	}
	return &Table{Header: slices.Clone(t.Header), Rows: rows}, nil
}

func (m *memBackend) Write(_ context.Context, c Collection, t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes[c]++
	rows := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = maps.Clone(r)
	}
	m.tables[c] = &Table{Header: slices.Clone(t.Header), Rows: rows}
	return nil
}

func (m *memBackend) Append(_ context.Context, c Collection, header []string, row Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[c]
	if !ok {
		t = &Table{}
		m.tables[c] = t
	}
	t.Header, _ = MergeHeader(t.Header, header)
	t.Rows = append(t.Rows, maps.Clone(row))
	return nil
}

func (m *memBackend) Close() error { return nil }

func ids(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestNormalize_BackfillsAndCoerces(t *testing.T) {
	raw := Record{
		"id":               "book-1",
		"title":            "Brown Bear",
		"level":            "two",
		"reads_Minji":      "3.0",
		"reaction_Minji":   "obsolete-tag",
		"unexpected_extra": "x",
	}
	before := maps.Clone(raw)

	got := Normalize(raw, BookColumns([]string{"Minji"}))

	assert.Equal(t, Record{
		"id":             "book-1",
		"title":          "Brown Bear",
		"isbn":           "",
		"level":          "0",
		"status":         "unread",
		"cover_url":      "",
		"audio_url":      "",
		"reads_Minji":    "3",
		"reaction_Minji": "unset",
		"note_Minji":     "",
	}, got)
	assert.Equal(t, before, raw, "input must not be modified")
}

func TestNormalize_LegacyHeaders(t *testing.T) {
	raw := Record{
		"ID":    "0b9f6c1e-6f2d-4a4f-9a55-0c3c7d4d3d11",
		"제목":    "Goodnight Moon",
		"ISBN":  "978-0-06-443017-3",
		"레벨":    "2",
		"읽은횟수":  "4",
		"상태":    "완독",
		"표지URL": "http://cover",
	}

	got := Normalize(raw, BookColumns([]string{"Minji", "Jiho"}))

	assert.Equal(t, "0b9f6c1e-6f2d-4a4f-9a55-0c3c7d4d3d11", got["id"])
	assert.Equal(t, "Goodnight Moon", got["title"])
	assert.Equal(t, "9780064430173", got["isbn"])
	assert.Equal(t, "2", got["level"])
	assert.Equal(t, "finished", got["status"])
	assert.Equal(t, "http://cover", got["cover_url"])
	assert.Equal(t, "4", got["reads_Minji"])
	assert.Equal(t, "0", got["reads_Jiho"])
}

func TestNormalize_EmptyCellFallsBackToAlias(t *testing.T) {
	raw := Record{"날짜": "2024-05-01", "책ID": "u-1", "제목": "Frog", "레벨": "3", "date": "", "book_id": "", "title": "", "level": "", "reader": ""}

	got := Normalize(raw, LogColumns())

	assert.Equal(t, "2024-05-01", got["date"])
	assert.Equal(t, "u-1", got["book_id"])
	assert.Equal(t, "Frog", got["title"])
	assert.Equal(t, "3", got["level"])
	assert.Equal(t, "", got["reader"])
}

func TestNormalize_CanonicalCellWins(t *testing.T) {
	got := Normalize(Record{"title": "Toad", "제목": "Frog"}, LogColumns())
	assert.Equal(t, "Toad", got["title"])
}

func TestNormalize_NoteBooleans(t *testing.T) {
	got := Normalize(Record{"id": "note-1", "pinned": "TRUE", "favorite": "maybe"}, NoteColumns())
	assert.Equal(t, "true", got["pinned"])
	assert.Equal(t, "false", got["favorite"])
	assert.Equal(t, "", got["body"])
}

func TestParseCount(t *testing.T) {
	tests := map[string]int{
		"3": 3, " 7 ": 7, "2.0": 2, "-1": 0, "": 0, "nan": 0, "abc": 0, "1e3": 1000,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseCount(in), in)
	}
}

func TestReadersIn(t *testing.T) {
	got := ReadersIn([]string{"id", "reads_Minji", "reaction_Minji", "note_Jiho", "reads_", "title"})
	assert.Equal(t, []string{"Minji", "Jiho"}, got)
}

func TestMergeHeader(t *testing.T) {
	merged, changed := MergeHeader([]string{"date", "book_id"}, []string{"date", "book_id", "reader"})
	assert.True(t, changed)
	assert.Equal(t, []string{"date", "book_id", "reader"}, merged)

	_, changed = MergeHeader(merged, []string{"reader"})
	assert.False(t, changed)
}

func TestRecordCells(t *testing.T) {
	header := []string{"a", "b", "c"}
	r := RecordFromCells(header, []string{"1", "2"})
	assert.Equal(t, Record{"a": "1", "b": "2"}, r)
	assert.Equal(t, []string{"1", "2", ""}, r.Cells(header))
}

func TestStore_LoadEmpty(t *testing.T) {
	backend := newMemBackend()
	s := New(backend, []string{"Minji"}, nil)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap.Books)
	assert.Empty(t, snap.Logs)
	assert.Empty(t, snap.Notes)
	assert.Equal(t, []string{"Minji"}, snap.Readers)
	assert.Empty(t, backend.writes)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBackend(), []string{"Minji", "Jiho"}, nil)

	book := domain.NewBook("book-abc", "Brown Bear", []string{"Minji", "Jiho"})
	book.ISBN = "9780805047905"
	book.Level = 1
	book.RecordRead("Minji")
	book.RecordRead("Minji")
	book.Readers["Jiho"].Reaction = domain.ReactionLove
	book.Readers["Jiho"].Note = "liked the colours, asked twice"

	require.NoError(t, s.SaveBooks(ctx, []*domain.Book{book}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Books, 1)

	got := snap.Books[0]
	assert.Equal(t, book, got)
}

func TestStore_RepairsIdentitiesOnce(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	backend.tables[Books] = &Table{
		Header: []string{"id", "title"},
		Rows: []Record{
			{"id": "book-a", "title": "One"},
			{"id": "", "title": "Two"},
			{"id": "book-a", "title": "Three"},
			{"title": "Four"},
		},
	}
	s := New(backend, []string{"Minji"}, nil)

	first, err := s.Load(ctx)
	require.NoError(t, err)
	firstIDs := ids(first.Books)

	assert.Equal(t, "book-a", firstIDs[0])
	for _, got := range firstIDs[1:] {
		assert.True(t, strings.HasPrefix(got, "book-"))
		assert.NotEqual(t, "book-a", got)
	}
	assert.Len(t, slices.Compact(slices.Sorted(slices.Values(firstIDs))), 4, "ids must be unique")
	assert.Equal(t, 1, backend.writes[Books], "repaired ids are written back")

	second, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstIDs, ids(second.Books))
	assert.Equal(t, 1, backend.writes[Books], "nothing left to repair")
}

func TestStore_ObsoleteReactionLoadsAsUnset(t *testing.T) {
	backend := newMemBackend()
	backend.tables[Books] = &Table{
		Header: []string{"id", "title", "reads_Minji", "reaction_Minji"},
		Rows:   []Record{{"id": "book-1", "title": "Frog", "reads_Minji": "1", "reaction_Minji": "obsolete-tag"}},
	}

	snap, err := New(backend, []string{"Minji"}, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.ReactionUnset, snap.Books[0].Readers["Minji"].Reaction)
	assert.Equal(t, 1, snap.Books[0].Readers["Minji"].Reads)
}

func TestStore_KeepsUnconfiguredReaders(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	backend.tables[Books] = &Table{
		Header: []string{"id", "title", "reads_Older", "note_Older"},
		Rows:   []Record{{"id": "book-1", "title": "Frog", "reads_Older": "5", "note_Older": "grown out of it"}},
	}
	s := New(backend, []string{"Minji"}, nil)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Minji", "Older"}, snap.Readers)

	require.NoError(t, s.SaveBooks(ctx, snap.Books))
	assert.Contains(t, backend.tables[Books].Header, "reads_Older")
	assert.Equal(t, "5", backend.tables[Books].Rows[0]["reads_Older"])
}

func TestStore_LegacyTable(t *testing.T) {
	backend := newMemBackend()
	backend.tables[Books] = &Table{
		Header: []string{"ID", "제목", "ISBN", "레벨", "읽은횟수", "상태", "표지URL"},
		Rows:   []Record{{"ID": "0b9f6c1e-6f2d-4a4f-9a55-0c3c7d4d3d11", "제목": "Frog", "레벨": "3", "읽은횟수": "2", "상태": "읽는 중"}},
	}
	backend.tables[ReadingLog] = &Table{
		Header: []string{"날짜", "책ID", "제목", "레벨"},
		Rows:   []Record{{"날짜": "2024-05-01", "책ID": "0b9f6c1e-6f2d-4a4f-9a55-0c3c7d4d3d11", "제목": "Frog", "레벨": "3"}},
	}

	snap, err := New(backend, []string{"Minji"}, nil).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Books, 1)
	b := snap.Books[0]
	assert.Equal(t, "0b9f6c1e-6f2d-4a4f-9a55-0c3c7d4d3d11", b.ID)
	assert.Equal(t, domain.StatusReading, b.Status)
	assert.Equal(t, 2, b.Readers["Minji"].Reads)

	require.Len(t, snap.Logs, 1)
	assert.Equal(t, domain.ReadingLog{Date: "2024-05-01", BookID: b.ID, Title: "Frog", Level: 3}, snap.Logs[0])
	assert.Empty(t, backend.writes, "legacy ids are valid and need no repair")
}

func TestStore_AppendLog(t *testing.T) {
	ctx := context.Background()
	backend := newMemBackend()
	s := New(backend, []string{"Minji"}, nil)

	entry := domain.ReadingLog{Date: "2025-02-03", BookID: "book-1", Title: "Frog", Level: 2, Reader: "Minji"}
	require.NoError(t, s.AppendLog(ctx, entry))
	require.NoError(t, s.AppendLog(ctx, entry))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ReadingLog{entry, entry}, snap.Logs)
	assert.Equal(t, []string{"date", "book_id", "title", "level", "reader"}, backend.tables[ReadingLog].Header)
	assert.Zero(t, backend.writes[ReadingLog])
}

func TestStore_NotesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBackend(), nil, nil)

	created := time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC)
	note := &domain.Note{ID: "note-1", CreatedAt: created, Body: "library day is Friday", Pinned: true}
	require.NoError(t, s.SaveNotes(ctx, []*domain.Note{note}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Notes, 1)
	assert.True(t, created.Equal(snap.Notes[0].CreatedAt))
	assert.Equal(t, "library day is Friday", snap.Notes[0].Body)
	assert.True(t, snap.Notes[0].Pinned)
	assert.False(t, snap.Notes[0].Favorite)
	assert.Same(t, snap.Notes[0], snap.Note("note-1"))
}

func TestStore_UnknownCollection(t *testing.T) {
	s := New(newMemBackend(), nil, nil)
	err := s.Save(context.Background(), Collection("shelves"), nil)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestStore_ReadErrorSurfaces(t *testing.T) {
	backend := newMemBackend()
	backend.readErr = errors.New("disk gone")
	s := New(backend, nil, nil)

	_, err := s.Load(context.Background())
	assert.ErrorContains(t, err, "disk gone")
	assert.Error(t, s.Ping(context.Background()))
}
