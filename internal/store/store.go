package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/id"
)

// Snapshot is the full contents of every collection.
type Snapshot struct {
	Books []*domain.Book
	Logs  []domain.ReadingLog
	Notes []*domain.Note

	// Readers is the configured readers plus any found in stored columns.
	Readers []string
}

// Book returns the book with the given id, or nil.
func (s *Snapshot) Book(bookID string) *domain.Book {
	for _, b := range s.Books {
		if b.ID == bookID {
			return b
		}
	}
	return nil
}

// Note returns the note with the given id, or nil.
func (s *Snapshot) Note(noteID string) *domain.Note {
	for _, n := range s.Notes {
		if n.ID == noteID {
			return n
		}
	}
	return nil
}

// Store maps domain types onto backend tables.
type Store struct {
	backend Backend
	readers []string
	logger  *slog.Logger
}

// New creates a store over backend for the configured readers.
func New(backend Backend, readers []string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{backend: backend, readers: slices.Clone(readers), logger: logger}
}

// Readers returns the configured readers.
func (s *Store) Readers() []string {
	return slices.Clone(s.readers)
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Ping checks the backend can be read.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.backend.Read(ctx, Books)
	return err
}

// Load reads every collection, normalising rows and repairing identities.
// Books and notes without an id, or with an id already used by an earlier
// row, get a fresh one and the collection is written back before Load returns.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	bookRows, readers, err := s.loadBooks(ctx)
	if err != nil {
		return nil, err
	}
	logRows, err := s.load(ctx, ReadingLog, LogColumns(), "")
	if err != nil {
		return nil, err
	}
	noteRows, err := s.load(ctx, Notes, NoteColumns(), id.PrefixNote)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Books:   make([]*domain.Book, 0, len(bookRows)),
		Logs:    make([]domain.ReadingLog, 0, len(logRows)),
		Notes:   make([]*domain.Note, 0, len(noteRows)),
		Readers: readers,
	}
	for _, r := range bookRows {
		snap.Books = append(snap.Books, bookFromRecord(r, readers))
	}
	for _, r := range logRows {
		snap.Logs = append(snap.Logs, logFromRecord(r))
	}
	for _, r := range noteRows {
		snap.Notes = append(snap.Notes, noteFromRecord(r))
	}
	return snap, nil
}

// Save replaces collection c with rows, normalised to its columns.
func (s *Store) Save(ctx context.Context, c Collection, rows []Record) error {
	columns, err := s.columnsFor(c, rows)
	if err != nil {
		return err
	}
	return s.write(ctx, c, columns, normalizeAll(rows, columns))
}

// Append adds one row to collection c without rewriting the rest.
func (s *Store) Append(ctx context.Context, c Collection, row Record) error {
	columns, err := s.columnsFor(c, []Record{row})
	if err != nil {
		return err
	}
	if err := s.backend.Append(ctx, c, ColumnNames(columns), Normalize(row, columns)); err != nil {
		return fmt.Errorf("append %s: %w", c, err)
	}
	return nil
}

// SaveBooks replaces the books collection.
func (s *Store) SaveBooks(ctx context.Context, books []*domain.Book) error {
	readers := s.readers
	for _, b := range books {
		readers = mergeReaders(readers, slices.Sorted(maps.Keys(b.Readers)))
	}
	rows := make([]Record, len(books))
	for i, b := range books {
		rows[i] = bookToRecord(b, readers)
	}
	return s.Save(ctx, Books, rows)
}

// SaveNotes replaces the notes collection.
func (s *Store) SaveNotes(ctx context.Context, notes []*domain.Note) error {
	rows := make([]Record, len(notes))
	for i, n := range notes {
		rows[i] = noteToRecord(n)
	}
	return s.Save(ctx, Notes, rows)
}

// SaveLogs replaces the reading log. Only restores rewrite the log.
func (s *Store) SaveLogs(ctx context.Context, logs []domain.ReadingLog) error {
	rows := make([]Record, len(logs))
	for i, e := range logs {
		rows[i] = logToRecord(e)
	}
	return s.Save(ctx, ReadingLog, rows)
}

// AppendLog appends one reading log entry.
func (s *Store) AppendLog(ctx context.Context, entry domain.ReadingLog) error {
	return s.Append(ctx, ReadingLog, logToRecord(entry))
}

func (s *Store) loadBooks(ctx context.Context) ([]Record, []string, error) {
	t, err := s.backend.Read(ctx, Books)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", Books, err)
	}
	readers := mergeReaders(s.readers, ReadersIn(t.Header))
	rows, err := s.normalizeAndRepair(ctx, Books, t, BookColumns(readers), id.PrefixBook)
	return rows, readers, err
}

func (s *Store) load(ctx context.Context, c Collection, columns []Column, idPrefix string) ([]Record, error) {
	t, err := s.backend.Read(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	return s.normalizeAndRepair(ctx, c, t, columns, idPrefix)
}

func (s *Store) normalizeAndRepair(ctx context.Context, c Collection, t *Table, columns []Column, idPrefix string) ([]Record, error) {
	rows := normalizeAll(t.Rows, columns)
	if idPrefix == "" {
		return rows, nil
	}

	if legacy := countLegacyIDs(rows); legacy > 0 {
		s.logger.Debug("keeping legacy uuid ids", "collection", c, "count", legacy)
	}

	repaired, err := repairIDs(rows, idPrefix)
	if err != nil {
		return nil, err
	}
	if repaired == 0 {
		return rows, nil
	}

	s.logger.Info("repaired missing or duplicate ids", "collection", c, "count", repaired)
	if err := s.write(ctx, c, columns, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) write(ctx context.Context, c Collection, columns []Column, rows []Record) error {
	t := &Table{Header: ColumnNames(columns), Rows: rows}
	if err := s.backend.Write(ctx, c, t); err != nil {
		return fmt.Errorf("write %s: %w", c, err)
	}
	s.logger.Debug("collection saved", "collection", c, "rows", len(rows))
	return nil
}

func (s *Store) columnsFor(c Collection, rows []Record) ([]Column, error) {
	switch c {
	case Books:
		var names []string
		for _, r := range rows {
			names = append(names, slices.Sorted(maps.Keys(r))...)
		}
		return BookColumns(mergeReaders(s.readers, ReadersIn(names))), nil
	case ReadingLog:
		return LogColumns(), nil
	case Notes:
		return NoteColumns(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
}

func normalizeAll(rows []Record, columns []Column) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Normalize(r, columns)
	}
	return out
}

func countLegacyIDs(rows []Record) int {
	n := 0
	for _, r := range rows {
		if id.IsLegacy(r["id"]) {
			n++
		}
	}
	return n
}

// repairIDs assigns fresh ids to rows with an empty or already seen id.
func repairIDs(rows []Record, prefix string) (int, error) {
	seen := make(map[string]bool, len(rows))
	repaired := 0
	for _, r := range rows {
		current := r["id"]
		if current != "" && !seen[current] {
			seen[current] = true
			continue
		}
		fresh, err := id.Generate(prefix)
		if err != nil {
			return repaired, fmt.Errorf("generate id: %w", err)
		}
		r["id"] = fresh
		seen[fresh] = true
		repaired++
	}
	return repaired, nil
}
