// Package service holds the household operations behind the API: the shelf,
// the reading log, the family board, book intake and the dashboard.
package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/readnest/readnest/internal/domain"
	domainerrors "github.com/readnest/readnest/internal/errors"
	"github.com/readnest/readnest/internal/id"
	"github.com/readnest/readnest/internal/isbn"
	"github.com/readnest/readnest/internal/store"
	"github.com/readnest/readnest/internal/validation"
)

// BookInput is a book being registered.
type BookInput struct {
	Title    string `json:"title,omitempty" validate:"required,max=300"`
	ISBN     string `json:"isbn,omitempty"`
	Level    int    `json:"level,omitempty" validate:"omitempty,min=1,max=5"`
	Status   string `json:"status,omitempty" validate:"omitempty,status"`
	CoverURL string `json:"cover_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
}

// BookPatch changes selected fields of a book. Nil fields are left alone.
type BookPatch struct {
	Title    *string                `json:"title,omitempty" validate:"omitempty,max=300"`
	ISBN     *string                `json:"isbn,omitempty"`
	Level    *int                   `json:"level,omitempty" validate:"omitempty,min=1,max=5"`
	Status   *string                `json:"status,omitempty" validate:"omitempty,status"`
	CoverURL *string                `json:"cover_url,omitempty"`
	AudioURL *string                `json:"audio_url,omitempty"`
	Readers  map[string]ReaderPatch `json:"readers,omitempty" validate:"omitempty,dive"`
}

// ReaderPatch changes one reader's reaction or note.
type ReaderPatch struct {
	Reaction *string `json:"reaction,omitempty" validate:"omitempty,reaction"`
	Note     *string `json:"note,omitempty"`
}

// ReadRecorded is the outcome of RecordRead.
type ReadRecorded struct {
	Book  *domain.Book      `json:"book"`
	Entry domain.ReadingLog `json:"entry"`
}

// LibraryService manages the shelf and the reading log.
type LibraryService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewLibraryService creates a new library service.
func NewLibraryService(st *store.Store, v *validation.Validator, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:     st,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

// ListBooks returns every book, most recently registered first.
func (s *LibraryService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	books := slices.Clone(snap.Books)
	slices.Reverse(books)
	return books, nil
}

// GetBook returns one book.
func (s *LibraryService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	book := snap.Book(bookID)
	if book == nil {
		return nil, bookNotFound(bookID)
	}
	return book, nil
}

// RegisterBook validates in and adds it to the shelf with zero reads.
func (s *LibraryService) RegisterBook(ctx context.Context, in BookInput) (*domain.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate book id")
	}

	book := domain.NewBook(bookID, in.Title, snap.Readers)
	book.ISBN = isbn.Clean(in.ISBN)
	book.Level = in.Level
	if book.Level == 0 {
		book.Level = domain.MinLevel
	}
	if in.Status != "" {
		book.Status = domain.ParseStatus(in.Status)
	}
	book.CoverURL = strings.TrimSpace(in.CoverURL)
	book.AudioURL = strings.TrimSpace(in.AudioURL)

	if err := s.saveBooks(ctx, append(snap.Books, book)); err != nil {
		return nil, err
	}

	s.logger.Info("book registered", "book_id", book.ID, "title", book.Title, "isbn", book.ISBN)
	return book, nil
}

// UpdateBook applies patch to the book. Read counts cannot be edited here.
func (s *LibraryService) UpdateBook(ctx context.Context, bookID string, patch BookPatch) (*domain.Book, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	book := snap.Book(bookID)
	if book == nil {
		return nil, bookNotFound(bookID)
	}

	for reader := range patch.Readers {
		if !slices.Contains(snap.Readers, reader) {
			return nil, domainerrors.Validationf("unknown reader %q", reader)
		}
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"})
		}
		book.Title = title
	}
	if patch.ISBN != nil {
		book.ISBN = isbn.Clean(*patch.ISBN)
	}
	if patch.Level != nil {
		book.Level = *patch.Level
	}
	if patch.Status != nil {
		book.Status = domain.ParseStatus(*patch.Status)
	}
	if patch.CoverURL != nil {
		book.CoverURL = strings.TrimSpace(*patch.CoverURL)
	}
	if patch.AudioURL != nil {
		book.AudioURL = strings.TrimSpace(*patch.AudioURL)
	}
	for reader, rp := range patch.Readers {
		p := book.Progress(reader)
		if rp.Reaction != nil {
			p.Reaction = domain.ParseReaction(*rp.Reaction)
		}
		if rp.Note != nil {
			p.Note = *rp.Note
		}
	}

	if err := s.saveBooks(ctx, snap.Books); err != nil {
		return nil, err
	}

	s.logger.Info("book updated", "book_id", book.ID)
	return book, nil
}

// RecordRead counts one read of the book by reader and appends a log entry
// carrying the book's current title and level. An empty reader is accepted
// when the household has exactly one.
func (s *LibraryService) RecordRead(ctx context.Context, bookID, reader string) (*ReadRecorded, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	book := snap.Book(bookID)
	if book == nil {
		return nil, bookNotFound(bookID)
	}

	reader, err = resolveReader(snap.Readers, reader)
	if err != nil {
		return nil, err
	}

	reads := book.RecordRead(reader)
	if err := s.saveBooks(ctx, snap.Books); err != nil {
		return nil, err
	}

	entry := domain.NewReadingLog(book, reader, s.now())
	if err := s.store.AppendLog(ctx, entry); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to append reading log")
	}

	s.logger.Info("read recorded", "book_id", book.ID, "reader", reader, "reads", reads)
	return &ReadRecorded{Book: book, Entry: entry}, nil
}

// DeleteBook removes a book from the shelf. Its log entries stay.
func (s *LibraryService) DeleteBook(ctx context.Context, bookID string) error {
	snap, err := s.load(ctx)
	if err != nil {
		return err
	}

	books := slices.DeleteFunc(slices.Clone(snap.Books), func(b *domain.Book) bool {
		return b.ID == bookID
	})
	if len(books) == len(snap.Books) {
		return bookNotFound(bookID)
	}

	if err := s.saveBooks(ctx, books); err != nil {
		return err
	}

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// ListLogs returns the reading log in the order it was written.
// A non-empty reader keeps only that reader's entries.
func (s *LibraryService) ListLogs(ctx context.Context, reader string) ([]domain.ReadingLog, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if reader == "" {
		return snap.Logs, nil
	}
	return slices.DeleteFunc(snap.Logs, func(e domain.ReadingLog) bool {
		return e.Reader != reader
	}), nil
}

// Readers returns the household's readers, including any found only in stored columns.
func (s *LibraryService) Readers(ctx context.Context) ([]string, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Readers, nil
}

func (s *LibraryService) load(ctx context.Context) (*store.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load library", "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load library")
	}
	return snap, nil
}

func (s *LibraryService) saveBooks(ctx context.Context, books []*domain.Book) error {
	if err := s.store.SaveBooks(ctx, books); err != nil {
		s.logger.Error("failed to save books", "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save books")
	}
	return nil
}

func resolveReader(readers []string, reader string) (string, error) {
	reader = strings.TrimSpace(reader)
	if reader == "" {
		if len(readers) == 1 {
			return readers[0], nil
		}
		return "", domainerrors.Validation("reader is required")
	}
	if !slices.Contains(readers, reader) {
		return "", domainerrors.Validationf("unknown reader %q", reader)
	}
	return reader, nil
}

func bookNotFound(bookID string) error {
	return domainerrors.NotFoundf("book %s not found", bookID)
}
