package service

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/readnest/readnest/internal/barcode"
	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/isbn"
	"github.com/readnest/readnest/internal/metadata"
)

// Draft is the registration form's working state between a scan or lookup
// and the final submit. Callers hold it and pass it back on every step.
type Draft struct {
	ISBN     string `json:"isbn,omitempty"`
	Title    string `json:"title,omitempty"`
	CoverURL string `json:"cover_url,omitempty"`
	Source   string `json:"source,omitempty"`

	// LastLookup is the last typed ISBN that was looked up.
	LastLookup string `json:"last_lookup,omitempty"`
}

// IntakeService fills drafts from barcode photos and typed ISBNs.
type IntakeService struct {
	scanner *barcode.Scanner
	chain   *metadata.Chain
	library *LibraryService
	logger  *slog.Logger
}

// NewIntakeService creates a new intake service.
func NewIntakeService(scanner *barcode.Scanner, chain *metadata.Chain, library *LibraryService, logger *slog.Logger) *IntakeService {
	return &IntakeService{
		scanner: scanner,
		chain:   chain,
		library: library,
		logger:  logger,
	}
}

// Scan reads a barcode from the photo in r. When it finds an ISBN other than
// the draft's, the draft is refilled from the metadata lookup; title and cover
// are cleared if no catalogue knows the book. The bool reports whether a
// barcode was found.
func (s *IntakeService) Scan(ctx context.Context, draft Draft, r io.Reader) (Draft, bool) {
	res, ok := s.scanner.Scan(ctx, r)
	if !ok || res.ISBN == "" {
		return draft, false
	}
	if res.ISBN == draft.ISBN {
		return draft, true
	}

	next := s.fill(ctx, res.ISBN)
	next.LastLookup = draft.LastLookup
	return next, true
}

// Lookup refills the draft from a typed ISBN. A blank value, or the same value
// as the previous lookup, leaves the draft untouched and reports false.
func (s *IntakeService) Lookup(ctx context.Context, draft Draft, typed string) (Draft, bool) {
	typed = strings.TrimSpace(typed)
	if typed == "" || typed == draft.LastLookup {
		return draft, false
	}

	next := s.fill(ctx, typed)
	next.LastLookup = typed
	return next, true
}

// Submit registers a book from form, falling back to the draft for blank
// title, ISBN and cover. On success the returned draft is empty.
func (s *IntakeService) Submit(ctx context.Context, draft Draft, form BookInput) (*domain.Book, Draft, error) {
	if strings.TrimSpace(form.Title) == "" {
		form.Title = draft.Title
	}
	if strings.TrimSpace(form.ISBN) == "" {
		form.ISBN = draft.ISBN
	}
	if strings.TrimSpace(form.CoverURL) == "" {
		form.CoverURL = draft.CoverURL
	}

	book, err := s.library.RegisterBook(ctx, form)
	if err != nil {
		return nil, draft, err
	}
	return book, Draft{}, nil
}

func (s *IntakeService) fill(ctx context.Context, identifier string) Draft {
	d := Draft{ISBN: isbn.Clean(identifier)}
	m, ok := s.chain.Lookup(ctx, identifier)
	if !ok {
		s.logger.Info("no catalogue entry", "isbn", d.ISBN)
		return d
	}
	d.Title = m.Title
	d.CoverURL = m.CoverURL
	d.Source = m.Source
	return d
}
