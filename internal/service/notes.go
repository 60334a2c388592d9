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
	"github.com/readnest/readnest/internal/store"
	"github.com/readnest/readnest/internal/validation"
)

// NoteInput is a new board entry.
type NoteInput struct {
	Body     string `json:"body" validate:"required,max=5000"`
	Pinned   bool   `json:"pinned,omitempty"`
	Favorite bool   `json:"favorite,omitempty"`
}

// NotePatch changes selected fields of a note.
type NotePatch struct {
	Body     *string `json:"body,omitempty" validate:"omitempty,max=5000"`
	Pinned   *bool   `json:"pinned,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

// NoteService manages the family board.
type NoteService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewNoteService creates a new note service.
func NewNoteService(st *store.Store, v *validation.Validator, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:     st,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

// ListNotes returns notes pinned first, then newest first.
func (s *NoteService) ListNotes(ctx context.Context) ([]*domain.Note, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	notes := slices.Clone(snap.Notes)
	domain.SortNotes(notes)
	return notes, nil
}

// CreateNote adds a note stamped with the current time.
func (s *NoteService) CreateNote(ctx context.Context, in NoteInput) (*domain.Note, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	noteID, err := id.Generate(id.PrefixNote)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate note id")
	}

	note := &domain.Note{
		ID:        noteID,
		CreatedAt: s.now().Truncate(time.Second),
		Body:      in.Body,
		Pinned:    in.Pinned,
		Favorite:  in.Favorite,
	}
	if err := s.save(ctx, append(snap.Notes, note)); err != nil {
		return nil, err
	}

	s.logger.Info("note created", "note_id", note.ID)
	return note, nil
}

// UpdateNote applies patch to a note.
func (s *NoteService) UpdateNote(ctx context.Context, noteID string, patch NotePatch) (*domain.Note, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	note := snap.Note(noteID)
	if note == nil {
		return nil, domainerrors.NotFoundf("note %s not found", noteID)
	}

	if patch.Body != nil {
		body := strings.TrimSpace(*patch.Body)
		if body == "" {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"body": "is required"})
		}
		note.Body = body
	}
	if patch.Pinned != nil {
		note.Pinned = *patch.Pinned
	}
	if patch.Favorite != nil {
		note.Favorite = *patch.Favorite
	}

	if err := s.save(ctx, snap.Notes); err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteNote removes a note.
func (s *NoteService) DeleteNote(ctx context.Context, noteID string) error {
	snap, err := s.load(ctx)
	if err != nil {
		return err
	}

	notes := slices.DeleteFunc(slices.Clone(snap.Notes), func(n *domain.Note) bool {
		return n.ID == noteID
	})
	if len(notes) == len(snap.Notes) {
		return domainerrors.NotFoundf("note %s not found", noteID)
	}

	if err := s.save(ctx, notes); err != nil {
		return err
	}

	s.logger.Info("note deleted", "note_id", noteID)
	return nil
}

func (s *NoteService) load(ctx context.Context) (*store.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("failed to load notes", "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load notes")
	}
	return snap, nil
}

func (s *NoteService) save(ctx context.Context, notes []*domain.Note) error {
	if err := s.store.SaveNotes(ctx, notes); err != nil {
		s.logger.Error("failed to save notes", "error", err)
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to save notes")
	}
	return nil
}
