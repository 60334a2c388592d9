package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/notes",
		Summary:     "List notes",
		Description: "Returns the family board, pinned notes first, then newest first",
		Tags:        []string{"Notes"},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/notes",
		Summary:       "Create note",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Update note",
		Tags:        []string{"Notes"},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNote",
		Method:        http.MethodDelete,
		Path:          "/api/v1/notes/{id}",
		Summary:       "Delete note",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNote)
}

// === DTOs ===

// ListNotesResponse is the board.
type ListNotesResponse struct {
	Notes []*domain.Note `json:"notes"`
}

// ListNotesOutput wraps the board for Huma.
type ListNotesOutput struct {
	Body ListNotesResponse
}

// CreateNoteInput is a new note.
type CreateNoteInput struct {
	Body service.NoteInput
}

// UpdateNoteInput carries a partial update.
type UpdateNoteInput struct {
	ID   string `path:"id" doc:"Note ID"`
	Body service.NotePatch
}

// NoteIDInput identifies a note.
type NoteIDInput struct {
	ID string `path:"id" doc:"Note ID"`
}

// NoteOutput wraps a single note.
type NoteOutput struct {
	Body *domain.Note
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, _ *struct{}) (*ListNotesOutput, error) {
	notes, err := s.services.Notes.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	return &ListNotesOutput{Body: ListNotesResponse{Notes: notes}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	note, err := s.services.Notes.CreateNote(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	note, err := s.services.Notes.UpdateNote(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*struct{}, error) {
	if err := s.services.Notes.DeleteNote(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
