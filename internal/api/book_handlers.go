package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns the shelf, most recently registered first, with the household's readers",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "registerBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Register book",
		Description:   "Adds a book to the shelf with zero reads",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegisterBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Changes level, status, metadata or a reader's reaction and note",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Removes the book; its reading log entries are kept",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reads",
		Summary:     "Record a read",
		Description: "Counts one read for a reader and appends it to the reading log",
		Tags:        []string{"Books"},
	}, s.handleRecordRead)
}

// === DTOs ===

// BookIDInput identifies a book.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// ListBooksResponse is the shelf.
type ListBooksResponse struct {
	Books   []*domain.Book `json:"books" doc:"Books, newest first"`
	Readers []string       `json:"readers" doc:"Household readers"`
}

// ListBooksOutput wraps the shelf for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// RegisterBookInput is the registration form.
type RegisterBookInput struct {
	Body service.BookInput
}

// BookOutput wraps a single book.
type BookOutput struct {
	Body *domain.Book
}

// UpdateBookInput carries a partial update.
type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.BookPatch
}

// RecordReadRequest names who read.
type RecordReadRequest struct {
	Reader string `json:"reader,omitempty" doc:"Reader name; optional when the household has one reader"`
}

// RecordReadInput identifies the book and reader.
type RecordReadInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body RecordReadRequest `required:"false"`
}

// RecordReadOutput returns the updated book and the new log entry.
type RecordReadOutput struct {
	Body *service.ReadRecorded
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Library.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	readers, err := s.services.Library.Readers(ctx)
	if err != nil {
		return nil, err
	}
	return &ListBooksOutput{Body: ListBooksResponse{Books: books, Readers: readers}}, nil
}

func (s *Server) handleRegisterBook(ctx context.Context, input *RegisterBookInput) (*BookOutput, error) {
	book, err := s.services.Library.RegisterBook(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Library.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	book, err := s.services.Library.UpdateBook(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if err := s.services.Library.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRecordRead(ctx context.Context, input *RecordReadInput) (*RecordReadOutput, error) {
	res, err := s.services.Library.RecordRead(ctx, input.ID, input.Body.Reader)
	if err != nil {
		return nil, err
	}
	return &RecordReadOutput{Body: res}, nil
}
