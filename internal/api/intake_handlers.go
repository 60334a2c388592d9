package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/service"
)

func (s *Server) registerIntakeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "scanBarcode",
		Method:       http.MethodPost,
		Path:         "/api/v1/intake/scan",
		Summary:      "Scan a barcode photo",
		Description:  "Decodes an ISBN barcode from the raw image body and refills the draft from book catalogues",
		Tags:         []string{"Intake"},
		MaxBodyBytes: maxScanBytes,
		Middlewares:  huma.Middlewares{s.rateLimitScan},
	}, s.handleScan)

	huma.Register(s.api, huma.Operation{
		OperationID: "lookupISBN",
		Method:      http.MethodGet,
		Path:        "/api/v1/intake/lookup",
		Summary:     "Look up a typed ISBN",
		Description: "Refills the draft from book catalogues unless the ISBN was the last one looked up",
		Tags:        []string{"Intake"},
	}, s.handleLookup)

	huma.Register(s.api, huma.Operation{
		OperationID:   "submitDraft",
		Method:        http.MethodPost,
		Path:          "/api/v1/intake/submit",
		Summary:       "Register from a draft",
		Description:   "Registers a book from the form, falling back to the draft for blank fields",
		Tags:          []string{"Intake"},
		DefaultStatus: http.StatusCreated,
	}, s.handleSubmit)
}

// === DTOs ===

// ScanInput is a photo plus the draft currently on the form.
type ScanInput struct {
	ISBN       string `query:"isbn" doc:"ISBN currently in the draft"`
	Title      string `query:"title" doc:"Title currently in the draft"`
	CoverURL   string `query:"cover_url" doc:"Cover URL currently in the draft"`
	Source     string `query:"source" doc:"Catalogue that filled the draft"`
	LastLookup string `query:"last_lookup" doc:"Last typed ISBN looked up"`
	RawBody    []byte
}

func (in *ScanInput) draft() service.Draft {
	return service.Draft{
		ISBN:       in.ISBN,
		Title:      in.Title,
		CoverURL:   in.CoverURL,
		Source:     in.Source,
		LastLookup: in.LastLookup,
	}
}

// ScanResponse is the refilled draft.
type ScanResponse struct {
	Found bool          `json:"found" doc:"Whether a barcode was decoded"`
	Draft service.Draft `json:"draft"`
}

// ScanOutput wraps the scan result for Huma.
type ScanOutput struct {
	Body ScanResponse
}

// LookupInput is a typed ISBN plus the draft currently on the form.
type LookupInput struct {
	ISBN       string `query:"isbn" required:"true" doc:"ISBN as typed"`
	DraftISBN  string `query:"draft_isbn" doc:"ISBN currently in the draft"`
	Title      string `query:"title" doc:"Title currently in the draft"`
	CoverURL   string `query:"cover_url" doc:"Cover URL currently in the draft"`
	Source     string `query:"source" doc:"Catalogue that filled the draft"`
	LastLookup string `query:"last_lookup" doc:"Last typed ISBN looked up"`
}

func (in *LookupInput) draft() service.Draft {
	return service.Draft{
		ISBN:       in.DraftISBN,
		Title:      in.Title,
		CoverURL:   in.CoverURL,
		Source:     in.Source,
		LastLookup: in.LastLookup,
	}
}

// LookupResponse is the refilled draft.
type LookupResponse struct {
	LookedUp bool          `json:"looked_up" doc:"False when the ISBN matched the last lookup and nothing changed"`
	Draft    service.Draft `json:"draft"`
}

// LookupOutput wraps the lookup result for Huma.
type LookupOutput struct {
	Body LookupResponse
}

// SubmitRequest pairs the draft with the submitted form.
type SubmitRequest struct {
	Draft service.Draft     `json:"draft,omitempty"`
	Book  service.BookInput `json:"book,omitempty"`
}

// SubmitInput wraps the submit request.
type SubmitInput struct {
	Body SubmitRequest
}

// SubmitResponse is the registered book and the reset draft.
type SubmitResponse struct {
	Book  *domain.Book  `json:"book"`
	Draft service.Draft `json:"draft"`
}

// SubmitOutput wraps the submit result for Huma.
type SubmitOutput struct {
	Body SubmitResponse
}

// === Handlers ===

func (s *Server) handleScan(ctx context.Context, input *ScanInput) (*ScanOutput, error) {
	draft, found := s.services.Intake.Scan(ctx, input.draft(), bytes.NewReader(input.RawBody))
	return &ScanOutput{Body: ScanResponse{Found: found, Draft: draft}}, nil
}

func (s *Server) handleLookup(ctx context.Context, input *LookupInput) (*LookupOutput, error) {
	draft, looked := s.services.Intake.Lookup(ctx, input.draft(), input.ISBN)
	return &LookupOutput{Body: LookupResponse{LookedUp: looked, Draft: draft}}, nil
}

func (s *Server) handleSubmit(ctx context.Context, input *SubmitInput) (*SubmitOutput, error) {
	book, draft, err := s.services.Intake.Submit(ctx, input.Body.Draft, input.Body.Book)
	if err != nil {
		return nil, err
	}
	return &SubmitOutput{Body: SubmitResponse{Book: book, Draft: draft}}, nil
}
