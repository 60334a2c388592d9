package api

import (
	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/readnest/readnest/internal/errors"
	"github.com/readnest/readnest/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in response.Envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return response.Fail(domainerrors.Code(body.Code), body.Message, body.Details), nil
	case response.Envelope, *response.Envelope:
		return v, nil
	default:
		return response.Ok(v), nil
	}
}
