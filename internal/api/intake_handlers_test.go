package api

import (
	"bytes"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnest/readnest/internal/ratelimit"
)

func TestIntake_ScanFillsDraft(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/intake/scan", "Content-Type: image/png", bytes.NewReader(pngBytes(t)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[ScanResponse](t, resp)
	assert.True(t, out.Found)
	assert.Equal(t, "9780805047905", out.Draft.ISBN)
	assert.Equal(t, "Brown Bear, Brown Bear", out.Draft.Title)
	assert.Equal(t, "http://covers/9780805047905.jpg", out.Draft.CoverURL)
	assert.Equal(t, "catalogue", out.Draft.Source)
}

func TestIntake_ScanSameISBNKeepsDraft(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/intake/scan?isbn=9780805047905&title=Edited+by+hand",
		"Content-Type: image/png", bytes.NewReader(pngBytes(t)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[ScanResponse](t, resp)
	assert.True(t, out.Found)
	assert.Equal(t, "Edited by hand", out.Draft.Title)
}

func TestIntake_ScanNoBarcode(t *testing.T) {
	ts := newServerOver(t, mustCSV(t), []string{"Minji"}, "")

	resp := ts.api.Post("/api/v1/intake/scan?title=Frog", "Content-Type: image/png", bytes.NewReader(pngBytes(t)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[ScanResponse](t, resp)
	assert.False(t, out.Found)
	assert.Equal(t, "Frog", out.Draft.Title)
}

func TestIntake_ScanNotAnImage(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/intake/scan", "Content-Type: image/png", bytes.NewReader([]byte("not a photo")))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.False(t, decodeData[ScanResponse](t, resp).Found)
}

func TestIntake_ScanRateLimited(t *testing.T) {
	ts := setupTestServer(t)
	ts.scanLimiter.Stop()
	ts.scanLimiter = ratelimit.New(0.001, 1)

	resp := ts.api.Post("/api/v1/intake/scan", "Content-Type: image/png", "X-Real-IP: 10.0.0.7",
		bytes.NewReader(pngBytes(t)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/intake/scan", "Content-Type: image/png", "X-Real-IP: 10.0.0.7",
		bytes.NewReader(pngBytes(t)))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "RATE_LIMITED", env.Code)

	resp = ts.api.Post("/api/v1/intake/scan", "Content-Type: image/png", "X-Real-IP: 10.0.0.8",
		bytes.NewReader(pngBytes(t)))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestIntake_Lookup(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/intake/lookup?isbn=0-8050-4790-6")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decodeData[LookupResponse](t, resp)
	assert.True(t, out.LookedUp)
	assert.Equal(t, "0805047906", out.Draft.ISBN)
	assert.Equal(t, "0-8050-4790-6", out.Draft.LastLookup)

	resp = ts.api.Get("/api/v1/intake/lookup?isbn=0-8050-4790-6&last_lookup=0-8050-4790-6")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decodeData[LookupResponse](t, resp).LookedUp)

	resp = ts.api.Get("/api/v1/intake/lookup?isbn=9780805047905")
	require.Equal(t, http.StatusOK, resp.Code)
	out = decodeData[LookupResponse](t, resp)
	assert.Equal(t, "Brown Bear, Brown Bear", out.Draft.Title)
}

func TestIntake_LookupRequiresISBN(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/intake/lookup")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
}

func TestIntake_Submit(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/intake/submit", map[string]any{
		"draft": map[string]any{
			"isbn":      "9780805047905",
			"title":     "Brown Bear, Brown Bear",
			"cover_url": "http://covers/9780805047905.jpg",
		},
		"book": map[string]any{"level": 2},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	out := decodeData[SubmitResponse](t, resp)
	require.NotNil(t, out.Book)
	assert.Equal(t, "Brown Bear, Brown Bear", out.Book.Title)
	assert.Equal(t, "9780805047905", out.Book.ISBN)
	assert.Equal(t, 2, out.Book.Level)
	assert.Empty(t, out.Draft.ISBN)

	resp = ts.api.Get("/api/v1/books")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decodeData[ListBooksResponse](t, resp).Books, 1)
}

func TestIntake_SubmitWithoutTitle(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/intake/submit", map[string]any{
		"draft": map[string]any{"isbn": "9780805047905"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
}

func TestIntake_LookupSameISBNKeepsDraft(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/intake/lookup?isbn=9780805047905")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	first := decodeData[LookupResponse](t, resp).Draft
	require.Equal(t, "Brown Bear, Brown Bear", first.Title)

	q := url.Values{
		"isbn":        {"9780805047905"},
		"draft_isbn":  {first.ISBN},
		"title":       {first.Title},
		"cover_url":   {first.CoverURL},
		"source":      {first.Source},
		"last_lookup": {first.LastLookup},
	}
	resp = ts.api.Get("/api/v1/intake/lookup?" + q.Encode())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[LookupResponse](t, resp)
	assert.False(t, out.LookedUp)
	assert.Equal(t, first, out.Draft)
	assert.Equal(t, "9780805047905", out.Draft.ISBN)
	assert.Equal(t, "Brown Bear, Brown Bear", out.Draft.Title)
}
