package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnest/readnest/internal/backup"
	"github.com/readnest/readnest/internal/barcode"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/service"
	"github.com/readnest/readnest/internal/store"
	csvstore "github.com/readnest/readnest/internal/store/csv"
	"github.com/readnest/readnest/internal/validation"
)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

type fixedDecoder struct{ text string }

func (d fixedDecoder) Decode(image.Image) (barcode.Symbol, bool) {
	return barcode.Symbol{Text: d.text, Format: "EAN_13"}, d.text != ""
}

type catalogue map[string]string

func (c catalogue) Name() string { return "catalogue" }

func (c catalogue) LookupISBN(_ context.Context, isbn string) (*metadata.Match, error) {
	title, ok := c[isbn]
	if !ok {
		return nil, nil
	}
	return &metadata.Match{Title: title, CoverURL: "http://covers/" + isbn + ".jpg"}, nil
}

// failingBackend refuses every read.
type failingBackend struct{}

func (failingBackend) Read(context.Context, store.Collection) (*store.Table, error) {
	return nil, errors.New("disk unplugged")
}

func (failingBackend) Write(context.Context, store.Collection, *store.Table) error {
	return errors.New("disk unplugged")
}

func (failingBackend) Append(context.Context, store.Collection, []string, store.Record) error {
	return errors.New("disk unplugged")
}

func (failingBackend) Close() error { return nil }

func newServerOver(t *testing.T, backend store.Backend, readers []string, barcodeText string) *testServer {
	t.Helper()

	log := logger.Discard().Logger
	st := store.New(backend, readers, log)
	v := validation.New()

	library := service.NewLibraryService(st, v, log)
	scanner := barcode.NewScanner(fixedDecoder{text: barcodeText}, nil, log)
	chain := metadata.NewChain(log, catalogue{"9780805047905": "Brown Bear, Brown Bear"})

	services := &Services{
		Library: library,
		Notes:   service.NewNoteService(st, v, log),
		Intake:  service.NewIntakeService(scanner, chain, library, log),
		Stats:   service.NewStatsService(st, log),
		Backup:  backup.NewService(st, filepath.Join(t.TempDir(), "backups"), "csv", log),
	}

	s := NewServer(st, services, []string{"http://family.local"}, log)
	t.Cleanup(func() {
		s.Close()
		_ = st.Close()
	})

	return &testServer{Server: s, api: humatest.Wrap(t, s.API())}
}

func setupTestServer(t *testing.T, readers ...string) *testServer {
	t.Helper()
	if len(readers) == 0 {
		readers = []string{"Minji"}
	}
	return newServerOver(t, mustCSV(t), readers, "9780805047905")
}

func mustCSV(t *testing.T) store.Backend {
	t.Helper()
	backend, err := csvstore.Open(t.TempDir(), nil)
	require.NoError(t, err)
	return backend
}

// envelope mirrors response.Envelope with raw data for decoding in tests.
type envelope struct {
	V       int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.True(t, env.Success, resp.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 16))))
	return buf.Bytes()
}

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeData[HealthResponse](t, resp)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["store"].Status)
}

func TestHealthCheck_StoreDown(t *testing.T) {
	ts := newServerOver(t, failingBackend{}, []string{"Minji"}, "")

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAVAILABLE", env.Code)
	assert.Contains(t, string(env.Details), "store read failed")
}

func TestStoreFailure_IsAnErrorNotACrash(t *testing.T) {
	ts := newServerOver(t, failingBackend{}, []string{"Minji"}, "")

	resp := ts.api.Get("/api/v1/books")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "INTERNAL", env.Code)
	assert.Equal(t, "failed to load library", env.Message)
	assert.NotContains(t, resp.Body.String(), "disk unplugged")
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nothing-here")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, resp).Code)
}

func TestCORS_Preflight(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://family.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, "http://family.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	req.Header.Set("Origin", "http://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
