package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/service"
)

func registerBook(t *testing.T, ts *testServer, body map[string]any) *domain.Book {
	t.Helper()
	resp := ts.api.Post("/api/v1/books", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeData[*domain.Book](t, resp)
}

func TestBooks_RegisterListGet(t *testing.T) {
	ts := setupTestServer(t, "Minji", "Jiho")

	first := registerBook(t, ts, map[string]any{"title": "Frog", "level": 2})
	second := registerBook(t, ts, map[string]any{"title": "Brown Bear", "isbn": "978-0-8050-4790-5"})

	assert.Equal(t, "9780805047905", second.ISBN)
	assert.Equal(t, domain.StatusUnread, second.Status)
	assert.Equal(t, 1, second.Level)

	resp := ts.api.Get("/api/v1/books")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decodeData[ListBooksResponse](t, resp)
	require.Len(t, list.Books, 2)
	assert.Equal(t, second.ID, list.Books[0].ID)
	assert.Equal(t, first.ID, list.Books[1].ID)
	assert.Equal(t, []string{"Minji", "Jiho"}, list.Readers)

	resp = ts.api.Get("/api/v1/books/" + first.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeData[*domain.Book](t, resp)
	assert.Equal(t, "Frog", got.Title)
	assert.Equal(t, 2, got.Level)
}

func TestBooks_RegisterValidation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/books", map[string]any{"title": "  ", "level": 3})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.JSONEq(t, `{"title":"is required"}`, string(env.Details))

	resp = ts.api.Post("/api/v1/books", map[string]any{"title": "Frog", "level": 7})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.JSONEq(t, `{"level":"must be at most 5"}`, string(decodeEnvelope(t, resp).Details))
}

func TestBooks_MalformedBody(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/books", map[string]any{"title": "Frog", "level": "three"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
}

func TestBooks_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/books/book-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.Equal(t, "book book-missing not found", env.Message)
	assert.Equal(t, env.Message, env.Error)
}

func TestBooks_Update(t *testing.T) {
	ts := setupTestServer(t, "Minji")
	book := registerBook(t, ts, map[string]any{"title": "Frog"})

	resp := ts.api.Patch("/api/v1/books/"+book.ID, map[string]any{
		"level":  3,
		"status": "finished",
		"readers": map[string]any{
			"Minji": map[string]any{"reaction": "like", "note": "loved the toad"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeData[*domain.Book](t, resp)
	assert.Equal(t, 3, updated.Level)
	assert.Equal(t, domain.StatusFinished, updated.Status)
	assert.Equal(t, domain.ReactionLike, updated.Readers["Minji"].Reaction)
	assert.Equal(t, "loved the toad", updated.Readers["Minji"].Note)

	resp = ts.api.Patch("/api/v1/books/"+book.ID, map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBooks_BrownBearScenario(t *testing.T) {
	ts := setupTestServer(t, "Minji")
	book := registerBook(t, ts, map[string]any{"title": "Brown Bear", "level": 1})

	for range 2 {
		resp := ts.api.Post("/api/v1/books/"+book.ID+"/reads", map[string]any{"reader": "Minji"})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/reads", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decodeData[service.ReadRecorded](t, resp)
	assert.Equal(t, 3, res.Book.Readers["Minji"].Reads)
	assert.Equal(t, domain.StatusReading, res.Book.Status)
	assert.Equal(t, "Brown Bear", res.Entry.Title)

	resp = ts.api.Get("/api/v1/logs")
	require.Equal(t, http.StatusOK, resp.Code)
	logs := decodeData[ListLogsResponse](t, resp)
	assert.Len(t, logs.Logs, 3)

	resp = ts.api.Get("/api/v1/logs?reader=Nobody")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeData[ListLogsResponse](t, resp).Logs)

	resp = ts.api.Get("/api/v1/stats")
	require.Equal(t, http.StatusOK, resp.Code)
	sum := decodeData[service.Summary](t, resp)
	assert.Equal(t, 3, sum.Total)
	assert.Len(t, sum.Daily, service.TrendDays)
	assert.Equal(t, []service.LevelCount{{Level: 1, Reads: 3}}, sum.ByLevel)
}

func TestBooks_RecordReadUnknownReader(t *testing.T) {
	ts := setupTestServer(t, "Minji", "Jiho")
	book := registerBook(t, ts, map[string]any{"title": "Frog"})

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/reads", map[string]any{"reader": "Stranger"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/reads", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBooks_Delete(t *testing.T) {
	ts := setupTestServer(t)
	book := registerBook(t, ts, map[string]any{"title": "Frog"})

	resp := ts.api.Delete("/api/v1/books/" + book.ID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Delete("/api/v1/books/" + book.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
