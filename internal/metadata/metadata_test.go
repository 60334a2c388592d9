package metadata_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/metadata/googlebooks"
	"github.com/readnest/readnest/internal/metadata/openlibrary"
)

// catalogue is an httptest server that records every request URI.
type catalogue struct {
	mu       sync.Mutex
	requests []string
	server   *httptest.Server
}

func newCatalogue(t *testing.T, body string, status int) *catalogue {
	t.Helper()
	c := &catalogue{}
	c.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.requests = append(c.requests, r.URL.RequestURI())
		c.mu.Unlock()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(c.server.Close)
	return c
}

func (c *catalogue) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func newChain(t *testing.T, a, b *catalogue) *metadata.Chain {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	gb := googlebooks.New(googlebooks.Config{BaseURL: a.server.URL}, log)
	ol := openlibrary.New(openlibrary.Config{BaseURL: b.server.URL}, log)
	t.Cleanup(gb.Close)
	t.Cleanup(ol.Close)
	return metadata.NewChain(log, gb, ol)
}

const (
	googleHit   = `{"items":[{"volumeInfo":{"title":"Brown Bear","imageLinks":{"thumbnail":"http://g/thumb"}}}]}`
	googleMiss  = `{"totalItems":0}`
	libraryHit  = `{"ISBN:9780134685991":{"title":"Effective Java","cover":{"medium":"http://ol/m"}}}`
	libraryMiss = `{}`
)

func TestChain_FirstProviderShortCircuits(t *testing.T) {
	a := newCatalogue(t, googleHit, http.StatusOK)
	b := newCatalogue(t, libraryHit, http.StatusOK)

	m, ok := newChain(t, a, b).Lookup(context.Background(), "9780134685991")

	require.True(t, ok)
	assert.Equal(t, "Brown Bear", m.Title)
	assert.Equal(t, "http://g/thumb", m.CoverURL)
	assert.Equal(t, "googlebooks", m.Source)
	assert.Len(t, a.calls(), 1)
	assert.Empty(t, b.calls(), "second provider must not be queried")
}

func TestChain_FallsBackToSecondProvider(t *testing.T) {
	a := newCatalogue(t, googleMiss, http.StatusOK)
	b := newCatalogue(t, libraryHit, http.StatusOK)

	m, ok := newChain(t, a, b).Lookup(context.Background(), "9780134685991")

	require.True(t, ok)
	assert.Equal(t, metadata.Match{ISBN: "9780134685991", Title: "Effective Java", CoverURL: "http://ol/m", Source: "openlibrary"}, m)
	assert.Len(t, a.calls(), 1)
	assert.Len(t, b.calls(), 1)
}

func TestChain_ProviderFailureIsAMiss(t *testing.T) {
	a := newCatalogue(t, "", http.StatusInternalServerError)
	b := newCatalogue(t, libraryHit, http.StatusOK)

	m, ok := newChain(t, a, b).Lookup(context.Background(), "9780134685991")

	require.True(t, ok)
	assert.Equal(t, "openlibrary", m.Source)
}

func TestChain_BothMiss(t *testing.T) {
	a := newCatalogue(t, googleMiss, http.StatusOK)
	b := newCatalogue(t, libraryMiss, http.StatusOK)

	m, ok := newChain(t, a, b).Lookup(context.Background(), "9780134685991")

	assert.False(t, ok)
	assert.Equal(t, metadata.Match{}, m)
}

func TestChain_EmptyIdentifierMakesNoCalls(t *testing.T) {
	a := newCatalogue(t, googleHit, http.StatusOK)
	b := newCatalogue(t, libraryHit, http.StatusOK)
	chain := newChain(t, a, b)

	for _, id := range []string{"", "   ", "- -"} {
		_, ok := chain.Lookup(context.Background(), id)
		assert.False(t, ok)
	}
	assert.Empty(t, a.calls())
	assert.Empty(t, b.calls())
}

func TestChain_NormalizedIdentifiersQueryIdentically(t *testing.T) {
	a := newCatalogue(t, googleMiss, http.StatusOK)
	b := newCatalogue(t, libraryMiss, http.StatusOK)
	chain := newChain(t, a, b)

	chain.Lookup(context.Background(), " 978-0-13-468599-1 ")
	chain.Lookup(context.Background(), "9780134685991")

	// Each miss is retried once with the ISBN-10 form.
	gotA, gotB := a.calls(), b.calls()
	require.Len(t, gotA, 4)
	require.Len(t, gotB, 4)
	assert.Equal(t, gotA[:2], gotA[2:])
	assert.Equal(t, gotB[:2], gotB[2:])
}

type stubProvider struct {
	name  string
	match *metadata.Match
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) LookupISBN(_ context.Context, _ string) (*metadata.Match, error) {
	s.calls++
	return s.match, s.err
}

func TestChain_FillsSourceAndISBN(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("dial tcp: timeout")}
	second := &stubProvider{name: "second", match: &metadata.Match{Title: "Goodnight Moon"}}

	m, ok := metadata.NewChain(nil, first, second).Lookup(context.Background(), "0-06-443017-0")

	require.True(t, ok)
	assert.Equal(t, "second", m.Source)
	assert.Equal(t, "0064430170", m.ISBN)
	assert.Equal(t, 1, first.calls)
}

// keyedProvider knows exactly one identifier.
type keyedProvider struct {
	name  string
	known string
	asked []string
}

func (k *keyedProvider) Name() string { return k.name }

func (k *keyedProvider) LookupISBN(_ context.Context, id string) (*metadata.Match, error) {
	k.asked = append(k.asked, id)
	if id != k.known {
		return nil, nil
	}
	return &metadata.Match{Title: "Brown Bear, Brown Bear"}, nil
}

func TestChain_RetriesOtherISBNForm(t *testing.T) {
	tests := []struct {
		name     string
		typed    string
		known    string
		wantISBN string
	}{
		{name: "isbn10 typed, catalogue keyed by isbn13", typed: "0-8050-4790-5", known: "9780805047905", wantISBN: "0805047905"},
		{name: "isbn13 typed, catalogue keyed by isbn10", typed: "9780805047905", known: "0805047905", wantISBN: "9780805047905"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &keyedProvider{name: "keyed", known: tt.known}

			m, ok := metadata.NewChain(nil, p).Lookup(context.Background(), tt.typed)

			require.True(t, ok)
			assert.Equal(t, "Brown Bear, Brown Bear", m.Title)
			assert.Equal(t, tt.wantISBN, m.ISBN)
			assert.Equal(t, []string{isbnClean(tt.typed), tt.known}, p.asked)
		})
	}
}

func TestChain_NoRetryForNonISBN(t *testing.T) {
	p := &keyedProvider{name: "keyed", known: "nothing"}

	_, ok := metadata.NewChain(nil, p).Lookup(context.Background(), "https://example.com/qr")

	assert.False(t, ok)
	assert.Len(t, p.asked, 1)
}

func isbnClean(s string) string { return strings.ReplaceAll(s, "-", "") }
