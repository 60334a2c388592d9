// Package metadata looks up book details by ISBN across public catalogues.
//
// Providers are tried in a fixed order and the first one that knows the
// book wins. A provider failing is the same as a provider not knowing.
package metadata

import (
	"context"
	"log/slog"

	"github.com/readnest/readnest/internal/isbn"
)

// Match is what a catalogue knows about a book.
type Match struct {
	ISBN     string `json:"isbn"`
	Title    string `json:"title"`
	CoverURL string `json:"cover_url,omitempty"`
	Source   string `json:"source"`
}

// Provider is a single catalogue.
// LookupISBN returns (nil, nil) when the catalogue has no usable entry.
type Provider interface {
	Name() string
	LookupISBN(ctx context.Context, isbn string) (*Match, error)
}

// Chain queries providers in order.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a chain trying providers in the given order.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Chain{providers: providers, logger: logger}
}

// Lookup cleans identifier and returns the first provider's match.
// An empty identifier makes no network calls. When every provider misses
// a well-formed ISBN, the chain asks once more using its other form
// (ISBN-10 for ISBN-13 and the reverse). The match carries the cleaned
// identifier as given.
func (c *Chain) Lookup(ctx context.Context, identifier string) (Match, bool) {
	cleaned := isbn.Clean(identifier)
	if cleaned == "" {
		return Match{}, false
	}

	m, ok := c.query(ctx, cleaned)
	if !ok {
		alt := otherForm(cleaned)
		if alt == "" {
			return Match{}, false
		}
		c.logger.Debug("retrying lookup with other isbn form", "isbn", cleaned, "alternate", alt)
		if m, ok = c.query(ctx, alt); !ok {
			return Match{}, false
		}
	}

	m.ISBN = cleaned
	return m, true
}

func (c *Chain) query(ctx context.Context, id string) (Match, bool) {
	for _, p := range c.providers {
		m, err := p.LookupISBN(ctx, id)
		if err != nil {
			c.logger.Warn("metadata provider failed",
				"provider", p.Name(),
				"isbn", id,
				"error", err,
			)
			continue
		}
		if m == nil {
			c.logger.Debug("metadata provider has no entry", "provider", p.Name(), "isbn", id)
			continue
		}

		if m.Source == "" {
			m.Source = p.Name()
		}
		return *m, true
	}
	return Match{}, false
}

// otherForm returns the ISBN-13 of a valid ISBN-10 and the ISBN-10 of a
// valid 978 ISBN-13. Anything else has no other form.
func otherForm(s string) string {
	if !isbn.Valid(s) {
		return ""
	}
	if len(s) == 10 {
		return isbn.To13(s)
	}
	return isbn.To10(s)
}
