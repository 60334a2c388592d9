// Package sheets keeps each collection on its own worksheet of a Google
// Sheets spreadsheet. Row 1 is the header.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/readnest/readnest/internal/store"
)

// Backend stores collections as worksheets named after them.
type Backend struct {
	values Values
	logger *slog.Logger

	mu    sync.Mutex
	known map[string]bool // worksheets known to exist
}

// New creates a backend over values.
func New(values Values, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{values: values, logger: logger, known: make(map[string]bool)}
}

// Read fetches the whole worksheet, creating it if it does not exist.
func (b *Backend) Read(ctx context.Context, c store.Collection) (*store.Table, error) {
	if err := b.ensureSheet(ctx, c); err != nil {
		return nil, err
	}

	grid, err := b.values.Get(ctx, quote(c))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", c, err)
	}
	if len(grid) == 0 {
		return &store.Table{}, nil
	}

	header := toStrings(grid[0])
	t := &store.Table{Header: header, Rows: make([]store.Record, 0, len(grid)-1)}
	for _, line := range grid[1:] {
		cells := toStrings(line)
		if slices.IndexFunc(cells, func(s string) bool { return s != "" }) < 0 {
			continue
		}
		t.Rows = append(t.Rows, store.RecordFromCells(header, cells))
	}
	return t, nil
}

// Write clears the worksheet and writes the table from A1.
func (b *Backend) Write(ctx context.Context, c store.Collection, t *store.Table) error {
	if err := b.ensureSheet(ctx, c); err != nil {
		return err
	}
	if err := b.values.Clear(ctx, quote(c)); err != nil {
		return fmt.Errorf("clear %s: %w", c, err)
	}

	grid := make([][]any, 0, len(t.Rows)+1)
	grid = append(grid, toCells(t.Header))
	for _, row := range t.Rows {
		grid = append(grid, toCells(row.Cells(t.Header)))
	}
	if err := b.values.Update(ctx, quote(c)+"!A1", grid); err != nil {
		return fmt.Errorf("update %s: %w", c, err)
	}

	b.logger.Debug("worksheet written", "collection", c, "rows", len(t.Rows))
	return nil
}

// Append inserts one row below the table. A header missing columns is
// rewritten with the whole table first.
func (b *Backend) Append(ctx context.Context, c store.Collection, header []string, row store.Record) error {
	if err := b.ensureSheet(ctx, c); err != nil {
		return err
	}

	top, err := b.values.Get(ctx, quote(c)+"!1:1")
	if err != nil {
		return fmt.Errorf("get %s header: %w", c, err)
	}
	var stored []string
	if len(top) > 0 {
		stored = toStrings(top[0])
	}

	merged, changed := store.MergeHeader(stored, header)
	if changed {
		t, err := b.Read(ctx, c)
		if err != nil {
			return err
		}
		if len(stored) > 0 {
			b.logger.Info("migrating worksheet header", "collection", c, "from", len(stored), "to", len(merged))
		}
		t.Header = merged
		t.Rows = append(t.Rows, row)
		return b.Write(ctx, c, t)
	}

	if err := b.values.Append(ctx, quote(c)+"!A1", [][]any{toCells(row.Cells(stored))}); err != nil {
		return fmt.Errorf("append %s: %w", c, err)
	}
	return nil
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }

func (b *Backend) ensureSheet(ctx context.Context, c store.Collection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	title := string(c)
	if b.known[title] {
		return nil
	}

	titles, err := b.values.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("list worksheets: %w", err)
	}
	for _, t := range titles {
		b.known[t] = true
	}
	if b.known[title] {
		return nil
	}

	if err := b.values.AddSheet(ctx, title); err != nil {
		return fmt.Errorf("add worksheet %s: %w", title, err)
	}
	b.logger.Info("created worksheet", "title", title)
	b.known[title] = true
	return nil
}

// quote wraps a worksheet title for A1 notation.
func quote(c store.Collection) string {
	return "'" + strings.ReplaceAll(string(c), "'", "''") + "'"
}

func toStrings(line []any) []string {
	out := make([]string, len(line))
	for i, v := range line {
		if v != nil {
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
