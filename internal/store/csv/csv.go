// Package csv stores each collection as a UTF-8 CSV file in one directory.
package csv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/readnest/readnest/internal/store"
)

// utf8BOM is written by spreadsheet exports and stripped on read.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Backend reads and writes <dir>/<collection>.csv.
// Writes go to a temp file that is renamed over the old one.
type Backend struct {
	dir    string
	logger *slog.Logger

	mu sync.Mutex
}

// Open creates dir if needed and returns a backend over it.
func Open(dir string, logger *slog.Logger) (*Backend, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{dir: dir, logger: logger}, nil
}

// Path returns the file backing c.
func (b *Backend) Path(c store.Collection) string {
	return filepath.Join(b.dir, string(c)+".csv")
}

// Read loads the whole file. A missing file is an empty table.
func (b *Backend) Read(_ context.Context, c store.Collection) (*store.Table, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.read(c)
}

// Write replaces the file atomically.
func (b *Backend) Write(_ context.Context, c store.Collection, t *store.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.write(c, t)
}

// Append adds one line. If the file's header lacks columns the whole file
// is rewritten under the extended header first.
func (b *Backend) Append(_ context.Context, c store.Collection, header []string, row store.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	stored, err := b.readHeader(c)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(stored) == 0) {
		return b.write(c, &store.Table{Header: header, Rows: []store.Record{row}})
	}
	if err != nil {
		return err
	}

	merged, changed := store.MergeHeader(stored, header)
	if changed {
		t, err := b.read(c)
		if err != nil {
			return err
		}
		b.logger.Info("migrating csv header", "collection", c, "from", len(stored), "to", len(merged))
		t.Header = merged
		t.Rows = append(t.Rows, row)
		return b.write(c, t)
	}

	f, err := os.OpenFile(b.Path(c), os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", c, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(row.Cells(stored)); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", c, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", c, err)
	}
	return f.Close()
}

// Close is a no-op; files are closed after every operation.
func (b *Backend) Close() error { return nil }

func (b *Backend) read(c store.Collection) (*store.Table, error) {
	data, err := os.ReadFile(b.Path(c))
	if errors.Is(err, fs.ErrNotExist) {
		return &store.Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}

	r := newReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", store.ErrCorruptTable, c, err)
	}
	if len(records) == 0 {
		return &store.Table{}, nil
	}

	t := &store.Table{Header: records[0], Rows: make([]store.Record, 0, len(records)-1)}
	for _, cells := range records[1:] {
		if isBlank(cells) {
			continue
		}
		t.Rows = append(t.Rows, store.RecordFromCells(t.Header, cells))
	}
	return t, nil
}

func (b *Backend) readHeader(c store.Collection) ([]string, error) {
	f, err := os.Open(b.Path(c))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := newReader(f).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s header: %w", store.ErrCorruptTable, c, err)
	}
	return header, nil
}

func (b *Backend) write(c store.Collection, t *store.Table) error {
	tmp, err := os.CreateTemp(b.dir, "."+string(c)+"-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	bw := bufio.NewWriter(tmp)
	w := csv.NewWriter(bw)
	if err := w.Write(t.Header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row.Cells(t.Header)); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, b.Path(c)); err != nil {
		return fmt.Errorf("replace %s: %w", c, err)
	}

	b.logger.Debug("csv written", "collection", c, "rows", len(t.Rows))
	return nil
}

// newReader allows ragged rows and strips a leading BOM.
func newReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	return cr
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
