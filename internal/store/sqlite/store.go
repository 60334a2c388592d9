// Package sqlite keeps collections in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/readnest/readnest/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Backend stores each collection as a header row plus JSON-encoded rows.
type Backend struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the database at path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Backend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Read returns the collection's header and rows in insertion order.
func (b *Backend) Read(ctx context.Context, c store.Collection) (*store.Table, error) {
	header, err := readHeader(ctx, b.db, c)
	if err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx, `SELECT cells FROM sheet_rows WHERE sheet = ? ORDER BY position`, string(c))
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	t := &store.Table{Header: header}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		var r store.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("%w: %s row: %w", store.ErrCorruptTable, c, err)
		}
		t.Rows = append(t.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}

// Write replaces the collection in one transaction.
func (b *Backend) Write(ctx context.Context, c store.Collection, t *store.Table) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, string(c)); err != nil {
			return fmt.Errorf("clear rows: %w", err)
		}
		if err := writeHeader(ctx, tx, c, t.Header); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sheet_rows (sheet, position, cells) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range t.Rows {
			cells, err := encodeRow(row, t.Header)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, string(c), i, cells); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		return nil
	})
}

// Append inserts one row after the last, extending the header if needed.
func (b *Backend) Append(ctx context.Context, c store.Collection, header []string, row store.Record) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		stored, err := readHeader(ctx, tx, c)
		if err != nil {
			return err
		}
		merged, changed := store.MergeHeader(stored, header)
		if changed {
			if len(stored) > 0 {
				b.logger.Info("migrating sqlite header", "collection", c, "from", len(stored), "to", len(merged))
			}
			if err := writeHeader(ctx, tx, c, merged); err != nil {
				return err
			}
		}

		cells, err := encodeRow(row, merged)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sheet_rows (sheet, position, cells)
			 VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM sheet_rows WHERE sheet = ?), ?)`,
			string(c), string(c), cells)
		if err != nil {
			return fmt.Errorf("append row: %w", err)
		}
		return nil
	})
}

func (b *Backend) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readHeader(ctx context.Context, q queryer, c store.Collection) ([]string, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT header FROM sheet_headers WHERE sheet = ?`, string(c)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query header: %w", err)
	}
	var header []string
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return nil, fmt.Errorf("%w: %s header: %w", store.ErrCorruptTable, c, err)
	}
	return header, nil
}

func writeHeader(ctx context.Context, tx *sql.Tx, c store.Collection, header []string) error {
	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sheet_headers (sheet, header, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(sheet) DO UPDATE SET header = excluded.header, updated_at = excluded.updated_at`,
		string(c), string(data), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// encodeRow keeps only header columns so stray keys never reach disk.
func encodeRow(row store.Record, header []string) (string, error) {
	cells := make(store.Record, len(header))
	for _, name := range header {
		if v, ok := row[name]; ok {
			cells[name] = v
		}
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("encode row: %w", err)
	}
	return string(data), nil
}
