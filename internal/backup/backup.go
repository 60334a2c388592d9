// Package backup writes and restores zip archives of the household's books,
// reading log and notes, independent of the store backend. An archive made
// from the csv backend restores into sqlite or sheets unchanged.
package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json/v2"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/readnest/readnest/internal/domain"
	domainerrors "github.com/readnest/readnest/internal/errors"
	"github.com/readnest/readnest/internal/store"
)

const (
	filePrefix = "backup-"
	fileSuffix = ".readnest.zip"
)

// Result is the outcome of Create.
type Result struct {
	Name     string        `json:"name"`
	Size     int64         `json:"size"`
	Checksum string        `json:"checksum"`
	Counts   Counts        `json:"counts"`
	Duration time.Duration `json:"duration"`
}

// Info describes one archive in the backup directory.
type Info struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult is the outcome of Restore.
type RestoreResult struct {
	Manifest Manifest      `json:"manifest"`
	Duration time.Duration `json:"duration"`
}

// Service creates, lists and restores backups in one directory.
type Service struct {
	store   *store.Store
	dir     string
	backend string
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a backup service writing archives to dir.
// backend is recorded in each manifest for reference only.
func NewService(st *store.Store, dir, backend string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: st, dir: dir, backend: backend, logger: logger, now: time.Now}
}

// Create writes a new archive of the current store contents.
func (s *Service) Create(ctx context.Context) (*Result, error) {
	start := s.now()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to load library")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create backup directory")
	}

	name := filePrefix + start.Format("2006-01-02-150405") + fileSuffix
	path := filepath.Join(s.dir, name)

	// Write to a temp file and rename on success.
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create backup file")
	}
	defer os.Remove(tmp)
	defer f.Close()

	hash := sha256.New()
	manifest, err := s.write(io.MultiWriter(f, hash), snap, start)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to write backup")
	}

	if err := f.Sync(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to write backup")
	}
	info, err := f.Stat()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to write backup")
	}
	if err := f.Close(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to write backup")
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to finalize backup")
	}

	res := &Result{
		Name:     name,
		Size:     info.Size(),
		Checksum: hex.EncodeToString(hash.Sum(nil)),
		Counts:   manifest.Counts,
		Duration: time.Since(start),
	}

	s.logger.Info("backup created",
		"name", res.Name,
		"size", res.Size,
		"books", res.Counts.Books,
		"reads", res.Counts.ReadingLog,
		"notes", res.Counts.Notes,
	)
	return res, nil
}

func (s *Service) write(w io.Writer, snap *store.Snapshot, at time.Time) (*Manifest, error) {
	zw := zip.NewWriter(w)

	manifest := &Manifest{
		Version:   FormatVersion,
		CreatedAt: at,
		Backend:   s.backend,
		Readers:   snap.Readers,
		Counts: Counts{
			Books:      len(snap.Books),
			ReadingLog: len(snap.Logs),
			Notes:      len(snap.Notes),
		},
	}

	if err := writeJSONL(zw, booksFile, snap.Books); err != nil {
		return nil, err
	}
	if err := writeJSONL(zw, logsFile, snap.Logs); err != nil {
		return nil, err
	}
	if err := writeJSONL(zw, notesFile, snap.Notes); err != nil {
		return nil, err
	}

	mw, err := zw.Create(manifestFile)
	if err != nil {
		return nil, err
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return nil, err
	}

	return manifest, zw.Close()
}

// List returns the archives in the backup directory, newest first.
// A missing directory lists as empty.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to list backups")
	}

	out := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !validName(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{Name: e.Name(), Size: fi.Size(), CreatedAt: fi.ModTime()})
	}

	slices.SortFunc(out, func(a, b Info) int {
		return strings.Compare(b.Name, a.Name)
	})
	return out, nil
}

// Restore replaces the store contents with the named archive.
func (s *Service) Restore(ctx context.Context, name string) (*RestoreResult, error) {
	if !validName(name) {
		return nil, domainerrors.Validationf("invalid backup name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, domainerrors.NotFoundf("backup %s not found", name)
	}
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to read backup")
	}

	return s.RestoreArchive(ctx, data)
}

// RestoreArchive replaces the store contents with the archive in data.
// Nothing is written unless the whole archive decodes.
func (s *Service) RestoreArchive(ctx context.Context, data []byte) (*RestoreResult, error) {
	start := s.now()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domainerrors.Validation("not a backup archive").WithCause(err)
	}

	manifest, err := readManifest(zr)
	if err != nil {
		return nil, domainerrors.Validation("backup manifest is missing or unreadable").WithCause(err)
	}
	if manifest.Version != FormatVersion {
		return nil, domainerrors.Validationf("unsupported backup version %q", manifest.Version)
	}

	books, err := readJSONL[*domain.Book](zr, booksFile)
	if err != nil {
		return nil, domainerrors.Validation("backup books are unreadable").WithCause(err)
	}
	logs, err := readJSONL[domain.ReadingLog](zr, logsFile)
	if err != nil {
		return nil, domainerrors.Validation("backup reading log is unreadable").WithCause(err)
	}
	notes, err := readJSONL[*domain.Note](zr, notesFile)
	if err != nil {
		return nil, domainerrors.Validation("backup notes are unreadable").WithCause(err)
	}

	if err := s.store.SaveBooks(ctx, books); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to restore books")
	}
	if err := s.store.SaveLogs(ctx, logs); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to restore reading log")
	}
	if err := s.store.SaveNotes(ctx, notes); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to restore notes")
	}

	s.logger.Info("backup restored",
		"created_at", manifest.CreatedAt,
		"books", len(books),
		"reads", len(logs),
		"notes", len(notes),
	)

	return &RestoreResult{Manifest: *manifest, Duration: time.Since(start)}, nil
}

func validName(name string) bool {
	return filepath.Base(name) == name &&
		strings.HasPrefix(name, filePrefix) &&
		strings.HasSuffix(name, fileSuffix)
}

