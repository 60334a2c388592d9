package backup

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json/v2"
	"errors"
	"fmt"
	"io"
)

// ErrFileNotFound reports an archive without a required entry.
var ErrFileNotFound = errors.New("backup: file not found in archive")

// writeJSONL writes items as one JSON document per line into a new zip entry.
func writeJSONL[T any](zw *zip.Writer, name string, items []T) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := json.MarshalWrite(w, item); err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

// readJSONL decodes every line of a zip entry. Blank lines are skipped;
// a malformed line fails the whole read.
func readJSONL[T any](zr *zip.Reader, name string) ([]T, error) {
	rc, err := openEntry(zr, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []T
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 4<<20)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(b, &item); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}
		out = append(out, item)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return out, nil
}

func readManifest(zr *zip.Reader) (*Manifest, error) {
	rc, err := openEntry(zr, manifestFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var m Manifest
	if err := json.UnmarshalRead(rc, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

func openEntry(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
}
