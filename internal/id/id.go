// Package id mints and recognises record identifiers.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for the record collections that carry identifiers.
const (
	PrefixBook = "book"
	PrefixNote = "note"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "book-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// IsLegacy reports whether id is a bare UUID, the format written by the
// spreadsheet-era version of the library before prefixed IDs.
// Legacy IDs are kept as-is; they are never rewritten.
func IsLegacy(id string) bool {
	if strings.Contains(id, "-") && len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
