package store

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/isbn"
)

// Kind is how a column's cells are coerced.
type Kind int

// Column kinds.
const (
	KindText Kind = iota
	KindInt       // non-negative integer, malformed cells become 0
	KindBool      // "true" or "false", malformed cells take the default
)

// Column declares one column of a collection.
type Column struct {
	Name    string
	Aliases []string // older header names, checked in order after Name
	Kind    Kind
	Default string

	// Parse canonicalises text cells (enumerations, identifiers).
	Parse func(string) string
}

// Reader column prefixes.
const (
	readsPrefix    = "reads_"
	reactionPrefix = "reaction_"
	notePrefix     = "note_"
)

// Legacy single-reader count column.
const legacyReadsColumn = "읽은횟수"

// BookColumns declares the books table for the given readers.
func BookColumns(readers []string) []Column {
	cols := []Column{
		{Name: "id", Aliases: []string{"ID"}},
		{Name: "title", Aliases: []string{"제목"}},
		{Name: "isbn", Aliases: []string{"ISBN"}, Parse: isbn.Clean},
		{Name: "level", Aliases: []string{"레벨"}, Kind: KindInt, Default: "0"},
		{Name: "status", Aliases: []string{"상태"}, Default: string(domain.StatusUnread), Parse: func(s string) string {
			return string(domain.ParseStatus(s))
		}},
		{Name: "cover_url", Aliases: []string{"표지URL"}},
		{Name: "audio_url"},
	}
	for i, r := range readers {
		reads := Column{Name: readsPrefix + r, Kind: KindInt, Default: "0"}
		if i == 0 {
			reads.Aliases = []string{legacyReadsColumn}
		}
		cols = append(cols,
			reads,
			Column{Name: reactionPrefix + r, Default: string(domain.ReactionUnset), Parse: func(s string) string {
				return string(domain.ParseReaction(s))
			}},
			Column{Name: notePrefix + r},
		)
	}
	return cols
}

// LogColumns declares the reading log table.
func LogColumns() []Column {
	return []Column{
		{Name: "date", Aliases: []string{"날짜"}},
		{Name: "book_id", Aliases: []string{"책ID"}},
		{Name: "title", Aliases: []string{"제목"}},
		{Name: "level", Aliases: []string{"레벨"}, Kind: KindInt, Default: "0"},
		{Name: "reader"},
	}
}

// NoteColumns declares the notes table.
func NoteColumns() []Column {
	return []Column{
		{Name: "id"},
		{Name: "created_at"},
		{Name: "body"},
		{Name: "pinned", Kind: KindBool, Default: "false"},
		{Name: "favorite", Kind: KindBool, Default: "false"},
	}
}

// ColumnNames returns the header for columns.
func ColumnNames(columns []Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// Normalize maps a raw row onto columns: missing cells take the column
// default, numbers and booleans are coerced and Parse hooks applied.
// Cells for undeclared columns are dropped. raw is not modified.
func Normalize(raw Record, columns []Column) Record {
	out := make(Record, len(columns))
	for _, col := range columns {
		v, ok := col.lookup(raw)
		if !ok {
			out[col.Name] = col.Default
			continue
		}
		out[col.Name] = col.coerce(v)
	}
	return out
}

// lookup prefers a non-empty cell, checking Name then Aliases. A header
// migration leaves legacy rows with empty cells under the new names, so an
// empty canonical cell falls through to the aliases.
func (c Column) lookup(raw Record) (string, bool) {
	v, found := raw[c.Name]
	if found && v != "" {
		return v, true
	}
	for _, alias := range c.Aliases {
		if av, ok := raw[alias]; ok {
			if av != "" {
				return av, true
			}
			found = true
		}
	}
	return "", found
}

func (c Column) coerce(v string) string {
	switch c.Kind {
	case KindInt:
		return strconv.Itoa(parseCount(v))
	case KindBool:
		b, ok := parseBool(v)
		if !ok {
			return c.Default
		}
		return strconv.FormatBool(b)
	default:
		if c.Parse != nil {
			return c.Parse(v)
		}
		return v
	}
}

// parseCount reads a non-negative integer. Spreadsheet exports sometimes
// write "2.0"; anything unreadable or negative is 0.
func parseCount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "t":
		return true, true
	case "false", "0", "no", "n", "f":
		return false, true
	}
	return false, false
}

// ReadersIn returns reader names found in per-reader column names, in
// order of first appearance.
func ReadersIn(names []string) []string {
	var readers []string
	for _, name := range names {
		for _, prefix := range []string{readsPrefix, reactionPrefix, notePrefix} {
			if r, ok := strings.CutPrefix(name, prefix); ok && r != "" && !slices.Contains(readers, r) {
				readers = append(readers, r)
			}
		}
	}
	return readers
}

// mergeReaders returns configured followed by any extra readers not already listed.
func mergeReaders(configured, extra []string) []string {
	out := slices.Clone(configured)
	for _, r := range extra {
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out
}
