package backup

import "time"

// FormatVersion is the backup format version. Increment on breaking changes.
const FormatVersion = "1"

// Archive entry names.
const (
	manifestFile = "manifest.json"
	booksFile    = "books.jsonl"
	logsFile     = "reading_log.jsonl"
	notesFile    = "notes.jsonl"
)

// Manifest describes backup contents.
type Manifest struct {
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Backend   string    `json:"backend,omitempty"`
	Readers   []string  `json:"readers"`
	Counts    Counts    `json:"counts"`
}

// Counts tracks how many entities an archive holds.
type Counts struct {
	Books      int `json:"books"`
	ReadingLog int `json:"reading_log"`
	Notes      int `json:"notes"`
}
