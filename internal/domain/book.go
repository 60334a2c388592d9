package domain

import "strings"

// Status is where a book sits on the household shelf.
type Status string

// Book statuses.
const (
	StatusUnread   Status = "unread"
	StatusReading  Status = "reading"
	StatusFinished Status = "finished"
)

// Statuses lists every recognised status in display order.
var Statuses = []Status{StatusUnread, StatusReading, StatusFinished}

// legacyStatuses maps labels written by older spreadsheets.
var legacyStatuses = map[string]Status{
	"읽지 않음": StatusUnread,
	"읽는 중":  StatusReading,
	"완독":    StatusFinished,
}

// ParseStatus returns the status named by s. Unknown values become StatusUnread.
func ParseStatus(s string) Status {
	s = strings.TrimSpace(s)
	if st, ok := legacyStatuses[s]; ok {
		return st
	}
	st := Status(strings.ToLower(s))
	if st.Valid() {
		return st
	}
	return StatusUnread
}

// Valid reports whether s is a recognised status.
func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusReading, StatusFinished:
		return true
	}
	return false
}

// Reaction is a reader's closed-set response to a book.
type Reaction string

// Reactions. ReactionUnset is the default.
const (
	ReactionUnset   Reaction = "unset"
	ReactionLove    Reaction = "love"
	ReactionLike    Reaction = "like"
	ReactionSoSo    Reaction = "soso"
	ReactionDislike Reaction = "dislike"
)

// Reactions lists every recognised reaction in display order.
var Reactions = []Reaction{ReactionUnset, ReactionLove, ReactionLike, ReactionSoSo, ReactionDislike}

// ParseReaction returns the reaction named by s.
// Anything outside the enumeration becomes ReactionUnset; no guessing.
func ParseReaction(s string) Reaction {
	r := Reaction(strings.ToLower(strings.TrimSpace(s)))
	if r.Valid() {
		return r
	}
	return ReactionUnset
}

// Valid reports whether r is a recognised reaction.
func (r Reaction) Valid() bool {
	switch r {
	case ReactionUnset, ReactionLove, ReactionLike, ReactionSoSo, ReactionDislike:
		return true
	}
	return false
}

// Level bounds for new and edited books.
const (
	MinLevel = 1
	MaxLevel = 5
)

// ReaderProgress is one reader's history with a book.
type ReaderProgress struct {
	Reads    int      `json:"reads"`
	Reaction Reaction `json:"reaction"`
	Note     string   `json:"note"`
}

// Book is a title on the household shelf.
// ID is assigned once and never changes; read counts only grow.
type Book struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ISBN     string `json:"isbn"`
	Level    int    `json:"level"`
	Status   Status `json:"status"`
	CoverURL string `json:"cover_url,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`

	// Readers is keyed by reader name.
	Readers map[string]*ReaderProgress `json:"readers"`
}

// NewBook creates an unread book with empty progress for each reader.
func NewBook(id, title string, readers []string) *Book {
	b := &Book{
		ID:      id,
		Title:   title,
		Status:  StatusUnread,
		Readers: make(map[string]*ReaderProgress, len(readers)),
	}
	for _, r := range readers {
		b.Readers[r] = &ReaderProgress{Reaction: ReactionUnset}
	}
	return b
}

// Progress returns the reader's progress, creating it if needed.
func (b *Book) Progress(reader string) *ReaderProgress {
	if b.Readers == nil {
		b.Readers = make(map[string]*ReaderProgress)
	}
	p, ok := b.Readers[reader]
	if !ok {
		p = &ReaderProgress{Reaction: ReactionUnset}
		b.Readers[reader] = p
	}
	return p
}

// RecordRead counts one more read for reader and moves an unread book to reading.
// Returns the reader's new count.
func (b *Book) RecordRead(reader string) int {
	p := b.Progress(reader)
	p.Reads++
	if b.Status == StatusUnread || b.Status == "" {
		b.Status = StatusReading
	}
	return p.Reads
}

// TotalReads sums reads across readers.
func (b *Book) TotalReads() int {
	total := 0
	for _, p := range b.Readers {
		total += p.Reads
	}
	return total
}
