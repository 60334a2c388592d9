package domain

import "time"

// DateLayout is how log dates are stored.
const DateLayout = "2006-01-02"

// ReadingLog is one read of one book by one reader.
// Entries are append-only; Title and Level are copies taken at read time.
type ReadingLog struct {
	Date   string `json:"date"`
	BookID string `json:"book_id"`
	Title  string `json:"title"`
	Level  int    `json:"level"`
	Reader string `json:"reader,omitempty"`
}

// NewReadingLog snapshots book for a read on day at.
func NewReadingLog(book *Book, reader string, at time.Time) ReadingLog {
	return ReadingLog{
		Date:   at.Format(DateLayout),
		BookID: book.ID,
		Title:  book.Title,
		Level:  book.Level,
		Reader: reader,
	}
}
