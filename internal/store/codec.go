package store

import (
	"strconv"
	"time"

	"github.com/readnest/readnest/internal/domain"
)

// Formats accepted for note timestamps, newest first.
var noteTimeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", domain.DateLayout}

func bookFromRecord(r Record, readers []string) *domain.Book {
	level, _ := strconv.Atoi(r["level"])
	b := &domain.Book{
		ID:       r["id"],
		Title:    r["title"],
		ISBN:     r["isbn"],
		Level:    level,
		Status:   domain.ParseStatus(r["status"]),
		CoverURL: r["cover_url"],
		AudioURL: r["audio_url"],
		Readers:  make(map[string]*domain.ReaderProgress, len(readers)),
	}
	for _, name := range readers {
		reads, _ := strconv.Atoi(r[readsPrefix+name])
		b.Readers[name] = &domain.ReaderProgress{
			Reads:    reads,
			Reaction: domain.ParseReaction(r[reactionPrefix+name]),
			Note:     r[notePrefix+name],
		}
	}
	return b
}

func bookToRecord(b *domain.Book, readers []string) Record {
	r := Record{
		"id":        b.ID,
		"title":     b.Title,
		"isbn":      b.ISBN,
		"level":     strconv.Itoa(b.Level),
		"status":    string(b.Status),
		"cover_url": b.CoverURL,
		"audio_url": b.AudioURL,
	}
	for _, name := range readers {
		p, ok := b.Readers[name]
		if !ok {
			p = &domain.ReaderProgress{Reaction: domain.ReactionUnset}
		}
		r[readsPrefix+name] = strconv.Itoa(p.Reads)
		r[reactionPrefix+name] = string(p.Reaction)
		r[notePrefix+name] = p.Note
	}
	return r
}

func logFromRecord(r Record) domain.ReadingLog {
	level, _ := strconv.Atoi(r["level"])
	return domain.ReadingLog{
		Date:   r["date"],
		BookID: r["book_id"],
		Title:  r["title"],
		Level:  level,
		Reader: r["reader"],
	}
}

func logToRecord(e domain.ReadingLog) Record {
	return Record{
		"date":    e.Date,
		"book_id": e.BookID,
		"title":   e.Title,
		"level":   strconv.Itoa(e.Level),
		"reader":  e.Reader,
	}
}

func noteFromRecord(r Record) *domain.Note {
	return &domain.Note{
		ID:        r["id"],
		CreatedAt: parseNoteTime(r["created_at"]),
		Body:      r["body"],
		Pinned:    r["pinned"] == "true",
		Favorite:  r["favorite"] == "true",
	}
}

func noteToRecord(n *domain.Note) Record {
	created := ""
	if !n.CreatedAt.IsZero() {
		created = n.CreatedAt.Format(time.RFC3339)
	}
	return Record{
		"id":         n.ID,
		"created_at": created,
		"body":       n.Body,
		"pinned":     strconv.FormatBool(n.Pinned),
		"favorite":   strconv.FormatBool(n.Favorite),
	}
}

func parseNoteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range noteTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
