package domain

import (
	"cmp"
	"slices"
	"time"
)

// Note is a free-form entry on the family board.
type Note struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	Favorite  bool      `json:"favorite"`
}

// SortNotes orders notes pinned first, then newest first.
func SortNotes(notes []*Note) {
	slices.SortStableFunc(notes, func(a, b *Note) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
}
