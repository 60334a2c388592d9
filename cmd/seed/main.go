// Package main seeds the configured store with a demo shelf and a month of
// back-dated reads, for trying out the dashboard.
//
// It takes the same flags and environment as the server:
//
//	go run ./cmd/seed -data-path /tmp/readnest-demo -readers Minji,Jiho
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/di"
	"github.com/readnest/readnest/internal/di/providers"
	"github.com/readnest/readnest/internal/domain"
	"github.com/readnest/readnest/internal/service"
)

var demoShelf = []service.BookInput{
	{Title: "Brown Bear, Brown Bear, What Do You See?", ISBN: "9780805047905", Level: 1},
	{Title: "The Very Hungry Caterpillar", ISBN: "9780399226908", Level: 1},
	{Title: "Goodnight Moon", ISBN: "9780064430173", Level: 1},
	{Title: "Where the Wild Things Are", ISBN: "9780060254926", Level: 2},
	{Title: "Frog and Toad Are Friends", ISBN: "9780064440202", Level: 2},
	{Title: "Green Eggs and Ham", ISBN: "9780394800165", Level: 2},
	{Title: "Magic Tree House: Dinosaurs Before Dark", ISBN: "9780679824114", Level: 3},
	{Title: "Charlotte's Web", ISBN: "9780064400558", Level: 4},
}

const seedDays = 30

func main() {
	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	library := do.MustInvoke[*service.LibraryService](injector)
	notes := do.MustInvoke[*service.NoteService](injector)

	ctx := context.Background()

	readers, err := library.Readers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read household: %v\n", err)
		os.Exit(1)
	}

	books := make([]*domain.Book, 0, len(demoShelf))
	for _, in := range demoShelf {
		book, err := library.RegisterBook(ctx, in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to register %q: %v\n", in.Title, err)
			os.Exit(1)
		}
		books = append(books, book)
	}
	fmt.Printf("Registered %d books for %v\n", len(books), readers)

	// Reads are dated in the past, so they go through the store rather than
	// RecordRead, which always stamps today.
	now := time.Now()
	logged := 0
	for day := seedDays - 1; day >= 0; day-- {
		at := now.AddDate(0, 0, -day)
		for _, reader := range readers {
			for range rand.IntN(4) {
				book := books[rand.IntN(len(books))]
				book.RecordRead(reader)
				if err := storeHandle.AppendLog(ctx, domain.NewReadingLog(book, reader, at)); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to append log: %v\n", err)
					os.Exit(1)
				}
				logged++
			}
		}
	}

	snap, err := storeHandle.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to reload store: %v\n", err)
		os.Exit(1)
	}
	for _, seeded := range books {
		if stored := snap.Book(seeded.ID); stored != nil {
			stored.Readers = seeded.Readers
			stored.Status = seeded.Status
		}
	}
	if err := storeHandle.SaveBooks(ctx, snap.Books); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save read counts: %v\n", err)
		os.Exit(1)
	}

	if _, err := notes.CreateNote(ctx, service.NoteInput{Body: "Library books are due back on Thursday", Pinned: true}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create note: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Logged %d reads over %d days\n", logged, seedDays)
}
