// Package main prints what the configured store holds.
//
// It takes the same flags and environment as the server:
//
//	go run ./cmd/dbinspect -store sqlite -data-path ~/ReadNest
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/di"
	"github.com/readnest/readnest/internal/di/providers"
	"github.com/readnest/readnest/internal/service"
)

func main() {
	injector := di.NewContainer()
	defer func() { _ = injector.Shutdown() }()

	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}

	snap, err := storeHandle.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load store: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Store Inspection ===")
	fmt.Println()

	for i, book := range snap.Books {
		if i == 10 {
			fmt.Printf("... and %d more books\n\n", len(snap.Books)-i)
			break
		}
		fmt.Printf("Book: %s\n", book.Title)
		fmt.Printf("  ID: %s  ISBN: %s  Level: %d  Status: %s\n", book.ID, book.ISBN, book.Level, book.Status)
		for _, reader := range snap.Readers {
			p := book.Readers[reader]
			if p == nil {
				continue
			}
			fmt.Printf("    %-10s reads=%d reaction=%s\n", reader, p.Reads, p.Reaction)
		}
		fmt.Println()
	}

	sum := service.Summarize(snap.Logs, snap.Readers, time.Now())

	fmt.Println("=== Summary ===")
	fmt.Printf("Readers: %v\n", snap.Readers)
	fmt.Printf("Books: %d\n", len(snap.Books))
	fmt.Printf("Notes: %d\n", len(snap.Notes))
	fmt.Printf("Reads logged: %d (today %d)\n", sum.Total, sum.Today)
	for _, lc := range sum.ByLevel {
		fmt.Printf("  level %d: %d\n", lc.Level, lc.Reads)
	}
	for _, rc := range sum.ByReader {
		fmt.Printf("  %s: %d\n", rc.Reader, rc.Reads)
	}
}
