// Package main decodes an ISBN barcode from a photo and looks the book up,
// the same way the intake endpoint does.
//
// Usage:
//
//	go run ./cmd/scan photo.jpg
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/readnest/readnest/internal/barcode"
	"github.com/readnest/readnest/internal/logger"
	"github.com/readnest/readnest/internal/metadata"
	"github.com/readnest/readnest/internal/metadata/googlebooks"
	"github.com/readnest/readnest/internal/metadata/openlibrary"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: scan <photo>")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(os.Getenv("LOG_LEVEL")),
		Environment: "development",
	})

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal("open photo", "error", err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	scanner := barcode.NewScanner(nil, nil, log.Component("barcode"))

	start := time.Now()
	res, ok := scanner.Scan(ctx, f)
	if !ok {
		fmt.Println("No barcode found")
		os.Exit(2)
	}

	fmt.Printf("=== Barcode ===\n")
	fmt.Printf("ISBN:    %s\n", res.ISBN)
	fmt.Printf("Raw:     %s\n", res.Raw)
	fmt.Printf("Format:  %s\n", res.Format)
	fmt.Printf("Variant: %s\n", res.Variant)
	fmt.Printf("Took:    %s\n", time.Since(start))

	google := googlebooks.New(googlebooks.Config{APIKey: os.Getenv("GOOGLE_BOOKS_API_KEY")}, log.Component("googlebooks"))
	defer google.Close()
	openLibrary := openlibrary.New(openlibrary.Config{}, log.Component("openlibrary"))
	defer openLibrary.Close()

	chain := metadata.NewChain(log.Component("metadata"), google, openLibrary)
	m, found := chain.Lookup(ctx, res.ISBN)
	if !found {
		fmt.Println("\nNo catalogue knows this book")
		return
	}

	fmt.Printf("\n=== Catalogue ===\n")
	fmt.Printf("Title:  %s\n", m.Title)
	fmt.Printf("Cover:  %s\n", m.CoverURL)
	fmt.Printf("Source: %s\n", m.Source)
}
