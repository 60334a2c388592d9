// Package barcode reads ISBN barcodes out of phone photos.
//
// A photo is decoded once and then run through a fixed list of
// preprocessing variants; the first variant the decoder can read wins.
package barcode

import (
	"context"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/readnest/readnest/internal/isbn"
)

// Result is a successful scan.
type Result struct {
	// ISBN is the cleaned payload.
	ISBN    string `json:"isbn"`
	Raw     string `json:"raw"`
	Format  string `json:"format"`
	Variant string `json:"variant"`
}

// Scanner decodes uploaded photos.
type Scanner struct {
	decoder  Decoder
	variants []Variant
	logger   *slog.Logger
}

// NewScanner creates a scanner. A nil decoder uses gozxing; nil variants use DefaultVariants.
func NewScanner(decoder Decoder, variants []Variant, logger *slog.Logger) *Scanner {
	if decoder == nil {
		decoder = NewZXingDecoder()
	}
	if variants == nil {
		variants = DefaultVariants()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{decoder: decoder, variants: variants, logger: logger}
}

// Scan decodes the photo in r and looks for a barcode.
// Unreadable uploads and photos without a symbol both report false.
func (s *Scanner) Scan(ctx context.Context, r io.Reader) (Result, bool) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		s.logger.Debug("upload is not a decodable image", "error", err)
		return Result{}, false
	}
	return s.ScanImage(ctx, img)
}

// ScanImage tries each variant in order and stops at the first symbol.
func (s *Scanner) ScanImage(ctx context.Context, img image.Image) (Result, bool) {
	for _, v := range s.variants {
		if ctx.Err() != nil {
			return Result{}, false
		}

		sym, ok := s.decoder.Decode(v.Apply(img))
		if !ok {
			s.logger.Debug("no symbol", "variant", v.Name)
			continue
		}

		res := Result{
			ISBN:    isbn.Clean(sym.Text),
			Raw:     sym.Text,
			Format:  sym.Format,
			Variant: v.Name,
		}
		s.logger.Debug("barcode decoded", "variant", v.Name, "format", sym.Format, "isbn", res.ISBN)
		return res, true
	}

	s.logger.Debug("barcode not found", "variants", len(s.variants))
	return Result{}, false
}
