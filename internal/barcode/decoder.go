package barcode

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// Symbol is a decoded barcode payload.
type Symbol struct {
	Text   string
	Format string
}

// Decoder finds a single symbol in an image.
type Decoder interface {
	Decode(img image.Image) (Symbol, bool)
}

// ZXingDecoder tries EAN/UPC readers first and QR second.
type ZXingDecoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]any
}

// NewZXingDecoder creates a decoder backed by gozxing.
func NewZXingDecoder() *ZXingDecoder {
	hints := map[gozxing.DecodeHintType]any{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	return &ZXingDecoder{
		readers: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(hints),
			qrcode.NewQRCodeReader(),
		},
		hints: hints,
	}
}

// Decode returns the first symbol any reader finds.
func (d *ZXingDecoder) Decode(img image.Image) (sym Symbol, ok bool) {
	// gozxing can panic on degenerate bitmaps; treat that as nothing found.
	defer func() {
		if r := recover(); r != nil {
			sym, ok = Symbol{}, false
		}
	}()

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return Symbol{}, false
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return Symbol{}, false
	}

	for _, reader := range d.readers {
		res, err := reader.Decode(bmp, d.hints)
		reader.Reset()
		if err != nil || res == nil || res.GetText() == "" {
			continue
		}
		return Symbol{Text: res.GetText(), Format: fmt.Sprint(res.GetBarcodeFormat())}, true
	}
	return Symbol{}, false
}
