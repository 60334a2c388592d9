package providers

import (
	"github.com/samber/do/v2"

	"github.com/readnest/readnest/internal/barcode"
	"github.com/readnest/readnest/internal/logger"
)

// ProvideBarcodeScanner provides the photo scanner backed by gozxing.
func ProvideBarcodeScanner(i do.Injector) (*barcode.Scanner, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return barcode.NewScanner(nil, nil, log.Component("barcode")), nil
}
