package barcode

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// maxEdge caps the long side of an upscaled candidate.
const maxEdge = 4096

// Variant is one preprocessing of the uploaded photo.
type Variant struct {
	Name  string
	Apply func(image.Image) image.Image
}

// DefaultVariants returns the candidates in the order they are tried:
// the photo as taken, grayscale, two digital zooms on the centre and a
// high-contrast sharpened zoom.
func DefaultVariants() []Variant {
	return []Variant{
		{Name: "original", Apply: func(img image.Image) image.Image { return img }},
		{Name: "grayscale", Apply: func(img image.Image) image.Image { return imaging.Grayscale(img) }},
		{Name: "zoom-60", Apply: func(img image.Image) image.Image { return zoom(img, 0.6, 2) }},
		{Name: "zoom-30", Apply: func(img image.Image) image.Image { return zoom(img, 0.3, 3) }},
		{Name: "enhanced", Apply: enhance},
	}
}

// zoom crops the centre fraction of img and upscales it by factor.
func zoom(img image.Image, fraction float64, factor int) image.Image {
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*fraction))
	h := max(1, int(float64(b.Dy())*fraction))
	cropped := imaging.CropCenter(img, w, h)

	dw, dh := w*factor, h*factor
	if long := max(dw, dh); long > maxEdge {
		dw = max(1, dw*maxEdge/long)
		dh = max(1, dh*maxEdge/long)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Src, nil)
	return dst
}

func enhance(img image.Image) image.Image {
	out := imaging.Grayscale(zoom(img, 0.6, 2))
	out = imaging.AdjustContrast(out, 60)
	return imaging.Sharpen(out, 1)
}
