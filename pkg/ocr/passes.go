package ocr

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Variant is one preprocessed rendition of an image fed to the OCR engine.
type Variant struct {
	Name  string
	Image image.Image
}

// Variants returns the renditions ExtractText reads, in pass order.
func Variants(img image.Image) []Variant {
	gray := prepare(img)
	return []Variant{
		{"gray", gray},
		{"binary", binarize(gray, 200)},
		// menu renders often carry light lettering on a dark glass
		{"inverted", imaging.Invert(gray)},
	}
}

type variant struct {
	name string
	path string
}

// writeVariants saves the OCR input variants to a temp dir. The caller must run cleanup.
func writeVariants(img image.Image) ([]variant, func(), error) {
	dir, err := os.MkdirTemp("", "ocr-*")
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	vs := Variants(img)
	out := make([]variant, 0, len(vs))
	for _, v := range vs {
		p := filepath.Join(dir, v.Name+".png")
		if err := imaging.Save(v.Image, p); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		out = append(out, variant{name: v.Name, path: p})
	}
	return out, cleanup, nil
}
