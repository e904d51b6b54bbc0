package assets

import (
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultCropFraction is the share of width and height covered by the generator badge.
const DefaultCropFraction = 0.15

const watermarkBlurSigma = 10

// RemoveWatermark blanks the bottom-right corner of img and blends it with a blurred
// copy of the surrounding region (twice the corner size). frac is clamped to [0, 0.5].
func RemoveWatermark(img image.Image, frac float64) *image.NRGBA {
	if frac < 0 {
		frac = 0
	}
	if frac > 0.5 {
		frac = 0.5
	}
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	cw, ch := int(float64(w)*frac), int(float64(h)*frac)

	out := imaging.New(w, h, color.White)
	out = imaging.Paste(out, imaging.Crop(src, image.Rect(0, 0, w-cw, h-ch)), image.Pt(0, 0))
	if cw > 0 && ch > 0 {
		area := image.Rect(w-2*cw, h-2*ch, w, h)
		blurred := imaging.Blur(imaging.Crop(src, area), watermarkBlurSigma)
		out = imaging.Paste(out, blurred, area.Min)
	}
	return out
}

// CleanStem turns a generator file stem into a site-friendly one.
func CleanStem(stem string) string {
	stem = strings.ReplaceAll(stem, "Gemini_Generated_Image_", "")
	return strings.ReplaceAll(strings.TrimSpace(stem), " ", "-")
}
