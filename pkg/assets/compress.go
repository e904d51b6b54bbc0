package assets

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Format is an output encoding for Compress.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

// ParseFormat accepts jpeg/jpg/png in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadFormat, s)
}

// CompressOptions controls Compress. Zero values take the web defaults.
type CompressOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	Format    Format
}

// DefaultCompressOptions fits into 1200x1200 at JPEG quality 85.
func DefaultCompressOptions() CompressOptions {
	return CompressOptions{MaxWidth: 1200, MaxHeight: 1200, Quality: 85, Format: JPEG}
}

func (o CompressOptions) normalized() CompressOptions {
	d := DefaultCompressOptions()
	if o.MaxWidth <= 0 {
		o.MaxWidth = d.MaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = d.MaxHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = d.Quality
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	return o
}

// CompressResult reports sizes in bytes.
type CompressResult struct {
	Source string `json:"file"`
	Output string `json:"output"`
	Before int64  `json:"original_size"`
	After  int64  `json:"compressed_size"`
}

// Reduction is the saved share in percent.
func (r CompressResult) Reduction() float64 {
	if r.Before <= 0 {
		return 0
	}
	return float64(r.Before-r.After) / float64(r.Before) * 100
}

// OutputName maps an input file name to its compressed name: JPEG output always
// ends in .jpg, PNG output keeps the stem with .png.
func OutputName(name string, f Format) string {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if f == PNG {
		return stem + ".png"
	}
	return stem + ".jpg"
}

// Compress downsizes src to fit the bounds and writes it to dst in the chosen format.
// Transparent pixels are flattened onto white for JPEG.
func Compress(src, dst string, opts CompressOptions) (CompressResult, error) {
	opts = opts.normalized()
	res := CompressResult{Source: src, Output: dst, Before: Size(src)}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return res, fmt.Errorf("open %s: %w", src, err)
	}
	b := img.Bounds()
	if b.Dx() > opts.MaxWidth || b.Dy() > opts.MaxHeight {
		img = imaging.Fit(img, opts.MaxWidth, opts.MaxHeight, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return res, err
	}
	f, err := os.Create(dst)
	if err != nil {
		return res, err
	}
	switch opts.Format {
	case JPEG:
		err = imaging.Encode(f, Flatten(img, color.White), imaging.JPEG, imaging.JPEGQuality(opts.Quality))
	case PNG:
		err = imaging.Encode(f, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	default:
		err = fmt.Errorf("%w: %q", ErrBadFormat, opts.Format)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return res, fmt.Errorf("encode %s: %w", dst, err)
	}
	res.After = Size(dst)
	return res, nil
}

// Flatten composites img over a solid background.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	base := imaging.New(b.Dx(), b.Dy(), bg)
	return imaging.Overlay(base, img, image.Pt(0, 0), 1.0)
}
