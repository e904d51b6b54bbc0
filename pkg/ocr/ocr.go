package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"shakeassets/pkg/logging"
)

// TextExtractor reads printed text off an image.
type TextExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

// Nop never finds text. Used for --no-ocr.
type Nop struct{}

func (Nop) ExtractText(context.Context, string) (string, error) { return "", nil }

// Tesseract runs gosseract over a few preprocessed variants of the image and joins
// the distinct words it reads.
type Tesseract struct {
	Language string
	// Modes are the page segmentation modes tried on each variant.
	Modes []gosseract.PageSegMode
}

// NewTesseract returns an English extractor trying auto and sparse-text segmentation.
func NewTesseract() *Tesseract {
	return &Tesseract{
		Language: "eng",
		Modes:    []gosseract.PageSegMode{gosseract.PSM_AUTO, gosseract.PSM_SPARSE_TEXT},
	}
}

// ExtractText returns ErrNoText when no pass recognised anything.
func (t *Tesseract) ExtractText(ctx context.Context, path string) (string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	variants, cleanup, err := writeVariants(img)
	if err != nil {
		return "", fmt.Errorf("ocr variants: %w", err)
	}
	defer cleanup()

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(t.language()); err != nil {
		return "", fmt.Errorf("ocr language: %w", err)
	}

	var texts []string
	for _, v := range variants {
		for _, mode := range t.modes() {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			if err := client.SetPageSegMode(mode); err != nil {
				continue
			}
			if err := client.SetImage(v.path); err != nil {
				logging.L().Debugf("OCR %s pass=%s set image: %v", path, v.name, err)
				continue
			}
			out, err := client.Text()
			if err != nil {
				logging.L().Debugf("OCR %s pass=%s psm=%d: %v", path, v.name, mode, err)
				continue
			}
			if s := normalizeOCRText(out); s != "" {
				texts = append(texts, s)
			}
		}
	}
	text := joinPasses(texts)
	logging.L().Debugf("OCR %s passes=%d snippet=%q", path, len(variants)*len(t.modes()), logging.Snippet(text, 120))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func (t *Tesseract) language() string {
	if strings.TrimSpace(t.Language) == "" {
		return "eng"
	}
	return t.Language
}

func (t *Tesseract) modes() []gosseract.PageSegMode {
	if len(t.Modes) == 0 {
		return []gosseract.PageSegMode{gosseract.PSM_AUTO}
	}
	return t.Modes
}
