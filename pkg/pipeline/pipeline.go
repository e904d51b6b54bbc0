// Package pipeline gathers the signals for one image and scores them with the matcher.
package pipeline

import (
	"context"
	"errors"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/matcher"
	"shakeassets/pkg/menu"
	"shakeassets/pkg/ocr"
	"shakeassets/pkg/signals"
	"shakeassets/pkg/vision"
)

// Pipeline is safe for concurrent use when its extractors are.
type Pipeline struct {
	catalog *menu.Catalog
	matcher *matcher.Matcher
	ocr     ocr.TextExtractor
	vision  vision.Describer
	colors  bool
	titles  []string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOCR sets the text extractor. nil disables OCR.
func WithOCR(x ocr.TextExtractor) Option {
	return func(p *Pipeline) { p.ocr = x }
}

// WithVision sets the vision backend. nil disables vision.
func WithVision(d vision.Describer) Option {
	return func(p *Pipeline) { p.vision = d }
}

// WithColors turns dominant-color sampling on or off.
func WithColors(on bool) Option {
	return func(p *Pipeline) { p.colors = on }
}

// New builds a pipeline over an immutable catalog and matcher.
func New(cat *menu.Catalog, m *matcher.Matcher, opts ...Option) *Pipeline {
	p := &Pipeline{catalog: cat, matcher: m, colors: true}
	for _, o := range opts {
		o(p)
	}
	p.titles = cat.Titles()
	return p
}

// Catalog returns the catalog the pipeline scores against.
func (p *Pipeline) Catalog() *menu.Catalog { return p.catalog }

// Matcher returns the matcher in use.
func (p *Pipeline) Matcher() *matcher.Matcher { return p.matcher }

// Signals acquires every enabled signal for the image at path. folder is the
// directory name used for category hints. Acquisition failures are logged and
// leave that signal empty.
func (p *Pipeline) Signals(ctx context.Context, path, folder string) matcher.Signal {
	log := logging.L()
	sig := matcher.Signal{Folder: signals.FolderHints(folder)}

	if p.ocr != nil {
		text, err := p.ocr.ExtractText(ctx, path)
		switch {
		case errors.Is(err, ocr.ErrNoText):
			log.Debugf("OCR %s: no text", path)
		case err != nil:
			log.Warnf("OCR %s failed: %v", path, err)
		default:
			sig.OCRText = text
			log.Debugf("OCR %s: %q", path, logging.Snippet(text, 80))
		}
	}

	if p.vision != nil && ctx.Err() == nil {
		answer, err := vision.Identify(ctx, p.vision, path, p.titles)
		if err != nil {
			log.Warnf("vision %s failed: %v", path, err)
		} else if answer != "" {
			sig = sig.WithVision(answer)
			log.Debugf("vision %s: %q", path, answer)
		}
	}

	if p.colors {
		buckets, err := signals.ColorBucketsFile(path)
		if err != nil {
			log.Warnf("colors %s failed: %v", path, err)
		} else {
			sig.Colors = buckets
		}
	}
	return sig
}

// Identify acquires signals and matches them against the catalog.
func (p *Pipeline) Identify(ctx context.Context, path, folder string) (matcher.Result, matcher.Signal) {
	sig := p.Signals(ctx, path, folder)
	return p.matcher.Match(sig, p.catalog), sig
}

// Score matches a pre-built signal.
func (p *Pipeline) Score(sig matcher.Signal) matcher.Result {
	return p.matcher.Match(sig, p.catalog)
}
