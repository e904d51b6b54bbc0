// Package watermark strips the generator badge from renders, identifies them and saves
// the cleaned copies under their menu id.
package watermark

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"shakeassets/pkg/assets"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/pipeline"
)

// SummaryName is written into the output directory.
const SummaryName = "processing_summary.json"

const textSnippet = 200

// Options controls a run.
type Options struct {
	Input  string
	Output string
	// Crop is the badge share of width and height; zero means assets.DefaultCropFraction.
	Crop float64
}

// Record is one entry of processing_summary.json.
type Record struct {
	Original   string  `json:"original"`
	New        string  `json:"new,omitempty"`
	Identified *string `json:"identified"`
	Score      int     `json:"score"`
	Text       string  `json:"text"`
	Error      string  `json:"error,omitempty"`
}

// Run cleans every top-level image of opts.Input into opts.Output.
func Run(ctx context.Context, p *pipeline.Pipeline, opts Options) ([]Record, error) {
	log := logging.L()
	files, err := assets.ListImages(opts.Input, false)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if opts.Crop == 0 {
		opts.Crop = assets.DefaultCropFraction
	}
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return nil, err
	}
	log.Infof("Found %d images to process, output %s", len(files), opts.Output)

	records := []Record{}
	identified := 0
	for _, name := range files {
		if ctx.Err() != nil {
			log.Warnf("interrupted after %d/%d files", len(records), len(files))
			break
		}
		rec := processImage(ctx, p, opts, name)
		if rec.Identified != nil {
			identified++
		}
		records = append(records, rec)
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return records, err
	}
	if err := os.WriteFile(filepath.Join(opts.Output, SummaryName), append(b, '\n'), 0o644); err != nil {
		return records, fmt.Errorf("write summary: %w", err)
	}
	log.Infof("Identified: %d/%d images", identified, len(records))
	return records, nil
}

func processImage(ctx context.Context, p *pipeline.Pipeline, opts Options, name string) Record {
	log := logging.L()
	rec := Record{Original: name}
	src := filepath.Join(opts.Input, name)

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		rec.Error = err.Error()
		log.Errorf("ERROR %s: %v", name, err)
		return rec
	}
	cleaned := assets.RemoveWatermark(img, opts.Crop)

	tmp, err := os.CreateTemp(opts.Output, ".wm-*.png")
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	err = imaging.Encode(tmp, cleaned, imaging.PNG)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		rec.Error = err.Error()
		log.Errorf("ERROR %s: %v", name, err)
		return rec
	}

	sig := p.Signals(ctx, tmpPath, opts.Input)
	rec.Text = snippet(sig.OCRText, textSnippet)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	// the file name often carries the title
	sig.OCRText = strings.TrimSpace(sig.OCRText + " " + strings.NewReplacer("-", " ", "_", " ").Replace(stem))
	res := p.Score(sig)
	rec.Score = res.Score

	outStem := assets.CleanStem(stem)
	if res.Matched() {
		item := res.ItemID
		rec.Identified = &item
		outStem = item
	}
	dst, err := assets.NextFreePath(opts.Output, outStem, ".png")
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	if err := imaging.Save(cleaned, dst); err != nil {
		rec.Error = err.Error()
		log.Errorf("ERROR %s: %v", name, err)
		return rec
	}
	rec.New = filepath.Base(dst)
	if rec.Identified != nil {
		log.Infof("Identified %s as %s (score: %d), saved %s", name, *rec.Identified, res.Score, rec.New)
	} else {
		log.Infof("Could not identify %s (score: %d), saved %s", name, res.Score, rec.New)
	}
	return rec
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
