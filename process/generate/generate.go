// Package generate renders placeholder images for catalog items from their prompts.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"shakeassets/pkg/imagegen"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/menu"
)

// ErrNoPrompt is returned for items without a generation prompt.
var ErrNoPrompt = errors.New("item has no prompt")

// Options selects what to render.
type Options struct {
	Output string
	// Categories limits the run; empty means all, in catalog order.
	Categories []menu.Category
	// Items limits the run to these ids.
	Items []string
	// Overwrite regenerates items whose <id>.png already exists.
	Overwrite bool
}

// Failure is an item whose image could not be produced.
type Failure struct {
	ItemID string
	Err    error
}

// Summary counts the run.
type Summary struct {
	Total     int
	Generated []string
	Skipped   []string
	Failures  []Failure
}

// Select returns the catalog items matching opts, in catalog order.
func Select(cat *menu.Catalog, opts Options) []menu.MenuItem {
	cats := map[menu.Category]bool{}
	for _, c := range opts.Categories {
		cats[c] = true
	}
	ids := map[string]bool{}
	for _, id := range opts.Items {
		ids[strings.TrimSpace(id)] = true
	}
	var out []menu.MenuItem
	for _, it := range cat.Items() {
		if len(cats) > 0 && !cats[it.Category] {
			continue
		}
		if len(ids) > 0 && !ids[it.ID] {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Run generates an image per selected item. Items without a prompt are skipped;
// a failed item is recorded and the run continues.
func Run(ctx context.Context, gen imagegen.Generator, cat *menu.Catalog, opts Options) (*Summary, error) {
	log := logging.L()
	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return nil, err
	}
	items := Select(cat, opts)
	sum := &Summary{Total: len(items)}
	current := menu.Category("")
	for _, it := range items {
		if ctx.Err() != nil {
			log.Warnf("interrupted; %d of %d items done", len(sum.Generated)+len(sum.Skipped)+len(sum.Failures), len(items))
			break
		}
		if it.Category != current {
			current = it.Category
			log.Infof("=== %s ===", strings.ToUpper(string(current)))
		}
		if strings.TrimSpace(it.Prompt) == "" {
			log.Warnf("Skipping %s: no prompt", it.ID)
			sum.Skipped = append(sum.Skipped, it.ID)
			continue
		}
		dst := filepath.Join(opts.Output, it.ID+".png")
		if !opts.Overwrite {
			if _, err := os.Stat(dst); err == nil {
				log.Infof("Skipping %s: %s exists", it.ID, dst)
				sum.Skipped = append(sum.Skipped, it.ID)
				continue
			}
		}
		if _, err := One(ctx, gen, it.Prompt, dst); err != nil {
			log.Errorf("Error generating %s: %v", it.ID, err)
			sum.Failures = append(sum.Failures, Failure{ItemID: it.ID, Err: err})
			continue
		}
		sum.Generated = append(sum.Generated, it.ID)
	}
	log.Infof("Generated %d/%d images", len(sum.Generated), sum.Total)
	return sum, nil
}

// One renders prompt and stores it at dst as PNG.
func One(ctx context.Context, gen imagegen.Generator, prompt, dst string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrNoPrompt
	}
	logging.L().Infof("Generating: %s", filepath.Base(dst))
	data, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	if err := savePNG(data, dst); err != nil {
		return "", err
	}
	logging.L().Infof("Saved: %s", dst)
	return dst, nil
}

// savePNG writes PNG bytes as-is and re-encodes anything else.
func savePNG(data []byte, dst string) error {
	if http.DetectContentType(data) == "image/png" {
		return os.WriteFile(dst, data, 0o644)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode generated image: %w", err)
	}
	return imaging.Save(img, dst)
}

// PrintTitles lists the catalog grouped by category.
func PrintTitles(w io.Writer, cat *menu.Catalog) {
	fmt.Fprintln(w, "Available Menu Items:")
	for _, c := range menu.Categories {
		items := cat.InCategory(c)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(string(c)))
		for _, it := range items {
			fmt.Fprintf(w, "  - %s\n", it.Title)
		}
	}
}
