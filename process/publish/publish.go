// Package publish copies one identified image per menu item into the website's
// images directory and writes image_mapping.json.
package publish

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"shakeassets/pkg/assets"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/menu"
)

// MappingName is written into the destination directory.
const MappingName = "image_mapping.json"

// Options controls a run.
type Options struct {
	Source string
	Dest   string
	// URLPrefix is prepended to file names in the mapping; default "images".
	URLPrefix string
	// JPEGQuality is used when converting webp sources.
	JPEGQuality int
}

// Result maps item ids to site paths and lists catalog items with no image.
type Result struct {
	Mapping map[string]string
	Found   map[string][]string
	Missing []string
}

type candidate struct {
	rel    string
	suffix int // -1 for an exact <id> stem
}

// Find groups the images under source by the menu id their name carries:
// <id>.<ext> or <id>_<N>.<ext>. Each group is ordered exact name first, then by N.
func Find(source string, cat *menu.Catalog, skip string) (map[string][]string, error) {
	files, err := assets.ListImages(source, true)
	if err != nil {
		return nil, err
	}
	ids := map[string]bool{}
	for _, it := range cat.Items() {
		ids[it.ID] = true
	}
	groups := map[string][]candidate{}
	for _, rel := range files {
		if skip != "" && (rel == skip || strings.HasPrefix(rel, skip+string(filepath.Separator))) {
			continue
		}
		id, n, ok := parseName(filepath.Base(rel), ids)
		if !ok {
			continue
		}
		groups[id] = append(groups[id], candidate{rel: rel, suffix: n})
	}
	out := make(map[string][]string, len(groups))
	for id, cs := range groups {
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].suffix < cs[j].suffix })
		for _, c := range cs {
			out[id] = append(out[id], c.rel)
		}
	}
	return out, nil
}

// parseName returns the id and collision suffix encoded in name.
func parseName(name string, ids map[string]bool) (string, int, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if ids[stem] {
		return stem, -1, true
	}
	i := strings.LastIndexByte(stem, '_')
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(stem[i+1:])
	if err != nil || n < 0 || !ids[stem[:i]] {
		return "", 0, false
	}
	return stem[:i], n, true
}

// Run copies the best image of every item found under opts.Source.
func Run(cat *menu.Catalog, opts Options) (*Result, error) {
	log := logging.L()
	if opts.URLPrefix == "" {
		opts.URLPrefix = "images"
	}
	if opts.JPEGQuality <= 0 {
		opts.JPEGQuality = 90
	}
	if err := os.MkdirAll(opts.Dest, 0o755); err != nil {
		return nil, err
	}
	skip := ""
	if rel, err := relDir(opts.Source, opts.Dest); err == nil && !strings.HasPrefix(rel, "..") {
		if rel == "." {
			return nil, fmt.Errorf("%s: %w", opts.Dest, assets.ErrDestIsSource)
		}
		skip = rel
	}
	found, err := Find(opts.Source, cat, skip)
	if err != nil {
		return nil, fmt.Errorf("find images: %w", err)
	}
	log.Infof("Found images for %d menu items", len(found))

	res := &Result{Mapping: map[string]string{}, Found: found}
	for _, it := range cat.Items() {
		files := found[it.ID]
		if len(files) == 0 {
			res.Missing = append(res.Missing, it.ID)
			continue
		}
		src := filepath.Join(opts.Source, files[0])
		name, err := copyImage(src, opts.Dest, it.ID, opts.JPEGQuality)
		if err != nil {
			log.Errorf("%s: %v", it.ID, err)
			continue
		}
		res.Mapping[it.ID] = opts.URLPrefix + "/" + name
		log.Infof("%s -> %s (%d candidate(s))", it.ID, name, len(files))
	}

	b, err := json.MarshalIndent(res.Mapping, "", "  ")
	if err != nil {
		return res, err
	}
	if err := os.WriteFile(filepath.Join(opts.Dest, MappingName), append(b, '\n'), 0o644); err != nil {
		return res, fmt.Errorf("write mapping: %w", err)
	}
	return res, nil
}

// relDir is filepath.Rel over absolute, symlink-resolved paths.
func relDir(base, target string) (string, error) {
	resolve := func(p string) (string, error) {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		if r, err := filepath.EvalSymlinks(abs); err == nil {
			return r, nil
		}
		return abs, nil
	}
	b, err := resolve(base)
	if err != nil {
		return "", err
	}
	t, err := resolve(target)
	if err != nil {
		return "", err
	}
	return filepath.Rel(b, t)
}

// copyImage copies src to dest/<id><ext>. webp is re-encoded as JPEG.
func copyImage(src, dest, id string, quality int) (string, error) {
	ext := strings.ToLower(filepath.Ext(src))
	if ext != ".webp" {
		name := id + ext
		return name, assets.CopyFile(src, filepath.Join(dest, name))
	}
	img, err := imaging.Open(src)
	if err != nil {
		return "", fmt.Errorf("decode webp: %w", err)
	}
	name := id + ".jpg"
	err = imaging.Save(assets.Flatten(img, whiteBG), filepath.Join(dest, name), imaging.JPEGQuality(quality))
	return name, err
}

// PrintMissing lists items that still need an image.
func (r *Result) PrintMissing(w io.Writer) {
	if len(r.Missing) == 0 {
		return
	}
	fmt.Fprintf(w, "No image for %d item(s):\n", len(r.Missing))
	for _, id := range r.Missing {
		fmt.Fprintf(w, "  - %s\n", id)
	}
}

var whiteBG = color.White
