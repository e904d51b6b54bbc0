package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"sort"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
)

// debug_ocr prints every signal gathered for one image and the resulting match,
// without touching the file.
func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	f := flag.String("file", "", "image file to inspect")
	folder := flag.String("folder", "", "folder name used for category hints (default the file's directory)")
	menuPath := flag.String("menu-json", "", "menu catalog (default from config)")
	noVision := flag.Bool("no-vision", false, "skip the vision model")
	flag.Parse()

	log := logging.L()
	if *f == "" {
		log.Fatalf("-file required")
	}
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := setup.SignalContext()
	defer stop()

	cat, err := setup.Catalog(cfg, *menuPath)
	if err != nil {
		log.Fatalf("menu: %v", err)
	}
	p, err := setup.Pipeline(ctx, cfg, cat, setup.Signals{NoVision: *noVision, Colors: true, Threshold: -1})
	if err != nil {
		log.Fatalf("%v", err)
	}
	dir := *folder
	if dir == "" {
		dir = filepath.Dir(*f)
	}

	res, sig := p.Identify(ctx, *f, dir)
	fmt.Printf("ocr=%q\n", sig.OCRText)
	fmt.Printf("vision=%q\n", sig.Vision())
	var colors, hints []string
	for c := range sig.Colors {
		colors = append(colors, string(c))
	}
	for h := range sig.Folder {
		hints = append(hints, string(h))
	}
	sort.Strings(colors)
	sort.Strings(hints)
	fmt.Printf("colors=%v folder=%v\n", colors, hints)

	if res.Matched() {
		fmt.Printf("match=%s score=%d\n", res.ItemID, res.Score)
	} else {
		fmt.Printf("no match (best score=%d, threshold=%d)\n", res.Score, p.Matcher().Threshold())
	}
	for _, c := range res.RunnerUps {
		fmt.Printf("  %-24s %d\n", c.ItemID, c.Score)
	}
}
