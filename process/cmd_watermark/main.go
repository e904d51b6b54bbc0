package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/watermark"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	input := flag.String("input", ".", "directory with generated images")
	output := flag.String("output", "images/processed", "output directory for processed images")
	crop := flag.Float64("crop", 0.15, "share of width and height to clean in the bottom-right corner")
	menuPath := flag.String("menu-json", "", "menu catalog (default from config)")
	threshold := flag.Int("threshold", -1, "acceptance threshold (default from config)")
	useVision := flag.Bool("vision", false, "also ask the vision model")
	flag.Parse()

	log := logging.L()
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
	p, err := setup.Pipeline(ctx, cfg, cat, setup.Signals{NoVision: !*useVision, Threshold: *threshold})
	if err != nil {
		log.Fatalf("%v", err)
	}
	recs, err := watermark.Run(ctx, p, watermark.Options{Input: *input, Output: *output, Crop: *crop})
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Processed: %d images\nSummary: %s\n", len(recs), filepath.Join(*output, watermark.SummaryName))
}
