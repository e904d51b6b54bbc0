package main

import (
	"flag"
	"os"

	"shakeassets/pkg/assets"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/compress"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	input := flag.String("input", ".", "directory of images to compress")
	output := flag.String("output", "images/compressed", "output directory")
	quality := flag.Int("quality", 0, "JPEG quality 1-100 (default from config, 85)")
	maxW := flag.Int("max-width", 0, "maximum width (default from config, 1200)")
	maxH := flag.Int("max-height", 0, "maximum height (default from config, 1200)")
	format := flag.String("format", "", "output format: jpeg or png (default from config)")
	workers := flag.Int("workers", -1, "worker pool size (default from config; 0 = NumCPU)")
	flag.Parse()

	log := logging.L()
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, stop := setup.SignalContext()
	defer stop()

	c := cfg.Compress
	if *quality > 0 {
		c.Quality = *quality
	}
	if *maxW > 0 {
		c.MaxWidth = *maxW
	}
	if *maxH > 0 {
		c.MaxHeight = *maxH
	}
	if *format != "" {
		c.Format = *format
	}
	if *workers >= 0 {
		c.Workers = *workers
	}
	f, err := assets.ParseFormat(c.Format)
	if err != nil {
		log.Fatalf("%v", err)
	}

	sum, err := compress.Run(ctx, compress.Options{
		Input:    *input,
		Output:   *output,
		Workers:  c.Workers,
		Compress: assets.CompressOptions{MaxWidth: c.MaxWidth, MaxHeight: c.MaxHeight, Quality: c.Quality, Format: f},
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	sum.Print(os.Stdout)
	if len(sum.Failures) > 0 {
		os.Exit(1)
	}
}
