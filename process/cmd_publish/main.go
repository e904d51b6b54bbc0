package main

import (
	"flag"
	"fmt"
	"os"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/publish"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	source := flag.String("source", "GUIDANCE DOCS/100k Shakes Renders", "directory tree holding identified renders")
	dest := flag.String("dest", "images", "website images directory")
	prefix := flag.String("prefix", "images", "path prefix written to image_mapping.json")
	menuPath := flag.String("menu-json", "", "menu catalog (default from config)")
	flag.Parse()

	log := logging.L()
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cat, err := setup.Catalog(cfg, *menuPath)
	if err != nil {
		log.Fatalf("menu: %v", err)
	}
	if _, err := os.Stat(*source); err != nil {
		log.Fatalf("source directory: %v", err)
	}

	res, err := publish.Run(cat, publish.Options{Source: *source, Dest: *dest, URLPrefix: *prefix})
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Copied %d images to %s\n", len(res.Mapping), *dest)
	res.PrintMissing(os.Stdout)
}
