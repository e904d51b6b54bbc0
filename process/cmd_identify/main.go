package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/identify"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	input := flag.String("input", ".", "directory of renders to identify")
	output := flag.String("output", "", "directory for renamed files (default: alongside each original)")
	menuPath := flag.String("menu-json", "", "menu catalog (default from config)")
	recursive := flag.Bool("recursive", true, "descend into subdirectories")
	noVision := flag.Bool("no-vision", false, "disable the vision model (OCR and colours only)")
	noOCR := flag.Bool("no-ocr", false, "disable Tesseract OCR")
	colors := flag.Bool("colors", true, "use dominant colour hints")
	threshold := flag.Int("threshold", -1, "acceptance threshold (default from config)")
	dryRun := flag.Bool("dry-run", false, "score and report without renaming")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	saveDB := flag.Bool("save-db", false, "persist the run to Postgres (DB_DSN)")
	owner := flag.String("user", "", "operator the saved run belongs to (with --save-db)")
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
	p, err := setup.Pipeline(ctx, cfg, cat, setup.Signals{
		NoOCR:     *noOCR,
		NoVision:  *noVision,
		Colors:    *colors,
		Threshold: *threshold,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}

	r, err := identify.NewRunner(p, identify.Options{Dir: *input, Output: *output, Recursive: *recursive, DryRun: *dryRun})
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := r.Lock(); err != nil {
		if errors.Is(err, identify.ErrLocked) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
	defer r.Unlock()

	sum, err := r.Scan(ctx)
	if err != nil {
		log.Errorf("%v", err)
	}
	if *watch && ctx.Err() == nil {
		if err := r.Watch(ctx); err != nil {
			log.Errorf("watch failed: %v", err)
		}
		sum = r.Summary()
	}
	if sum == nil {
		return
	}
	fmt.Printf("Complete: %d/%d images renamed, %d failed. Results saved to: %s\n",
		sum.Renamed, len(sum.Records), sum.Failed, filepath.Join(*input, identify.ReportName))

	if *saveDB {
		st, err := setup.Store(cfg)
		if err != nil {
			log.Errorf("save-db: %v", err)
			return
		}
		defer st.Close()
		run := sum.ToRun()
		if *owner != "" {
			u, err := st.UserByName(*owner)
			if err != nil {
				log.Errorf("save-db: user %s: %v", *owner, err)
				return
			}
			run.UserID = &u.ID
		}
		// ctx may already be cancelled
		if err := st.SaveRun(context.Background(), run); err != nil {
			log.Errorf("save-db: %v", err)
			return
		}
		log.Infof("saved run %s", run.ID)
	}
}
