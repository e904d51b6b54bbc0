package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"shakeassets/pkg/ocr"
	"shakeassets/pkg/setup"
)

// check_setup verifies that the configured backends can be constructed. It makes
// no model calls.
func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	flag.Parse()

	cfg, err := setup.Load(*configPath)
	if err != nil {
		fmt.Printf("FAIL config: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ok := true
	check := func(name string, err error) {
		if err != nil {
			ok = false
			fmt.Printf("FAIL %-10s %v\n", name, err)
			return
		}
		fmt.Printf("ok   %s\n", name)
	}

	cat, err := setup.Catalog(cfg, "")
	check("menu", err)
	if err == nil {
		fmt.Printf("     %d items from %s\n", cat.Len(), cfg.Menu.Path)
	}

	fmt.Printf("     vision provider=%s key=%s\n", cfg.Vision.Provider, mask(cfg.Vision.APIKey))
	_, err = setup.Vision(ctx, cfg)
	check("vision", err)

	fmt.Printf("     generate provider=%s key=%s\n", cfg.Generate.Provider, mask(cfg.Generate.APIKey))
	_, err = setup.Generator(ctx, cfg, "")
	check("generate", err)

	check("tesseract", checkTesseract(ctx))

	if cfg.DB.DSN != "" {
		st, err := setup.Store(cfg)
		if err == nil {
			err = st.Close()
		}
		check("database", err)
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("\nReady. Try: go run ./process/cmd_generate --title 'Oreo Delight'")
}

func mask(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) < 16 {
		return "****"
	}
	return key[:10] + "..." + key[len(key)-4:]
}

// checkTesseract runs one OCR pass over a blank image; "no text" means the engine works.
func checkTesseract(ctx context.Context) error {
	dir, err := os.MkdirTemp("", "check-setup-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	p := filepath.Join(dir, "blank.png")
	if err := imaging.Save(imaging.New(64, 32, color.White), p); err != nil {
		return err
	}
	_, err = ocr.NewTesseract().ExtractText(ctx, p)
	if errors.Is(err, ocr.ErrNoText) {
		return nil
	}
	return err
}
