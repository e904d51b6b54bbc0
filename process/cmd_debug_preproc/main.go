package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/ocr"
	"shakeassets/pkg/setup"
)

// debug_preproc saves the renditions the OCR engine reads so they can be inspected,
// then prints the text recognised from them.
func main() {
	in := flag.String("file", "", "image file to preprocess")
	out := flag.String("out", "tmp/preproc", "directory for the saved renditions")
	flag.Parse()

	log := logging.L()
	if *in == "" {
		log.Fatalf("-file required")
	}
	img, err := imaging.Open(*in, imaging.AutoOrientation(true))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	stem := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
	for _, v := range ocr.Variants(img) {
		p := filepath.Join(*out, stem+"."+v.Name+".png")
		if err := imaging.Save(v.Image, p); err != nil {
			log.Fatalf("save %s: %v", p, err)
		}
		b := v.Image.Bounds()
		fmt.Printf("%-8s %dx%d -> %s\n", v.Name, b.Dx(), b.Dy(), p)
	}

	ctx, stop := setup.SignalContext()
	defer stop()
	text, err := ocr.NewTesseract().ExtractText(ctx, *in)
	switch {
	case errors.Is(err, ocr.ErrNoText):
		fmt.Println("text: (none)")
	case err != nil:
		log.Fatalf("ocr: %v", err)
	default:
		fmt.Printf("text: %q\n", text)
	}
}
