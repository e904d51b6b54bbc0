package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/menu"
	"shakeassets/pkg/setup"
	"shakeassets/process/generate"
)

func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	model := flag.String("model", "", "backend: local (z-image), gemini or openai (default from config)")
	menuPath := flag.String("json", "", "menu catalog (default from config)")
	output := flag.String("output", "", "output directory (default from config)")
	categories := flag.String("categories", "", "comma-separated categories: straightshakes,shotshakes,icecream,vegan")
	items := flag.String("items", "", "comma-separated item ids")
	title := flag.String("title", "", "generate a single image by menu title")
	prompt := flag.String("prompt", "", "prompt for --title when the title is not on the menu")
	list := flag.Bool("list", false, "list all available titles")
	overwrite := flag.Bool("overwrite", false, "regenerate images that already exist")
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
	if *list {
		generate.PrintTitles(os.Stdout, cat)
		return
	}
	out := *output
	if out == "" {
		out = cfg.Generate.OutputDir
	}

	var cats []menu.Category
	for _, c := range splitList(*categories) {
		mc, err := menu.ParseCategory(c)
		if err != nil {
			log.Fatalf("%v", err)
		}
		cats = append(cats, mc)
	}

	gen, err := setup.Generator(ctx, cfg, *model)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *title != "" {
		p, name := *prompt, menu.Slug(*title)
		if it, ok := cat.ByTitle(*title); ok {
			fmt.Printf("Found: %s\nCategory: %s\nPrompt: %s\n\n", it.Title, it.Category.Label(), logging.Snippet(it.Prompt, 100))
			name = it.ID
			if p == "" {
				p = it.Prompt
			}
		} else if p == "" {
			fmt.Fprintf(os.Stderr, "Error: Menu item %q not found.\nUse --list to see all available titles.\n", *title)
			os.Exit(1)
		}
		if _, err := generate.One(ctx, gen, p, filepath.Join(out, name+".png")); err != nil {
			log.Fatalf("generate %s: %v", name, err)
		}
		return
	}

	sum, err := generate.Run(ctx, gen, cat, generate.Options{
		Output:     out,
		Categories: cats,
		Items:      splitList(*items),
		Overwrite:  *overwrite,
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Generated %d/%d images (%d skipped, %d failed) in %s\n",
		len(sum.Generated), sum.Total, len(sum.Skipped), len(sum.Failures), out)
	if len(sum.Failures) > 0 {
		os.Exit(1)
	}
}
