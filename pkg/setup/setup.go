// Package setup wires configuration into the concrete backends the commands use.
package setup

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shakeassets/pkg/config"
	"shakeassets/pkg/imagegen"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/matcher"
	"shakeassets/pkg/menu"
	"shakeassets/pkg/ocr"
	"shakeassets/pkg/pipeline"
	"shakeassets/pkg/store"
	"shakeassets/pkg/vision"
)

// Load reads ./.env, then the configuration, and applies the log level.
func Load(configPath string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		logging.L().Warnf("reading .env: %v", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(cfg.Log.Level)
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Catalog loads the menu named by cfg, or path when non-empty.
func Catalog(cfg *config.Config, path string) (*menu.Catalog, error) {
	if path == "" {
		path = cfg.Menu.Path
	}
	cat, err := menu.Load(path)
	if err != nil {
		return nil, err
	}
	logging.L().Infof("Loaded %d menu items from %s", cat.Len(), path)
	return cat, nil
}

// Signals selects which signal sources a pipeline uses.
type Signals struct {
	NoOCR    bool
	NoVision bool
	Colors   bool
	// Threshold overrides the configured acceptance threshold when >= 0.
	Threshold int
}

// Pipeline builds the OCR, vision and matcher stack from cfg.
func Pipeline(ctx context.Context, cfg *config.Config, cat *menu.Catalog, s Signals) (*pipeline.Pipeline, error) {
	mc := cfg.Matcher.ToMatcher()
	if s.Threshold >= 0 {
		mc.AcceptanceThreshold = s.Threshold
	}
	opts := []pipeline.Option{pipeline.WithColors(s.Colors)}
	if !s.NoOCR {
		opts = append(opts, pipeline.WithOCR(ocr.NewTesseract()))
	}
	if !s.NoVision {
		d, err := Vision(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if d == nil {
			logging.L().Infof("vision disabled (provider=%q)", cfg.Vision.Provider)
		} else {
			opts = append(opts, pipeline.WithVision(d))
		}
	}
	return pipeline.New(cat, matcher.New(mc), opts...), nil
}

// Vision builds the configured describer. It returns nil, nil when vision is off.
func Vision(ctx context.Context, cfg *config.Config) (vision.Describer, error) {
	v := cfg.Vision
	d, err := vision.New(ctx, v.Provider, vision.Config{
		APIKey:            v.APIKey,
		BaseURL:           v.BaseURL,
		Model:             v.Model,
		RequestsPerMinute: v.RequestsPerMinute,
		TimeoutSeconds:    v.TimeoutSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("vision backend: %w", err)
	}
	return d, nil
}

// Generator builds the configured image generator. provider overrides the configured one when set.
func Generator(ctx context.Context, cfg *config.Config, provider string) (imagegen.Generator, error) {
	g := cfg.Generate
	if provider != "" && provider != g.Provider {
		g.Provider = provider
		g.APIKey = ""
		g.APIKey = g.ResolveAPIKey()
	}
	gen, err := imagegen.New(ctx, g.Provider, imagegen.Config{
		APIKey:            g.APIKey,
		BaseURL:           g.BaseURL,
		Model:             g.Model,
		Width:             g.Width,
		Height:            g.Height,
		Steps:             g.Steps,
		GuidanceScale:     g.GuidanceScale,
		Seed:              g.Seed,
		RequestsPerMinute: g.RequestsPerMinute,
		TimeoutSeconds:    g.TimeoutSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("image generator: %w", err)
	}
	return gen, nil
}

// Store opens the database named by cfg.
func Store(cfg *config.Config) (*store.Store, error) {
	start := time.Now()
	st, err := store.Open(cfg.DB.DSN, cfg.DB.AutoMigrate)
	if err != nil {
		return nil, err
	}
	logging.L().Debugf("database ready in %s", time.Since(start))
	return st, nil
}
