package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/gin-gonic/gin"

	"shakeassets/pkg/config"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/pipeline"
	"shakeassets/pkg/setup"
	"shakeassets/pkg/vision"
)

var (
	jwtSecret []byte // from server.jwt_secret / JWT_SECRET (fallback to dev default)
	pipe      *pipeline.Pipeline
	uploadDir string
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	flag.Parse()

	log := logging.L()
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	secret := cfg.Server.JWTSecret
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
		log.Warnf("JWT_SECRET not set; using the development secret")
	}
	jwtSecret = []byte(secret)

	// `shakes-server migrate` runs AutoMigrate and seeding then exits.
	if flag.Arg(0) == "migrate" {
		cfg.DB.AutoMigrate = true
		initDB(cfg)
		fmt.Println("migration and seeding completed")
		return
	}

	initDB(cfg)
	if err := initPipeline(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}

	r := gin.Default()
	setupRoutes(r)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// initPipeline loads the catalog and builds the signal stack used by /identify.
// A vision provider without an API key is disabled rather than fatal.
func initPipeline(ctx context.Context, cfg *config.Config) error {
	cat, err := setup.Catalog(cfg, "")
	if err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	s := setup.Signals{Colors: true, Threshold: -1}
	p, err := setup.Pipeline(ctx, cfg, cat, s)
	if errors.Is(err, vision.ErrNoAPIKey) {
		logging.L().Warnf("vision disabled: %v", err)
		s.NoVision = true
		p, err = setup.Pipeline(ctx, cfg, cat, s)
	}
	if err != nil {
		return err
	}
	pipe = p
	uploadDir = cfg.Server.UploadDir
	ensureUploadBase()
	return nil
}
