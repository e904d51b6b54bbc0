package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/sanitize"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default ./shakes.yaml if present)")
		dryRun     = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes        = flag.Bool("yes", false, "Confirm destructive action (required to actually truncate)")
		reseed     = flag.Bool("reseed", false, "After truncation, reseed roles and the admin user")
		adminUser  = flag.String("admin-user", "admin", "administrator created by --reseed")
		tables     = flag.String("tables", strings.Join(sanitize.DefaultTables, ","), "Comma-separated list of tables to truncate")
	)
	flag.Parse()

	log := logging.L()
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DB.DSN == "" {
		log.Fatalf("DB_DSN must be set to run sanitize")
	}
	valid, rejected := sanitize.ValidTables(*tables)
	for _, r := range rejected {
		log.Warnf("skipping invalid table name '%s'", r)
	}

	st, err := setup.Store(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer st.Close()

	err = sanitize.Run(context.Background(), st, sanitize.Options{
		Tables:        valid,
		DryRun:        *dryRun,
		Yes:           *yes,
		Reseed:        *reseed,
		AdminUser:     *adminUser,
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
}
