package main

import (
	"errors"
	"os"

	"shakeassets/models"
	"shakeassets/pkg/config"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/pkg/store"
)

var st *store.Store

func initDB(cfg *config.Config) {
	log := logging.L()
	var err error
	if cfg.DB.DSN == "" {
		log.Fatalf("DB_DSN is not set. The review server requires a Postgres DSN in DB_DSN.")
	}
	st, err = setup.Store(cfg)
	if err != nil {
		log.Fatalf("failed to connect postgres database: %v", err)
	}
	seedDB()
}

// seedDB creates the admin account when ADMIN_PASSWORD is set and no admin exists yet.
func seedDB() {
	log := logging.L()
	pw := os.Getenv("ADMIN_PASSWORD")
	if pw == "" {
		return
	}
	if _, err := st.UserByName("admin"); err == nil {
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warnf("failed to look up admin user: %v", err)
		return
	}
	if _, err := st.CreateUser("admin", pw, models.RoleAdministrator); err != nil {
		log.Warnf("failed to seed admin user: %v", err)
		return
	}
	log.Infof("Seeded admin user: username=admin")
}

// ensureUploadBase creates the directory uploaded images are staged in.
func ensureUploadBase() {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		logging.L().Warnf("failed to create upload dir %s: %v", uploadDir, err)
	}
}
