// Package sanitize empties the application tables, optionally reseeding roles and
// an administrator account afterwards.
package sanitize

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"shakeassets/models"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/store"
)

// DefaultTables are the tables the tools own, children first.
var DefaultTables = []string{"identification_records", "identification_runs", "refresh_tokens", "users", "roles"}

var nameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Options controls a run. Nothing is truncated unless DryRun is false and Yes is set.
type Options struct {
	Tables        []string
	DryRun        bool
	Yes           bool
	Reseed        bool
	AdminUser     string
	AdminPassword string
}

// ValidTables splits a comma-separated list into identifiers that are safe to quote
// and the entries that were rejected.
func ValidTables(list string) (valid, rejected []string) {
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !nameRe.MatchString(p) {
			rejected = append(rejected, p)
			continue
		}
		valid = append(valid, p)
	}
	return valid, rejected
}

// TruncateStatement builds the statement for already validated names.
func TruncateStatement(tables []string) string {
	quoted := make([]string, 0, len(tables))
	for _, t := range tables {
		quoted = append(quoted, `"`+t+`"`)
	}
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
}

// Run truncates the requested tables that exist in the public schema. It reports what
// it considered to w and returns without changes on a dry run or without confirmation.
func Run(ctx context.Context, st *store.Store, opts Options, w io.Writer) error {
	log := logging.L()
	gdb := st.DB().WithContext(ctx)

	var existing []string
	for _, t := range opts.Tables {
		var cnt int64
		if err := gdb.Raw("SELECT count(*) FROM pg_tables WHERE schemaname = 'public' AND tablename = ?", t).Scan(&cnt).Error; err != nil {
			return fmt.Errorf("query pg_tables for %s: %w", t, err)
		}
		if cnt > 0 {
			existing = append(existing, t)
		} else {
			log.Infof("table %s not found, skipping", t)
		}
	}
	if len(existing) == 0 {
		fmt.Fprintln(w, "no requested tables present in the database; nothing to do")
		return nil
	}

	fmt.Fprintln(w, "Tables considered for truncation:")
	for _, t := range existing {
		fmt.Fprintf(w, " - %s\n", t)
	}
	if opts.DryRun {
		fmt.Fprintln(w, "dry-run enabled; no changes will be made. Use --dry-run=false --yes to execute.")
		return nil
	}
	if !opts.Yes {
		fmt.Fprintln(w, "Destructive operation. Pass --yes to confirm execution. Aborting.")
		return nil
	}

	stmt := TruncateStatement(existing)
	log.Infof("Executing: %s", stmt)
	tctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := st.DB().WithContext(tctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	log.Infof("Truncate completed.")

	if opts.Reseed {
		return reseed(st, opts)
	}
	return nil
}

func reseed(st *store.Store, opts Options) error {
	if err := st.SeedRoles(); err != nil {
		return fmt.Errorf("reseed roles: %w", err)
	}
	if opts.AdminPassword == "" {
		return nil
	}
	user := opts.AdminUser
	if user == "" {
		user = "admin"
	}
	if _, err := st.CreateUser(user, opts.AdminPassword, models.RoleAdministrator); err != nil {
		return fmt.Errorf("reseed admin: %w", err)
	}
	logging.L().Infof("created administrator %s", user)
	return nil
}
