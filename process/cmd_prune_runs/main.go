package main

import (
	"flag"
	"fmt"
	"time"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/report"
)

// prune_runs deletes stored identification runs started before a cutoff, or only
// the dry-run ones with -dry-runs-only.
func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	days := flag.Int("older-than", 90, "delete runs started more than this many days ago")
	dryRunsOnly := flag.Bool("dry-runs-only", false, "only delete runs recorded with --dry-run")
	flag.Parse()

	log := logging.L()
	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := report.OpenDB(cfg.DB.DSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	cutoff := time.Now().UTC().AddDate(0, 0, -*days)
	const match = `SELECT id FROM identification_runs WHERE started_at < $1 AND ($2 = false OR dry_run)`

	// records first; older schemas may lack the cascade
	res1, err := db.Exec(`DELETE FROM identification_records WHERE run_id IN (`+match+`)`, cutoff, *dryRunsOnly)
	if err != nil {
		log.Fatalf("delete records: %v", err)
	}
	n1, _ := res1.RowsAffected()
	res2, err := db.Exec(`DELETE FROM identification_runs WHERE id IN (`+match+`)`, cutoff, *dryRunsOnly)
	if err != nil {
		log.Fatalf("delete runs: %v", err)
	}
	n2, _ := res2.RowsAffected()
	fmt.Printf("prune done (before %s): runs deleted=%d, records deleted=%d\n", cutoff.Format("2006-01-02"), n2, n1)
}
