package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shakeassets/pkg/logging"
	"shakeassets/pkg/setup"
	"shakeassets/process/report"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./shakes.yaml if present)")
	file := flag.String("file", "", "identification_results.json or processing_summary.json to render")
	month := flag.String("month", time.Now().UTC().Format("2006-01"), "month of stored runs to list (YYYY-MM)")
	username := flag.String("username", "", "only runs saved by this user")
	run := flag.String("run", "", "show the records of one stored run")
	flag.Parse()

	log := logging.L()
	if *file != "" {
		rows, err := report.ReadFile(*file)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(report.RowsTable(rows))
		fmt.Println(report.ItemsTable(report.Summarize(rows)))
		return
	}

	cfg, err := setup.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := report.OpenDB(cfg.DB.DSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "DB_DSN not set; export DB_DSN or pass -file")
		os.Exit(2)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *run != "" {
		rows, err := report.QueryRecords(ctx, db, *run)
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(report.RowsTable(rows))
		return
	}
	runs, err := report.QueryRuns(ctx, db, *month, *username)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Printf("Identification runs for month=%s (UTC):\n", *month)
	fmt.Println(report.RunsTable(runs))
}
