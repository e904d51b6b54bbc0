// Package report renders identification results, either from the JSON files the batch
// tools leave next to the images or from runs saved in Postgres.
package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	_ "github.com/lib/pq"
)

// Row is one image outcome. It decodes both identification_results.json
// (item) and processing_summary.json (identified).
type Row struct {
	Original   string  `json:"original"`
	New        *string `json:"new"`
	Item       *string `json:"item"`
	Identified *string `json:"identified"`
	Score      int     `json:"score"`
	Error      string  `json:"error,omitempty"`
}

// ItemID returns the matched menu id or "".
func (r Row) ItemID() string {
	switch {
	case r.Item != nil:
		return *r.Item
	case r.Identified != nil:
		return *r.Identified
	}
	return ""
}

// ReadFile loads a JSON report written by identify or watermark.
func ReadFile(path string) ([]Row, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return rows, nil
}

// Totals summarises a set of rows.
type Totals struct {
	Images     int
	Identified int
	Unmatched  int
	Errors     int
	PerItem    map[string]int
}

func Summarize(rows []Row) Totals {
	t := Totals{Images: len(rows), PerItem: map[string]int{}}
	for _, r := range rows {
		switch id := r.ItemID(); {
		case r.Error != "":
			t.Errors++
		case id != "":
			t.Identified++
			t.PerItem[id]++
		default:
			t.Unmatched++
		}
	}
	return t
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

// RowsTable renders rows as a table followed by a totals line.
func RowsTable(rows []Row) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"#", "Original", "New", "Item", "Score", "Error"})
	for i, r := range rows {
		tw.AppendRow(table.Row{i + 1, r.Original, deref(r.New), deref(nonEmpty(r.ItemID())), r.Score, r.Error})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t := Summarize(rows)
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d images", t.Images), "", fmt.Sprintf("%d identified", t.Identified),
		"", fmt.Sprintf("%d errors", t.Errors)})
	return tw.Render()
}

// ItemsTable lists how many images each menu item received, most first.
func ItemsTable(t Totals) string {
	ids := make([]string, 0, len(t.PerItem))
	for id := range t.PerItem {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if t.PerItem[ids[i]] != t.PerItem[ids[j]] {
			return t.PerItem[ids[i]] > t.PerItem[ids[j]]
		}
		return ids[i] < ids[j]
	})
	tw := newTable()
	tw.AppendHeader(table.Row{"Item", "Images"})
	for _, id := range ids {
		tw.AppendRow(table.Row{id, t.PerItem[id]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return tw.Render()
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Run is a stored identification run as listed by QueryRuns.
type Run struct {
	ID        string
	Username  string
	Dir       string
	StartedAt time.Time
	Total     int
	Renamed   int
	Failed    int
	DryRun    bool
}

// OpenDB opens a plain database/sql handle on dsn.
func OpenDB(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN not set")
	}
	return sql.Open("postgres", dsn)
}

// MonthRange parses YYYY-MM into a UTC [start, end) range.
func MonthRange(month string) (time.Time, time.Time, error) {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month format, expected YYYY-MM: %w", err)
	}
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0), nil
}

// QueryRuns lists runs started in month (YYYY-MM), optionally limited to username.
func QueryRuns(ctx context.Context, db *sql.DB, month, username string) ([]Run, error) {
	start, end, err := MonthRange(month)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT r.id, COALESCE(u.username, ''), r.dir, r.started_at, r.total, r.renamed, r.failed, r.dry_run
		FROM identification_runs r LEFT JOIN users u ON u.id = r.user_id
		WHERE r.started_at >= $1 AND r.started_at < $2 AND ($3::text = '' OR u.username = $3::text)
		ORDER BY r.started_at`, start, end, username)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Username, &r.Dir, &r.StartedAt, &r.Total, &r.Renamed, &r.Failed, &r.DryRun); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRecords loads the rows of one stored run in report order.
func QueryRecords(ctx context.Context, db *sql.DB, runID string) ([]Row, error) {
	rows, err := db.QueryContext(ctx, `SELECT original, "new", item_id, score, COALESCE(error, '')
		FROM identification_records WHERE run_id = $1 ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var nw, item sql.NullString
		if err := rows.Scan(&r.Original, &nw, &item, &r.Score, &r.Error); err != nil {
			return nil, err
		}
		if nw.Valid {
			r.New = &nw.String
		}
		if item.Valid {
			r.Item = &item.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunsTable renders stored runs.
func RunsTable(runs []Run) string {
	tw := newTable()
	tw.AppendHeader(table.Row{"Run", "User", "Dir", "Started", "Total", "Renamed", "Failed", "Dry run"})
	var total, renamed, failed int
	for _, r := range runs {
		user := r.Username
		if user == "" {
			user = "-"
		}
		tw.AppendRow(table.Row{r.ID, user, r.Dir, r.StartedAt.UTC().Format(time.RFC3339),
			r.Total, r.Renamed, r.Failed, strconv.FormatBool(r.DryRun)})
		total += r.Total
		renamed += r.Renamed
		failed += r.Failed
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d runs", len(runs)), "", "", "", total, renamed, failed, ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	return tw.Render()
}
