// Package identify renames unlabeled renders to the menu item they show and writes
// identification_results.json next to them.
package identify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"shakeassets/pkg/assets"
	"shakeassets/pkg/logging"
	"shakeassets/pkg/pipeline"
)

// ReportName is written into the processed directory, overwriting any earlier report.
const ReportName = "identification_results.json"

const lockName = ".identify.lock"

// ErrLocked is returned when another identify run holds the directory.
var ErrLocked = errors.New("directory is locked by another identify run")

// Record is one entry of the report. New and Item are null for unmatched images;
// Error is set only for file-level failures.
type Record struct {
	Original string  `json:"original"`
	New      *string `json:"new"`
	Item     *string `json:"item"`
	Score    int     `json:"score"`
	Error    string  `json:"error,omitempty"`
}

// Options controls a run.
type Options struct {
	Dir string
	// Output receives renamed files. Empty keeps each file in its own directory.
	Output    string
	Recursive bool
	// DryRun scores and reports without renaming.
	DryRun bool
}

// Summary is the outcome of a run.
type Summary struct {
	Dir        string    `json:"dir"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Threshold  int       `json:"threshold"`
	DryRun     bool      `json:"dry_run"`
	Records    []Record  `json:"records"`
	Renamed    int       `json:"renamed"`
	Failed     int       `json:"failed"`
	// Interrupted is set when the context was cancelled before every file was seen.
	Interrupted bool `json:"interrupted"`
}

// Runner processes one directory. It is not safe for concurrent use.
type Runner struct {
	p        *pipeline.Pipeline
	opts     Options
	lock     *flock.Flock
	summary  Summary
	produced map[string]struct{}
}

// NewRunner validates the directory.
func NewRunner(p *pipeline.Pipeline, opts Options) (*Runner, error) {
	fi, err := os.Stat(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", opts.Dir)
	}
	return &Runner{
		p:    p,
		opts: opts,
		lock: flock.New(filepath.Join(opts.Dir, lockName)),
		summary: Summary{
			Dir:       opts.Dir,
			Threshold: p.Matcher().Threshold(),
			DryRun:    opts.DryRun,
			Records:   []Record{},
		},
		produced: map[string]struct{}{},
	}, nil
}

// Run identifies every image in opts.Dir once.
func Run(ctx context.Context, p *pipeline.Pipeline, opts Options) (*Summary, error) {
	r, err := NewRunner(p, opts)
	if err != nil {
		return nil, err
	}
	if err := r.Lock(); err != nil {
		return nil, err
	}
	defer r.Unlock()
	return r.Scan(ctx)
}

// Lock takes the per-directory lock file.
func (r *Runner) Lock() error {
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, r.opts.Dir)
	}
	return nil
}

// Unlock releases and removes the lock file.
func (r *Runner) Unlock() {
	if err := r.lock.Unlock(); err != nil {
		logging.L().Warnf("release lock %s: %v", r.lock.Path(), err)
	}
	_ = os.Remove(r.lock.Path())
}

// Summary returns the records gathered so far.
func (r *Runner) Summary() *Summary {
	s := r.summary
	s.Records = append([]Record(nil), r.summary.Records...)
	return &s
}

// Scan processes the files currently in the directory, then writes the report.
// Cancelling ctx stops after the file in progress.
func (r *Runner) Scan(ctx context.Context) (*Summary, error) {
	log := logging.L()
	r.summary.StartedAt = time.Now()
	files, err := assets.ListImages(r.opts.Dir, r.opts.Recursive)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	log.Infof("Processing %d images in %s (threshold=%d)", len(files), r.opts.Dir, r.summary.Threshold)
	for i, rel := range files {
		if ctx.Err() != nil {
			r.summary.Interrupted = true
			log.Warnf("interrupted after %d/%d files", i, len(files))
			break
		}
		r.Process(ctx, rel)
	}
	r.summary.FinishedAt = time.Now()
	if err := r.WriteReport(); err != nil {
		return r.Summary(), err
	}
	log.Infof("Complete: %d/%d images renamed, %d failed", r.summary.Renamed, len(r.summary.Records), r.summary.Failed)
	return r.Summary(), nil
}

// Process identifies one file given relative to opts.Dir and appends its record.
func (r *Runner) Process(ctx context.Context, rel string) Record {
	rec := r.process(ctx, rel)
	r.summary.Records = append(r.summary.Records, rec)
	switch {
	case rec.Error != "":
		r.summary.Failed++
	case rec.New != nil && *rec.New != filepath.Base(rec.Original):
		r.summary.Renamed++
	}
	return rec
}

func (r *Runner) process(ctx context.Context, rel string) Record {
	log := logging.L()
	full := filepath.Join(r.opts.Dir, rel)
	rec := Record{Original: filepath.ToSlash(rel)}

	if _, err := os.Stat(full); err != nil {
		rec.Error = err.Error()
		log.Errorf("ERROR %s: %v", rel, err)
		return rec
	}

	srcDir := filepath.Dir(full)
	res, _ := r.p.Identify(ctx, full, srcDir)
	rec.Score = res.Score
	if !res.Matched() {
		log.Infof("NO MATCH %s (score: %d)", rel, res.Score)
		return rec
	}
	item := res.ItemID
	rec.Item = &item

	targetDir := r.opts.Output
	if targetDir == "" {
		targetDir = srcDir
	}
	ext := filepath.Ext(full)
	if sameDir(targetDir, srcDir) && alreadyNamed(filepath.Base(full), item, ext) {
		name := filepath.Base(full)
		rec.New = &name
		log.Infof("KEEP %s already named for %s (score: %d)", rel, item, res.Score)
		return rec
	}

	target, err := assets.NextFreePath(targetDir, item, ext)
	if err != nil {
		rec.Error = err.Error()
		log.Errorf("ERROR %s: %v", rel, err)
		return rec
	}
	name := filepath.Base(target)
	if r.opts.DryRun {
		rec.New = &name
		log.Infof("DRY %s -> %s (%s, score: %d)", rel, name, item, res.Score)
		return rec
	}
	if err := assets.Move(full, target); err != nil {
		rec.Error = fmt.Sprintf("rename: %v", err)
		log.Errorf("ERROR %s: rename to %s: %v", rel, name, err)
		return rec
	}
	r.produced[target] = struct{}{}
	rec.New = &name
	log.Infof("RENAMED %s -> %s (score: %d)", rel, name, res.Score)
	return rec
}

// WriteReport overwrites <dir>/identification_results.json with the records so far.
func (r *Runner) WriteReport() error {
	return WriteReport(filepath.Join(r.opts.Dir, ReportName), r.summary.Records)
}

// WriteReport writes records as an indented JSON array.
func WriteReport(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) ([]Record, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var out []Record
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return out, nil
}

var suffixRE = regexp.MustCompile(`^_\d+$`)

// alreadyNamed reports whether name is <id><ext> or <id>_<N><ext>.
func alreadyNamed(name, id, ext string) bool {
	stem, ok := strings.CutSuffix(name, ext)
	if !ok {
		return false
	}
	rest, ok := strings.CutPrefix(stem, id)
	if !ok {
		return false
	}
	return rest == "" || suffixRE.MatchString(rest)
}

func sameDir(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}
