// Package compress shrinks a directory of renders for the web.
package compress

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/panjf2000/ants/v2"

	"shakeassets/pkg/assets"
	"shakeassets/pkg/logging"
)

// Options controls a run.
type Options struct {
	Input    string
	Output   string
	Compress assets.CompressOptions
	// Workers is the pool size; zero means one per CPU.
	Workers int
}

// Failure is a file that could not be compressed.
type Failure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Summary lists results in input order.
type Summary struct {
	Output   string                  `json:"output"`
	Results  []assets.CompressResult `json:"results"`
	Failures []Failure               `json:"failures,omitempty"`
	Before   int64                   `json:"original_total"`
	After    int64                   `json:"compressed_total"`
}

// Reduction is the overall saved share in percent.
func (s *Summary) Reduction() float64 {
	return assets.CompressResult{Before: s.Before, After: s.After}.Reduction()
}

// Print writes the totals block.
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Compression complete: %d files, %d failed\n", len(s.Results), len(s.Failures))
	fmt.Fprintf(w, "Total original size: %s\n", humanize.Bytes(uint64(s.Before)))
	fmt.Fprintf(w, "Total compressed size: %s\n", humanize.Bytes(uint64(s.After)))
	fmt.Fprintf(w, "Total reduction: %.1f%%\n", s.Reduction())
	fmt.Fprintf(w, "Files saved to: %s\n", s.Output)
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

// outputNames maps each input to a distinct output name. Inputs sharing a stem
// (shake.png, shake.jpg) get _N suffixes in input order.
func outputNames(files []string, f assets.Format) []string {
	used := make(map[string]bool, len(files))
	out := make([]string, len(files))
	for i, name := range files {
		base := assets.OutputName(name, f)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		cand := base
		for n := 1; used[strings.ToLower(cand)]; n++ {
			cand = fmt.Sprintf("%s_%d%s", stem, n, ext)
		}
		used[strings.ToLower(cand)] = true
		out[i] = cand
	}
	return out
}

type outcome struct {
	res assets.CompressResult
	err error
	ran bool
}

// Run compresses the top-level images of opts.Input into opts.Output. Files already
// submitted finish when ctx is cancelled; the rest are skipped.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	log := logging.L()
	files, err := assets.ListImages(opts.Input, false)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if opts.Output == "" {
		opts.Output = filepath.Join(opts.Input, "compressed")
	}
	copts := opts.Compress
	if copts.Format == "" {
		copts.Format = assets.JPEG
	}
	log.Infof("Found %d images to compress (workers=%d, quality=%d, max=%dx%d)",
		len(files), effectiveWorkers(opts.Workers), copts.Quality, copts.MaxWidth, copts.MaxHeight)

	outputs := outputNames(files, copts.Format)
	outcomes := make([]outcome, len(files))
	var wg sync.WaitGroup
	pool, err := ants.NewPool(effectiveWorkers(opts.Workers))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	for i, name := range files {
		if ctx.Err() != nil {
			log.Warnf("interrupted; %d files not submitted", len(files)-i)
			break
		}
		wg.Add(1)
		src := filepath.Join(opts.Input, name)
		dst := filepath.Join(opts.Output, outputs[i])
		if err := pool.Submit(func() {
			defer wg.Done()
			res, err := assets.Compress(src, dst, copts)
			outcomes[i] = outcome{res: res, err: err, ran: true}
			if err != nil {
				log.Errorf("Compressing %s: %v", name, err)
				return
			}
			log.Infof("Compressing %s: %s -> %s (%.1f%% reduction)",
				name, humanize.Bytes(uint64(res.Before)), humanize.Bytes(uint64(res.After)), res.Reduction())
		}); err != nil {
			wg.Done()
			outcomes[i] = outcome{err: err, ran: true}
		}
	}
	wg.Wait()

	sum := &Summary{Output: opts.Output, Results: []assets.CompressResult{}}
	for i, o := range outcomes {
		if !o.ran {
			continue
		}
		if o.err != nil {
			sum.Failures = append(sum.Failures, Failure{File: files[i], Error: o.err.Error()})
			continue
		}
		sum.Results = append(sum.Results, o.res)
		sum.Before += o.res.Before
		sum.After += o.res.After
	}
	return sum, nil
}
