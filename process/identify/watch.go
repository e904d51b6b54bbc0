package identify

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"shakeassets/pkg/assets"
	"shakeassets/pkg/logging"
)

const (
	watchTick   = 250 * time.Millisecond
	watchStable = 300 * time.Millisecond
)

// Watch processes files created in the directory until ctx is cancelled. A file is
// picked up once it has produced no events for watchStable. The report is rewritten
// after each file.
func (r *Runner) Watch(ctx context.Context) error {
	log := logging.L()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := r.addWatches(w); err != nil {
		return err
	}
	log.Infof("Watching %s (debounced) ...", r.opts.Dir)

	// simple debounce map of pending files
	pending := map[string]time.Time{}
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if r.opts.Recursive && ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					if err := r.addTree(w, ev.Name); err != nil {
						log.Warnf("watch %s: %v", ev.Name, err)
					}
					continue
				}
			}
			if !assets.IsSupportedExt(ev.Name) {
				continue
			}
			if _, ours := r.produced[ev.Name]; ours {
				continue
			}
			pending[ev.Name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for _, name := range readyFiles(pending, now) {
				delete(pending, name)
				if ctx.Err() != nil {
					return nil
				}
				rel, err := filepath.Rel(r.opts.Dir, name)
				if err != nil {
					log.Warnf("watch: %v", err)
					continue
				}
				if _, err := os.Stat(name); err != nil {
					// moved away before it settled
					continue
				}
				r.Process(ctx, rel)
				if err := r.WriteReport(); err != nil {
					log.Errorf("report: %v", err)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warnf("watch error: %v", err)
		}
	}
}

// readyFiles returns the pending files that have been quiet for watchStable, sorted.
func readyFiles(pending map[string]time.Time, now time.Time) []string {
	var out []string
	for name, t := range pending {
		if now.Sub(t) > watchStable {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Runner) addWatches(w *fsnotify.Watcher) error {
	if !r.opts.Recursive {
		return w.Add(r.opts.Dir)
	}
	return r.addTree(w, r.opts.Dir)
}

func (r *Runner) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != r.opts.Dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
