package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"leetdrip/internal/storage"
	logx "leetdrip/pkg/logx"
)

// Watcher re-imports the catalog file when it changes, so problems can be
// added to a running scheduler without a restart. Removing entries from the
// file never removes them from storage.
type Watcher struct {
	store storage.Store
	path  string
	log   logx.Logger
}

func NewWatcher(st storage.Store, path string, log logx.Logger) *Watcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Watcher{store: st, path: path, log: log}
}

// Run blocks until ctx is cancelled. The watcher survives fsnotify breakage
// by recreating itself with backoff; editors that replace the file via rename
// are handled by watching the directory and matching the basename.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)

	const (
		backoffBase = 250 * time.Millisecond
		backoffMax  = 5 * time.Second
	)
	backoff := backoffBase

	// debounce to avoid importing partial writes
	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reimport := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(250*time.Millisecond, func() {
			ictx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, _, err := ImportFile(ictx, w.store, w.path, w.log); err != nil {
				w.log.Warn("catalog reimport failed", logx.String("path", w.path), logx.Err(err))
			}
		})
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		fw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fw.Add(dir)
			if err != nil {
				_ = fw.Close()
			}
		}
		if err != nil {
			w.log.Warn("catalog watch init failed", logx.Err(err), logx.String("dir", dir))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < backoffMax {
				backoff *= 2
			}
			continue
		}
		backoff = backoffBase
		w.log.Debug("catalog watcher started", logx.String("dir", dir), logx.String("file", file))

		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = fw.Close()
				return nil
			case ev, ok := <-fw.Events:
				if !ok {
					broken = true
					break
				}
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					reimport()
				}
			case werr, ok := <-fw.Errors:
				if !ok {
					broken = true
					break
				}
				if werr == nil {
					continue
				}
				w.log.Warn("catalog watch error", logx.Err(werr), logx.String("dir", dir))
				if strings.Contains(strings.ToLower(werr.Error()), "closed") {
					broken = true
				}
			}
		}

		_ = fw.Close()
		if ctx.Err() != nil {
			return nil
		}
		w.log.Warn("catalog watcher stopped; restarting", logx.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		if backoff < backoffMax {
			backoff *= 2
		}
	}
}
