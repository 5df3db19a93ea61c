// Package watch observes vault directories and reports note changes.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/wikigraph/internal/checksum"
	"github.com/starford/wikigraph/internal/vault"
)

// Event kinds passed to EventCallback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called for every observed note change. rel is the
// slash-separated path of the note relative to vaultRoot.
type EventCallback func(kind, vaultRoot, rel string)

// watcher owns the digests of the notes it has seen. Only the Watch loop
// touches it.
type watcher struct {
	root   string
	policy *vault.Policy
	log    *slog.Logger
	cb     EventCallback
	fsw    *fsnotify.Watcher
	sums   map[string]string // rel -> sha256
}

// Watch starts an fsnotify watcher on vaultRoot and reports note changes
// until ctx is cancelled. Writes that leave a note's content unchanged are
// not reported. Hidden and ignored entries are never watched.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that reports notes that
// appeared or vanished without a matching event.
func Watch(ctx context.Context, vaultRoot string, policy *vault.Policy, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{
		root:   vaultRoot,
		policy: policy,
		log:    logger,
		cb:     cb,
		fsw:    fsw,
		sums:   make(map[string]string),
	}
	if err := fsw.Add(vaultRoot); err != nil {
		return err
	}
	w.addDirs(vaultRoot)
	for _, e := range vault.Notes(vaultRoot, policy) {
		if sum, err := checksum.SumFile(e.Path); err == nil {
			w.sums[e.Rel] = sum
		}
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot), slog.Int("notes", len(w.sums)))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped", slog.String("root", vaultRoot))
			return nil

		case <-reconcileCh:
			w.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				scheduleReconcile()
			}

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("root", vaultRoot), slog.String("error", watchErr.Error()))
		}
	}
}

// handle processes one fsnotify event and reports whether a reconciliation
// pass is needed.
func (w *watcher) handle(ev fsnotify.Event) bool {
	rel, ok := w.rel(ev.Name)
	if !ok || w.policy.ExcludedPath(rel) {
		return false
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.addDirs(ev.Name)
			w.log.Debug("watcher: watching new dir", slog.String("path", rel))
			// Notes may have landed in the directory before it was watched.
			w.reconcile()
			return false
		}
	}

	if !vault.IsNote(filepath.Base(ev.Name)) {
		// A removed or renamed folder takes its notes with it.
		return ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.refresh(rel, ev.Name)
		return false
	case ev.Op&fsnotify.Remove != 0:
		w.forget(rel)
		return false
	case ev.Op&fsnotify.Rename != 0:
		// fsnotify fires Rename on the old path only; the new path arrives
		// as a Create if it stays inside a watched dir.
		w.forget(rel)
		return true
	}
	return false
}

// refresh re-hashes a note and reports it when its content changed.
func (w *watcher) refresh(rel, abs string) {
	sum, err := checksum.SumFile(abs)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		}
		return
	}
	prev, known := w.sums[rel]
	if known && prev == sum {
		return
	}
	w.sums[rel] = sum
	kind := KindCreated
	if known {
		kind = KindUpdated
	}
	w.emit(kind, rel)
}

func (w *watcher) forget(rel string) {
	if _, ok := w.sums[rel]; !ok {
		return
	}
	delete(w.sums, rel)
	w.emit(KindDeleted, rel)
}

// reconcile compares the known notes with the vault on disk.
func (w *watcher) reconcile() {
	onDisk := make(map[string]string)
	for _, e := range vault.Notes(w.root, w.policy) {
		onDisk[e.Rel] = e.Path
	}
	for rel := range w.sums {
		if _, ok := onDisk[rel]; !ok {
			w.forget(rel)
		}
	}
	for rel, abs := range onDisk {
		w.refresh(rel, abs)
	}
}

func (w *watcher) emit(kind, rel string) {
	w.log.Debug("watcher: note changed", slog.String("path", rel), slog.String("op", kind))
	if w.cb != nil {
		w.cb(kind, w.root, rel)
	}
}

// addDirs adds every visible subdirectory of dir to the watcher.
func (w *watcher) addDirs(dir string) {
	_ = vault.Walk(w.root, w.policy, func(e vault.Entry) error {
		if e.Dir && withinDir(dir, e.Path) {
			w.addDir(e.Path)
		}
		return nil
	})
}

func (w *watcher) addDir(dir string) {
	if err := w.fsw.Add(dir); err != nil {
		w.log.Warn("watcher: add dir failed", slog.String("path", dir), slog.String("error", err.Error()))
	}
}

func (w *watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == "." {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || len(rel) > 2 && rel[:3] == "../" {
		return "", false
	}
	return rel, true
}

func withinDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}
