package hotfolder

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"
)

type watchWorker struct {
	*worker.BaseWorker
	folder    *Folder
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	ready     atomic.Bool
}

func (f *Folder) newWorker() *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("hotfolder"),
		folder:     f,
	}
}

// Worker returns a fresh worker for f, suitable for a supervisor Factory.
func (f *Folder) Worker() worker.Worker {
	return f.newWorker()
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("hot folder already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := addTree(watcher, w.folder.config.Dir); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.folder.config.Debounce)
	w.ready.Store(true)
	w.folder.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if w.folder.config.ScanExisting {
		w.scanExisting(runCtx)
	}

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

// watcherReady reports whether Start has installed the fsnotify watcher.
func (w *watchWorker) watcherReady() bool {
	return w.ready.Load()
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"dir":               w.folder.config.Dir,
		}
	})
}

// addTree watches dir and every non hidden directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && len(d.Name()) > 0 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// scanExisting ingests the files present before the watch started, in a
// tracked goroutine so Start does not block on the repository.
func (w *watchWorker) scanExisting(ctx context.Context) {
	f := w.folder
	lifecycle.Go(ctx, func(ctx context.Context) error {
		events, err := f.Scan(ctx)
		for _, e := range events {
			w.send(ctx, e)
		}
		if err != nil {
			f.logger.Error("initial scan failed", "error", err)
		}
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		if f.config.ErrorHandler != nil {
			f.config.ErrorHandler(fmt.Errorf("initial scan panic: %w", err))
		} else {
			f.logger.Error("initial scan panic", "error", err)
		}
	}))
}

func (w *watchWorker) send(ctx context.Context, e Event) {
	select {
	case w.folder.events <- e:
	case <-ctx.Done():
	}
}

// processEvent filters an fsnotify event and schedules the ingest of the
// file it names once writes to it settle.
func (w *watchWorker) processEvent(ctx context.Context, event fsnotify.Event) bool {
	f := w.folder
	f.logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	rel, ok := f.relative(event.Name)
	if !ok || hidden(rel) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addTree(w.watcher, event.Name); err != nil {
				w.handleWatcherError(err)
				return false
			}
			// A new directory may already hold files.
			w.scanExisting(ctx)
			return true
		}
	}
	if _, ok := f.rule(rel); !ok {
		return false
	}

	w.debouncer.add(rel, func() {
		if e, ok := f.ingest(ctx, rel); ok {
			w.send(ctx, e)
		}
	})
	return true
}

func (w *watchWorker) handleWatcherError(err error) {
	f := w.folder
	f.logger.Error("fsnotify error", "error", err)
	if f.config.ErrorHandler != nil {
		f.config.ErrorHandler(err)
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	f := w.folder
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("hot folder panic: %v", recovered)
			if f.logger.Enabled(ctx, slog.LevelDebug) {
				f.logger.Error("hot folder panic", "error", err, "stack", string(debug.Stack()))
			} else {
				f.logger.Error("hot folder panic", "error", err)
			}
		}
	}()
	defer f.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	if !w.debouncer.stopAndWait(5 * time.Second) {
		f.logger.Warn("pending ingests did not finish before shutdown")
	}
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
