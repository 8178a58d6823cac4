package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/portwatch/internal/domain"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher re-reads the target file whenever it changes on disk and hands the
// new list to OnReload. It watches the parent directory so that editors which
// save by rename, and atomic replace-by-rename deploys, are still seen.
type Watcher struct {
	Path     string
	Debounce time.Duration
	OnReload func([]domain.RawTarget)

	logger *zap.Logger
	fsw    *fsnotify.Watcher
}

func NewWatcher(path string, logger *zap.Logger, onReload func([]domain.RawTarget)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return nil, multierr.Append(fmt.Errorf("watch %s: %w", filepath.Dir(abs), err), fsw.Close())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		Path:     abs,
		Debounce: defaultDebounce,
		OnReload: onReload,
		logger:   logger,
		fsw:      fsw,
	}, nil
}

// Run blocks until ctx is done. Bursts of events within Debounce collapse
// into one reload. A file that fails to read or parse is logged and skipped,
// leaving the previous target list in effect.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.Path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			timerC = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config_watch_error", zap.Error(err))
		case <-timerC:
			timerC = nil
			w.reload()
		}
	}
}

// Close releases the watcher without running it. Run closes it on return.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) reload() {
	raws, err := LoadTargets(w.Path)
	if err != nil {
		w.logger.Warn("config_reload_failed", zap.String("path", w.Path), zap.Error(err))
		return
	}
	w.logger.Info("config_changed", zap.String("path", w.Path), zap.Int("servers", len(raws)))
	if w.OnReload != nil {
		w.OnReload(raws)
	}
}
