package server

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/entwire/entwire/internal/config"
	"github.com/entwire/entwire/internal/logger"
	"github.com/entwire/entwire/internal/metrics"
	"github.com/entwire/entwire/internal/runtime"
)

// Watcher recompiles the schema when entity sources change and swaps the
// result in atomically. Reloads are serialized through mu (single-writer
// discipline); a failed compilation leaves the previous schema serving.
type Watcher struct {
	cfg   config.Config
	state *runtime.State
	mu    sync.Mutex
}

// NewWatcher returns a watcher bound to the given state.
func NewWatcher(cfg config.Config, st *runtime.State) *Watcher {
	return &Watcher{cfg: cfg, state: st}
}

// Reload compiles the entity sources once and swaps them in on success.
func (w *Watcher) Reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, err := runtime.Compile(w.cfg.EntitiesPath, w.cfg.Auth)
	if err != nil {
		metrics.SchemaReloads.WithLabelValues("error").Inc()
		return err
	}
	w.state.Swap(c)
	metrics.SchemaReloads.WithLabelValues("ok").Inc()
	return nil
}

// Start watches the entities directory until ctx is done. Bursts of file
// events are folded into one reload.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.cfg.EntitiesPath); err != nil {
		fw.Close()
		return err
	}
	go func() {
		defer fw.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(500*time.Millisecond, func() {
					if err := w.Reload(); err != nil {
						logger.L.Error("schema reload rejected", "err", err)
						return
					}
					logger.L.Info("schema reloaded", "entities", len(w.state.Current().Schema.Entities))
				})
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.L.Error("watch entities", "err", err)
			}
		}
	}()
	return nil
}
