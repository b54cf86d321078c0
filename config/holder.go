package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/domain/router"
)

// builtTree pairs a compiled service tree with the config it came
// from, so Holder can report on the running config without forcing
// every caller to rebuild it.
type builtTree struct {
	root router.ServiceHandler
	cfg  *Config
}

// Holder owns the currently-live compiled service tree and keeps it
// current via file watch or SIGHUP, without ever swapping in a tree
// that failed to load or compile.
type Holder struct {
	tree atomic.Pointer[builtTree]

	path     string
	logger   zerolog.Logger
	metrics  *metrics.Collector
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	stopCh   chan struct{}
}

// NewHolder loads and compiles the configuration at path and wraps it.
// m records config reload counts/timestamps and is threaded into the
// compiled tree's Forward adapters for upstream metrics; it may be nil.
func NewHolder(path string, logger zerolog.Logger, m *metrics.Collector) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	root, err := Build(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("build service tree: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	h := &Holder{
		path:    absPath,
		logger:  logger,
		metrics: m,
		stopCh:  make(chan struct{}),
	}
	h.tree.Store(&builtTree{root: root, cfg: cfg})

	return h, nil
}

// Root returns the currently-live service tree's entry point.
func (h *Holder) Root() router.ServiceHandler {
	return h.tree.Load().root
}

// Config returns the configuration the currently-live tree was built
// from.
func (h *Holder) Config() *Config {
	return h.tree.Load().cfg
}

// Reload re-reads and recompiles the configuration from disk. On any
// failure the previously-loaded tree keeps serving.
func (h *Holder) Reload() error {
	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	cfg, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		h.recordReloadError()
		return fmt.Errorf("reload config: %w", err)
	}
	root, err := Build(cfg, h.metrics)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		h.recordReloadError()
		return fmt.Errorf("rebuild service tree: %w", err)
	}

	old := h.tree.Load()
	h.tree.Store(&builtTree{root: root, cfg: cfg})

	h.logChanges(old.cfg, cfg)

	for _, fn := range h.onChange {
		fn(cfg)
	}

	if h.metrics != nil {
		h.metrics.ConfigReloads.Inc()
		h.metrics.ConfigLastReload.Set(float64(time.Now().Unix()))
	}

	h.logger.Info().Msg("configuration reloaded successfully")
	return nil
}

func (h *Holder) recordReloadError() {
	if h.metrics != nil {
		h.metrics.ConfigReloadErrors.Inc()
	}
}

// OnChange registers a callback invoked after each successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.onChange = append(h.onChange, fn)
}

// WatchFile starts watching the config file's directory for changes
// (directory, not the file itself, so editors that save atomically
// via rename still trigger a reload).
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops watching for file changes and signals.
func (h *Holder) Stop() {
	close(h.stopCh)
	if h.watcher != nil {
		h.watcher.Close()
	}
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("config file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(old, new *Config) {
	if old.HTTPServer.Bind != new.HTTPServer.Bind {
		h.logger.Info().
			Str("old", old.HTTPServer.Bind).
			Str("new", new.HTTPServer.Bind).
			Msg("listener bind address changed (takes effect on restart)")
	}

	oldRules := countRules(&old.HTTPServer.Service)
	newRules := countRules(&new.HTTPServer.Service)
	if oldRules != newRules {
		h.logger.Info().
			Int("old", oldRules).
			Int("new", newRules).
			Msg("router rule count changed")
	}
}

func countRules(svc *ServiceConfig) int {
	return CountRules(svc)
}

// CountRules walks a service's router chain (following Next) and
// totals up how many rules are configured across it.
func CountRules(svc *ServiceConfig) int {
	if svc.Handler != "router" {
		return 0
	}
	n := len(svc.Rules)
	if svc.Next != nil {
		n += CountRules(svc.Next)
	}
	return n
}
