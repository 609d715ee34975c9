// Package watch re-runs a callback when manuscript files change. Bursts of
// events inside the debounce window are coalesced into one call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/fulmenhq/preprint/pkg/logger"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 500 * time.Millisecond

var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// Config configures a Watcher.
type Config struct {
	// BaseDir is watched recursively; empty means the working directory.
	BaseDir string
	// Exts selects files by extension ("tex", ".pdf"). Empty matches all.
	Exts []string
	// Ignore holds doublestar patterns relative to BaseDir.
	Ignore []string
	// Skip is consulted for every path not matched by Ignore.
	Skip     func(rel string, isDir bool) bool
	Debounce time.Duration
	// OnChange receives the sorted set of changed paths relative to BaseDir.
	OnChange func(ctx context.Context, changed []string) error
}

// Watcher watches a directory tree. Run may be called once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	baseDir  string
	exts     map[string]struct{}
	ignores  []string
	debounce time.Duration
	started  atomic.Bool
}

// New validates cfg and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", base, err)
	}

	ignores := append(append([]string(nil), defaultIgnores...), cfg.Ignore...)
	for _, pat := range ignores {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}

	exts := make(map[string]struct{}, len(cfg.Exts))
	for _, e := range cfg.Exts {
		if e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), ".")); e != "" {
			exts[e] = struct{}{}
		}
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{cfg: cfg, fsw: fsw, baseDir: abs, exts: exts, ignores: ignores, debounce: debounce}
	if err := w.addDirectories(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run dispatches debounced callbacks until ctx is cancelled. A change that
// arrives while the callback is running schedules another run.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		sort.Strings(changed)

		if err := w.cfg.OnChange(ctx, changed); err != nil {
			logger.Error("Rebuild failed", logger.Err(err))
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			logger.Warn("Closing watcher failed", logger.Err(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name, rel)
			}
			if !w.Matches(rel) {
				continue
			}
			logger.Debug("Change detected", logger.String("path", rel), logger.String("op", evt.Op.String()))

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("Watcher dropped events", logger.Err(err))
				continue
			}
			logger.Warn("Watcher error", logger.Err(err))
		}
	}
}

// Matches reports whether a file event at rel should trigger a rebuild.
func (w *Watcher) Matches(rel string) bool {
	if w.ignored(rel, false) {
		return false
	}
	if len(w.exts) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(rel), "."))
	_, ok := w.exts[ext]
	return ok
}

func (w *Watcher) ignored(rel string, isDir bool) bool {
	for _, pat := range w.ignores {
		if doublestar.MatchUnvalidated(pat, rel) {
			return true
		}
		if isDir && doublestar.MatchUnvalidated(pat, rel+"/") {
			return true
		}
	}
	return w.cfg.Skip != nil && w.cfg.Skip(rel, isDir)
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logger.Debug("Skipping unreadable path", logger.String("path", p), logger.Err(walkErr))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.baseDir, p)
		if err != nil {
			return nil //nolint:nilerr // unreachable for paths under baseDir
		}
		if rel != "." && w.ignored(filepath.ToSlash(rel), true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", w.baseDir, err)
	}
	return nil
}

func (w *Watcher) maybeAddDir(p, rel string) {
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() || w.ignored(rel, true) {
		return
	}
	if err := w.fsw.Add(p); err != nil {
		logger.Warn("Cannot watch new directory", logger.String("path", rel), logger.Err(err))
	}
}
