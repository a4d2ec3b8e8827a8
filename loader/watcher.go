package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"voicerag/types"
)

// Watcher ingests files dropped into a source directory. A file is picked up
// once it has been visible for the settle time; afterwards it is moved to the
// dated archive directory on success or to the bad directory on failure.
type Watcher struct {
	cfg      types.LoaderConfig
	loader   *Loader
	logger   *zap.Logger
	interval time.Duration

	mu         sync.Mutex
	firstSeen  map[string]time.Time
	processing map[string]bool
}

func NewWatcher(cfg types.LoaderConfig, l *Loader, logger *zap.Logger) (*Watcher, error) {
	for _, dir := range []string{cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		cfg:        cfg,
		loader:     l,
		logger:     logger,
		interval:   time.Second,
		firstSeen:  make(map[string]time.Time),
		processing: make(map[string]bool),
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("watching folder", zap.String("dir", w.cfg.SourceDir))

	files := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(files)
		w.watch(ctx, files)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for path := range files {
			w.process(ctx, path)
		}
	}()

	wg.Wait()
	w.logger.Info("folder watcher stopped")
}

func (w *Watcher) watch(ctx context.Context, files chan<- string) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range w.ready() {
				select {
				case files <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// ready scans the source directory once and returns files that have settled.
func (w *Watcher) ready() []string {
	entries, err := os.ReadDir(w.cfg.SourceDir)
	if err != nil {
		w.logger.Warn("read source directory", zap.Error(err))
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	current := make(map[string]bool, len(entries))
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(w.cfg.SourceDir, e.Name())
		current[path] = true

		if w.processing[path] {
			continue
		}
		first, ok := w.firstSeen[path]
		if !ok {
			w.firstSeen[path] = time.Now()
			w.logger.Debug("new file detected", zap.String("path", path))
			continue
		}
		if time.Since(first) >= w.cfg.SettleTime {
			w.processing[path] = true
			out = append(out, path)
		}
	}

	for path := range w.firstSeen {
		if !current[path] {
			delete(w.firstSeen, path)
			delete(w.processing, path)
		}
	}
	return out
}

func (w *Watcher) process(ctx context.Context, path string) {
	defer func() {
		w.mu.Lock()
		delete(w.processing, path)
		delete(w.firstSeen, path)
		w.mu.Unlock()
	}()

	n, err := w.loader.IngestFile(ctx, path)
	if ctx.Err() != nil {
		// Leave the file in place so the next run picks it up again.
		return
	}

	dest := w.cfg.ArchiveDir
	if err != nil {
		dest = w.cfg.BadDir
		w.logger.Error("file rejected", zap.String("path", path), zap.Error(err))
	}
	moved, mvErr := moveInto(dest, path, time.Now())
	if mvErr != nil {
		w.logger.Error("move file", zap.String("path", path), zap.Error(mvErr))
		return
	}
	if err == nil {
		w.logger.Info("file archived", zap.String("path", moved), zap.Int("chunks", n))
	}
}

// moveInto moves path into dir/<YYYY-MM-DD>/, suffixing _N on name clashes.
func moveInto(dir, path string, now time.Time) (string, error) {
	destDir := filepath.Join(dir, now.Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dest := filepath.Join(destDir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
	return dest, os.Rename(path, dest)
}
