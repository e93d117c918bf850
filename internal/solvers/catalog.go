// Package solvers хранит каталог текстов solver, доступных оператору.
//
// Каталог — директория с файлами *.solve; имя solver совпадает с именем
// файла без расширения. Каталог перечитывается при изменении файлов
// (fsnotify), так что новый solver можно положить рядом с координатором
// и сразу выполнить reset по имени.
package solvers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/shaiso/Coldcluster/internal/engine"
)

// Extension — расширение файлов solver.
const Extension = ".solve"

const defaultDebounce = 200 * time.Millisecond

var (
	// ErrNotFound — solver с таким именем нет в каталоге.
	ErrNotFound = errors.New("solver not found")

	// ErrInvalid — файл есть, но не разбирается как solver.
	ErrInvalid = errors.New("invalid solver file")
)

// Solver — запись каталога.
//
// Файлы с ошибкой разбора остаются в каталоге с заполненным Error,
// чтобы оператор видел, почему solver недоступен для reset.
type Solver struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Total int64  `json:"total"`
	Error string `json:"error,omitempty"`
}

// Valid возвращает true, если solver можно загрузить.
func (s Solver) Valid() bool {
	return s.Error == ""
}

// Catalog — потокобезопасный каталог solver.
type Catalog struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	solvers map[string]Solver
}

// NewCatalog создаёт пустой каталог для директории dir. Файлы читает Load.
func NewCatalog(dir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}

	return &Catalog{
		dir:      dir,
		debounce: defaultDebounce,
		logger:   logger,
		solvers:  make(map[string]Solver),
	}
}

// Dir возвращает директорию каталога.
func (c *Catalog) Dir() string {
	return c.dir
}

// Load перечитывает директорию.
//
// Файлы, которые не разбираются как solver, попадают в каталог с Error.
// При ошибке чтения директории прежнее содержимое сохраняется.
func (c *Catalog) Load() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read solvers dir %s: %w", c.dir, err)
	}

	loaded := make(map[string]Solver, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != Extension {
			continue
		}

		path := filepath.Join(c.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Warn("failed to read solver", "path", path, "error", err)
			continue
		}

		name := strings.TrimSuffix(entry.Name(), Extension)

		spec, err := engine.Parse(string(data))
		if err != nil {
			c.logger.Warn("invalid solver", "path", path, "error", err)
			loaded[name] = Solver{Name: name, Text: string(data), Error: err.Error()}
			continue
		}

		loaded[name] = Solver{Name: name, Text: spec.Text, Total: spec.Total}
	}

	c.mu.Lock()
	c.solvers = loaded
	c.mu.Unlock()

	c.logger.Debug("solver catalog loaded", "dir", c.dir, "count", len(loaded))
	return nil
}

// List возвращает solver, отсортированные по имени.
func (c *Catalog) List() []Solver {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Solver, 0, len(c.solvers))
	for _, s := range c.solvers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get возвращает пригодный для reset solver по имени.
func (c *Catalog) Get(name string) (Solver, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.solvers[name]
	if !ok {
		return Solver{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !s.Valid() {
		return s, fmt.Errorf("%w %s: %s", ErrInvalid, name, s.Error)
	}
	return s, nil
}

// Watch перечитывает каталог при изменениях в директории, пока ctx не отменён.
// Серия событий схлопывается в одну перезагрузку.
func (c *Catalog) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.dir, err)
	}

	c.logger.Info("watching solver catalog", "dir", c.dir)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != Extension {
				continue
			}
			resetTimer(timer, c.debounce)

		case <-timer.C:
			if err := c.Load(); err != nil {
				c.logger.Warn("failed to reload solver catalog", "error", err)
				continue
			}
			c.logger.Info("solver catalog reloaded", "count", len(c.List()))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("solver watcher error", "error", err)
		}
	}
}

func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
