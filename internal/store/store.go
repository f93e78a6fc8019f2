// Package store persists the bot's named datasets and serializes access to them.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/apperr"
)

// Name identifies a dataset.
type Name string

const (
	Students  Name = "students"
	Schedules Name = "schedule"
	Bells     Name = "bells"
)

// Backend loads and saves raw JSON documents.
//
// Load returns "{}" and durably creates the document when it does not exist yet.
// Save replaces the whole document; readers never observe a partial write.
type Backend interface {
	Load(ctx context.Context, name Name) ([]byte, error)
	Save(ctx context.Context, name Name, data []byte) error
	Close() error
}

// Datasets guards a Backend with one RWMutex per dataset name.
type Datasets struct {
	backend Backend

	mu    sync.Mutex
	locks map[Name]*sync.RWMutex
}

// New wraps backend with per-dataset locking.
func New(backend Backend) *Datasets {
	return &Datasets{
		backend: backend,
		locks:   make(map[Name]*sync.RWMutex),
	}
}

func (d *Datasets) lock(name Name) *sync.RWMutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[name]
	if !ok {
		l = &sync.RWMutex{}
		d.locks[name] = l
	}
	return l
}

// Close releases the backend.
func (d *Datasets) Close() error {
	return d.backend.Close()
}

// Read loads and decodes a dataset under its read lock.
func Read[T any](ctx context.Context, d *Datasets, name Name) (T, error) {
	l := d.lock(name)
	l.RLock()
	defer l.RUnlock()
	return load[T](ctx, d, name)
}

// Update runs a load-mutate-save cycle under the dataset's write lock.
// Nothing is saved when fn fails; its error is returned unchanged.
func Update[T any](ctx context.Context, d *Datasets, name Name, fn func(*T) error) error {
	l := d.lock(name)
	l.Lock()
	defer l.Unlock()

	v, err := load[T](ctx, d, name)
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return save(ctx, d, name, v)
}

// Write replaces a dataset wholesale under its write lock.
func Write[T any](ctx context.Context, d *Datasets, name Name, v T) error {
	l := d.lock(name)
	l.Lock()
	defer l.Unlock()
	return save(ctx, d, name, v)
}

func load[T any](ctx context.Context, d *Datasets, name Name) (T, error) {
	var v T
	start := time.Now()
	raw, err := d.backend.Load(ctx, name)
	if err != nil {
		logFailure(ctx, "load.failed", name, err)
		return v, apperr.New(apperr.DatasetUnavailable, "store.load "+string(name), err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		logFailure(ctx, "decode.failed", name, err)
		return v, apperr.New(apperr.DatasetUnavailable, "store.decode "+string(name), err)
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "store", "load",
			slog.String("dataset", string(name)),
			slog.Int("bytes", len(raw)),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return v, nil
}

func save[T any](ctx context.Context, d *Datasets, name Name, v T) error {
	start := time.Now()
	raw, err := Encode(v)
	if err != nil {
		return apperr.New(apperr.DatasetUnavailable, "store.encode "+string(name), err)
	}
	if err := d.backend.Save(ctx, name, raw); err != nil {
		logFailure(ctx, "save.failed", name, err)
		return apperr.New(apperr.DatasetUnavailable, "store.save "+string(name), err)
	}
	logger.Info(ctx, "store", "save",
		slog.String("status", "ok"),
		slog.String("dataset", string(name)),
		slog.Int("bytes", len(raw)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

func logFailure(ctx context.Context, event string, name Name, err error) {
	logger.Error(ctx, "store", event,
		slog.String("status", "fail"),
		slog.String("dataset", string(name)),
		slog.String("err", err.Error()),
		slog.String("err_code", string(apperr.DatasetUnavailable)),
	)
}

// Encode renders v the way datasets are stored: 4-space indent, non-ASCII kept verbatim.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
