package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/schedule"
	"github.com/m3rciful/lessonbot/internal/session"
	"github.com/m3rciful/lessonbot/internal/store"
)

// Seeder loads reference data into the datasets before the bot starts.
type Seeder interface {
	Seed(ctx context.Context, datasets *store.Datasets) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, datasets *store.Datasets) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, datasets *store.Datasets) error {
	return f(ctx, datasets)
}

// Modules groups optional bootstrapping hooks.
type Modules struct {
	Seeders []Seeder
}

var errNotEmpty = errors.New("dataset not empty")

// ImportSeeder copies <dir>/<name>.json into each dataset that is still empty.
// Missing files are skipped; a file that does not decode fails the startup.
func ImportSeeder(dir string) Seeder {
	return SeederFunc(func(ctx context.Context, d *store.Datasets) error {
		if err := importDataset[session.Students](ctx, d, dir, store.Students); err != nil {
			return err
		}
		if err := importDataset[schedule.ClassSchedule](ctx, d, dir, store.Schedules); err != nil {
			return err
		}
		return importDataset[schedule.BellTimetable](ctx, d, dir, store.Bells)
	})
}

func importDataset[T ~map[string]V, V any](ctx context.Context, d *store.Datasets, dir string, name store.Name) error {
	path := filepath.Join(dir, string(name)+".json")
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	var incoming T
	if err := json.Unmarshal(raw, &incoming); err != nil {
		return fmt.Errorf("import %s: decode %s: %w", name, path, err)
	}

	err = store.Update(ctx, d, name, func(cur *T) error {
		if len(*cur) > 0 {
			return errNotEmpty
		}
		*cur = incoming
		return nil
	})
	if errors.Is(err, errNotEmpty) {
		logger.Info(ctx, "store", "import",
			slog.String("status", "skip"),
			slog.String("dataset", string(name)),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("import %s: %w", name, err)
	}
	logger.Info(ctx, "store", "import",
		slog.String("status", "ok"),
		slog.String("dataset", string(name)),
		slog.Int("entries", len(incoming)),
	)
	return nil
}
