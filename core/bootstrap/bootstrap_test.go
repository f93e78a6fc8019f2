package bootstrap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/lessonbot/core/config"
	"github.com/m3rciful/lessonbot/internal/schedule"
	"github.com/m3rciful/lessonbot/internal/session"
	"github.com/m3rciful/lessonbot/internal/store"
)

func noLogger(*coreconfig.Config) error { return nil }

func fileStore(dir string) func(context.Context, *coreconfig.Config) (store.Backend, error) {
	return func(context.Context, *coreconfig.Config) (store.Backend, error) {
		return store.NewFileBackend(dir)
	}
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunImportsIntoEmptyDatasets(t *testing.T) {
	importDir := t.TempDir()
	writeFile(t, importDir, "schedule.json", `{"7": {"Понеділок": ["Математика"]}}`)
	writeFile(t, importDir, "bells.json", `{"1": "08:00-08:45"}`)

	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{ImportDir: importDir}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		OpenStore:  fileStore(t.TempDir()),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Close()

	ctx := context.Background()
	sched, err := store.Read[schedule.ClassSchedule](ctx, res.Datasets, store.Schedules)
	if err != nil {
		t.Fatal(err)
	}
	if got := sched.DayLessons("7", "Понеділок"); len(got) != 1 || got[0] != "Математика" {
		t.Fatalf("lessons = %v", got)
	}
	bells, err := store.Read[schedule.BellTimetable](ctx, res.Datasets, store.Bells)
	if err != nil {
		t.Fatal(err)
	}
	if bells["1"] != "08:00-08:45" {
		t.Fatalf("bells = %v", bells)
	}
	students, err := store.Read[session.Students](ctx, res.Datasets, store.Students)
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 0 {
		t.Fatalf("students = %v", students)
	}
}

func TestImportKeepsExistingData(t *testing.T) {
	storeDir := t.TempDir()
	writeFile(t, storeDir, "bells.json", `{"1": "09:00-09:45"}`)
	importDir := t.TempDir()
	writeFile(t, importDir, "bells.json", `{"1": "08:00-08:45"}`)

	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{ImportDir: importDir}}
	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		OpenStore:  fileStore(storeDir),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	defer res.Close()

	bells, err := store.Read[schedule.BellTimetable](context.Background(), res.Datasets, store.Bells)
	if err != nil {
		t.Fatal(err)
	}
	if bells["1"] != "09:00-09:45" {
		t.Fatalf("existing bells overwritten: %v", bells)
	}
}

func TestRunFailsOnBrokenImport(t *testing.T) {
	importDir := t.TempDir()
	writeFile(t, importDir, "students.json", `[1, 2]`)

	cfg := &coreconfig.Config{Storage: coreconfig.StorageConfig{ImportDir: importDir}}
	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		OpenStore:  fileStore(t.TempDir()),
	})
	if err == nil {
		t.Fatal("expected error for undecodable import")
	}
}

func TestRunPropagatesSeederAndLoggerErrors(t *testing.T) {
	boom := errors.New("boom")
	cfg := &coreconfig.Config{}

	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: func(*coreconfig.Config) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("logger err = %v", err)
	}

	_, err = Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		OpenStore:  fileStore(t.TempDir()),
		Modules: Modules{Seeders: []Seeder{
			SeederFunc(func(context.Context, *store.Datasets) error { return boom }),
		}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("seeder err = %v", err)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
