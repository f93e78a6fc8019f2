//go:build integration

package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/lessonbot/core/database"
	"github.com/m3rciful/lessonbot/internal/store"
)

func TestPostgresBackendRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, `DELETE FROM datasets WHERE name = $1`, string(store.Schedules)); err != nil {
		t.Fatal(err)
	}

	b := store.NewPostgresBackend(db)
	defer b.Close()

	first, err := b.Load(ctx, store.Schedules)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if string(first) != "{}" {
		t.Fatalf("first = %s", first)
	}

	doc := `{"7": {"Вівторок": ["Історія"], "Понеділок": ["Алгебра"]}}`
	if err := b.Save(ctx, store.Schedules, []byte(doc)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := b.Load(ctx, store.Schedules)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(got) != doc {
		t.Fatalf("json column must keep the document verbatim, got %s", got)
	}
}
