package store

import (
	"context"
	"errors"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/m3rciful/lessonbot/internal/apperr"
)

func TestFileBackendFirstTouchCreatesEmptyDocument(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	data, err := b.Load(context.Background(), Bells)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "{}" {
		t.Fatalf("data = %q", data)
	}
	onDisk, err := os.ReadFile(b.Path(Bells))
	if err != nil {
		t.Fatalf("expected file to be created: %v", err)
	}
	if string(onDisk) != "{}" {
		t.Fatalf("on disk = %q", onDisk)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := New(b)
	ctx := context.Background()

	in := map[string]string{"1": "08:00-08:45", "2": "08:55-09:40", "10": "16:00"}
	if err := Write(ctx, d, Bells, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := Read[map[string]string](ctx, d, Bells)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %v != %v", in, out)
	}
}

func TestEncodeKeepsUnicodeAndIndent(t *testing.T) {
	raw, err := Encode(map[string][]string{"Понеділок": {"Математика & фізика"}})
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    \"Понеділок\": [\n        \"Математика & фізика\"\n    ]\n}"
	if string(raw) != want {
		t.Fatalf("encoded = %q", raw)
	}
}

type failingBackend struct {
	loadErr error
	saveErr error
	data    []byte
	saves   int
}

func (f *failingBackend) Load(context.Context, Name) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.data == nil {
		return []byte("{}"), nil
	}
	return f.data, nil
}

func (f *failingBackend) Save(_ context.Context, _ Name, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.data = data
	return nil
}

func (f *failingBackend) Close() error { return nil }

func TestFailuresSurfaceAsDatasetUnavailable(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{loadErr: errors.New("io error")}
	d := New(backend)

	if _, err := Read[map[string]string](ctx, d, Students); !errors.Is(err, apperr.ErrDatasetUnavailable) {
		t.Fatalf("read err = %v", err)
	}

	backend.loadErr = nil
	backend.saveErr = errors.New("disk full")
	err := Update(ctx, d, Students, func(m *map[string]string) error {
		(*m)["1"] = "x"
		return nil
	})
	if !errors.Is(err, apperr.ErrDatasetUnavailable) {
		t.Fatalf("update err = %v", err)
	}

	backend.data = []byte("not json")
	backend.saveErr = nil
	if _, err := Read[map[string]string](ctx, d, Students); !errors.Is(err, apperr.ErrDatasetUnavailable) {
		t.Fatalf("decode err = %v", err)
	}
}

func TestUpdateSkipsSaveWhenMutationFails(t *testing.T) {
	backend := &failingBackend{}
	d := New(backend)
	boom := errors.New("boom")
	err := Update(context.Background(), d, Schedules, func(*map[string]any) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if backend.saves != 0 {
		t.Fatalf("saves = %d", backend.saves)
	}
}

func TestUpdateSerializesWriters(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := New(b)
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := Update(ctx, d, Students, func(m *map[string]int) error {
				if *m == nil {
					*m = map[string]int{}
				}
				(*m)["n"]++
				return nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := Read[map[string]int](ctx, d, Students)
	if err != nil {
		t.Fatal(err)
	}
	if got["n"] != writers {
		t.Fatalf("n = %d, want %d", got["n"], writers)
	}
}
