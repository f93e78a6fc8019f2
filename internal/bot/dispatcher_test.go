package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/m3rciful/lessonbot/internal/apperr"
	"github.com/m3rciful/lessonbot/internal/ingest"
	"github.com/m3rciful/lessonbot/internal/schedule"
	"github.com/m3rciful/lessonbot/internal/session"
	"github.com/m3rciful/lessonbot/internal/store"
)

const adminID = 955218726

type fixture struct {
	disp     *Dispatcher
	datasets *store.Datasets
	uploads  *ingest.Machine
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	d := store.New(b)
	sessions := session.NewManager(d, session.NewAllowList([]int64{adminID}), []string{"5", "6", "7", "8", "9"})
	monday := func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC) }
	resolver := schedule.NewResolver(d, time.UTC, monday)
	uploads := ingest.NewMachine(d)
	return fixture{disp: NewDispatcher(sessions, resolver, uploads), datasets: d, uploads: uploads}
}

func (f fixture) handle(t *testing.T, u User, a Action) (Reply, error) {
	t.Helper()
	return f.disp.Handle(context.Background(), u, a)
}

func staticFile(body string) Action {
	return FileAction(FileRef{Name: "upload.json", Size: int64(len(body)), Fetch: func(context.Context) ([]byte, error) {
		return []byte(body), nil
	}})
}

func hasButton(rows [][]Button, unique string) bool {
	for _, row := range rows {
		for _, b := range row {
			if b.Unique == unique {
				return true
			}
		}
	}
	return false
}

func TestStartNewUserGetsClassChoice(t *testing.T) {
	f := newFixture(t)
	reply, err := f.handle(t, User{ID: 1, Name: "Оля"}, Action{Kind: ActStart})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != textChooseClass {
		t.Fatalf("text = %q", reply.Text)
	}
	if len(reply.Buttons) != 5 {
		t.Fatalf("options = %d", len(reply.Buttons))
	}
	for i, want := range []string{"5", "6", "7", "8", "9"} {
		b := reply.Buttons[i][0]
		if b.Unique != cbClass || b.Data != want || b.Text != want {
			t.Fatalf("button %d = %+v", i, b)
		}
	}
}

func TestStartRegisteredUser(t *testing.T) {
	f := newFixture(t)
	u := User{ID: 2, Name: "Петро"}
	if _, err := f.handle(t, u, Action{Kind: ActSelectClass, ClassID: "7"}); err != nil {
		t.Fatal(err)
	}
	reply, err := f.handle(t, u, Action{Kind: ActStart})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply.Text, "7") || reply.Text != "Вітаю знову! Твій клас: 7" {
		t.Fatalf("text = %q", reply.Text)
	}
	if !hasButton(reply.Buttons, cbToday) || hasButton(reply.Buttons, cbUpload) || hasButton(reply.Buttons, cbUpdateBells) {
		t.Fatalf("menu = %+v", reply.Buttons)
	}
}

func TestStartAdminSeesUploadMenu(t *testing.T) {
	f := newFixture(t)
	reply, err := f.handle(t, User{ID: adminID, Name: "Адмін <1>"}, Action{Kind: ActStart})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "<code>Вітаю, адміністраторе - Адмін &lt;1&gt;!</code>" {
		t.Fatalf("text = %q", reply.Text)
	}
	if !hasButton(reply.Buttons, cbUpload) || !hasButton(reply.Buttons, cbUpdateBells) {
		t.Fatalf("menu = %+v", reply.Buttons)
	}
}

func TestSelectUnknownClassRejected(t *testing.T) {
	f := newFixture(t)
	reply, err := f.handle(t, User{ID: 3}, Action{Kind: ActSelectClass, ClassID: "42"})
	if !errors.Is(err, apperr.ErrUnknownClass) {
		t.Fatalf("err = %v", err)
	}
	if len(reply.Buttons) != 5 {
		t.Fatalf("expected class menu, got %+v", reply)
	}
}

func TestTodayWithoutRegistrationPromptsForClass(t *testing.T) {
	f := newFixture(t)
	reply, err := f.handle(t, User{ID: 4}, Action{Kind: ActToday})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != textChooseFirst || len(reply.Buttons) != 5 {
		t.Fatalf("reply = %+v", reply)
	}
}

func TestAdminUploadForOneClass(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seed := schedule.ClassSchedule{
		"5": schedule.Week{{Name: "Понеділок", Lessons: []string{"Читання"}}},
		"7": schedule.Week{{Name: "Понеділок", Lessons: []string{"Алгебра"}}},
	}
	if err := store.Write(ctx, f.datasets, store.Schedules, seed); err != nil {
		t.Fatal(err)
	}
	admin := User{ID: adminID, Name: "Адмін"}

	if _, err := f.handle(t, admin, Action{Kind: ActUploadClass, ClassID: "7"}); err != nil {
		t.Fatal(err)
	}
	st := f.uploads.Current()
	if st.Kind != ingest.AwaitingSchedule || st.Target.All() || st.Target.ClassID() != "7" {
		t.Fatalf("state = %+v", st)
	}

	reply, err := f.handle(t, admin, staticFile(`{"Понеділок":["Геометрія","Фізика"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "✅ Розклад для 7 класу оновлено." {
		t.Fatalf("text = %q", reply.Text)
	}
	if f.uploads.Current().Pending() {
		t.Fatal("state not idle")
	}
	got, err := store.Read[schedule.ClassSchedule](ctx, f.datasets, store.Schedules)
	if err != nil {
		t.Fatal(err)
	}
	if l := got.DayLessons("7", "Понеділок"); len(l) != 2 || l[0] != "Геометрія" {
		t.Fatalf("class 7 = %v", l)
	}
	if l := got.DayLessons("5", "Понеділок"); len(l) != 1 || l[0] != "Читання" {
		t.Fatalf("class 5 = %v", l)
	}

	// A registered student now sees the new lessons on Monday.
	student := User{ID: 10, Name: "Учень"}
	if _, err := f.handle(t, student, Action{Kind: ActSelectClass, ClassID: "7"}); err != nil {
		t.Fatal(err)
	}
	today, err := f.handle(t, student, Action{Kind: ActToday})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(today.Text, "1. <b>Геометрія</b>") || !strings.Contains(today.Text, "─── — ───") {
		t.Fatalf("today = %q", today.Text)
	}
}

func TestMalformedBellsUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := store.Write(ctx, f.datasets, store.Bells, schedule.BellTimetable{"1": "08:00-08:45"}); err != nil {
		t.Fatal(err)
	}
	admin := User{ID: adminID}
	if _, err := f.handle(t, admin, Action{Kind: ActUpdateBells}); err != nil {
		t.Fatal(err)
	}
	reply, err := f.handle(t, admin, staticFile(`["08:00"]`))
	if !errors.Is(err, apperr.ErrMalformedUpload) {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(reply.Text, "❌ Файл не прийнято") {
		t.Fatalf("text = %q", reply.Text)
	}
	if f.uploads.Current().Pending() {
		t.Fatal("state not idle")
	}
	bells, _ := store.Read[schedule.BellTimetable](ctx, f.datasets, store.Bells)
	if len(bells) != 1 || bells["1"] != "08:00-08:45" {
		t.Fatalf("bells = %v", bells)
	}
}

func TestNonAdminCannotUpload(t *testing.T) {
	f := newFixture(t)
	reply, err := f.handle(t, User{ID: 5}, Action{Kind: ActUploadAll})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if reply.Text != textAdminOnly {
		t.Fatalf("text = %q", reply.Text)
	}
	if f.uploads.Current().Pending() {
		t.Fatal("non-admin armed an upload")
	}
}

func TestFileHandling(t *testing.T) {
	f := newFixture(t)

	reply, err := f.handle(t, User{ID: 6}, staticFile(`{"1":"08:00"}`))
	if err != nil || reply.Text != "" {
		t.Fatalf("student document: %+v %v", reply, err)
	}

	reply, err = f.handle(t, User{ID: adminID}, staticFile(`{"1":"08:00"}`))
	if !errors.Is(err, apperr.ErrNothingPending) || reply.Text != textNoPending {
		t.Fatalf("idle document: %+v %v", reply, err)
	}

	f.uploads.ExpectBells(context.Background(), adminID)
	tooBig := FileAction(FileRef{Name: "big.json", Fetch: func(context.Context) ([]byte, error) {
		return nil, apperr.Newf(apperr.MalformedUpload, "bot.fetch", "file exceeds 10 bytes")
	}})
	reply, err = f.handle(t, User{ID: adminID}, tooBig)
	if !errors.Is(err, apperr.ErrMalformedUpload) || !strings.Contains(reply.Text, "file exceeds 10 bytes") {
		t.Fatalf("too big: %+v %v", reply, err)
	}
	if f.uploads.Current().Pending() {
		t.Fatal("state not idle after failed fetch")
	}
}

func TestBellsOrderInReply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bells := schedule.BellTimetable{"10": "16:00", "2": "08:50", "1": "08:00"}
	if err := store.Write(ctx, f.datasets, store.Bells, bells); err != nil {
		t.Fatal(err)
	}
	reply, err := f.handle(t, User{ID: 7}, Action{Kind: ActBells})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "⏰ Розклад дзвінків:\n\n1. 08:00\n2. 08:50\n10. 16:00" {
		t.Fatalf("text = %q", reply.Text)
	}
}

type brokenBackend struct{}

func (brokenBackend) Load(context.Context, store.Name) ([]byte, error) { return nil, errors.New("io") }
func (brokenBackend) Save(context.Context, store.Name, []byte) error { return errors.New("io") }
func (brokenBackend) Close() error { return nil }

func TestStorageFailureAsksToRetry(t *testing.T) {
	d := store.New(brokenBackend{})
	disp := NewDispatcher(
		session.NewManager(d, session.NewAllowList(nil), []string{"7"}),
		schedule.NewResolver(d, time.UTC, nil),
		ingest.NewMachine(d),
	)
	reply, err := disp.Handle(context.Background(), User{ID: 1}, Action{Kind: ActWeek})
	if !errors.Is(err, apperr.ErrDatasetUnavailable) || reply.Text != textUnavailable {
		t.Fatalf("reply = %+v err = %v", reply, err)
	}
}
