package render

import (
	"strings"
	"testing"

	"github.com/m3rciful/lessonbot/internal/schedule"
)

func TestWeek(t *testing.T) {
	week := schedule.Week{
		{Name: "Понеділок", Lessons: []string{"Алгебра", "Мова <укр>"}},
		{Name: "Вівторок", Lessons: []string{"Фізика"}},
	}
	want := "📅 Розклад для 7 класу:\n\n" +
		"📌 Понеділок:\n   1. Алгебра\n   2. Мова &lt;укр&gt;\n" + weekSeparator + "\n" +
		"📌 Вівторок:\n   1. Фізика\n" + weekSeparator
	if got := Week("7", week); got != want {
		t.Fatalf("Week =\n%s\nwant\n%s", got, want)
	}
}

func TestWeekEmpty(t *testing.T) {
	got := Week("9", schedule.Week{})
	if got != "📅 Розклад для 9 класу:\n\n"+noWeekText {
		t.Fatalf("Week = %q", got)
	}
}

func TestToday(t *testing.T) {
	rows := schedule.Align([]string{"Math", "Art", "PE"},
		schedule.BellTimetable{"1": "08:00-08:45", "2": "08:50"})
	want := strings.Join([]string{
		"📅 Розклад для 7 класу на Понеділок:\n",
		"─── <code>08:00</code> ──────── <code>08:45</code> ───",
		"1. <b>Math</b>",
		"─── <code>08:50</code> ───",
		"2. <b>Art</b>",
		"─── — ───",
		"3. <b>PE</b>",
		todaySeparator,
	}, "\n")
	if got := Today("7", "Понеділок", rows); got != want {
		t.Fatalf("Today =\n%s\nwant\n%s", got, want)
	}
}

func TestTodayEmpty(t *testing.T) {
	got := Today("5", "Неділя", nil)
	if got != "📅 Розклад для 5 класу на Неділя:\n"+noTodayText {
		t.Fatalf("Today = %q", got)
	}
}

func TestBellsNumericOrder(t *testing.T) {
	got := Bells(schedule.BellTimetable{"10": "16:00-16:45", "2": "08:50-09:35", "1": "08:00-08:45"})
	want := "⏰ Розклад дзвінків:\n\n1. 08:00-08:45\n2. 08:50-09:35\n10. 16:00-16:45"
	if got != want {
		t.Fatalf("Bells = %q", got)
	}
	if Bells(nil) != noBellsText {
		t.Fatalf("empty bells = %q", Bells(nil))
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	bells := schedule.BellTimetable{"3": "c", "1": "a", "2": "b", "12": "l", "11": "k"}
	first := Bells(bells)
	for i := 0; i < 20; i++ {
		if got := Bells(bells); got != first {
			t.Fatalf("run %d differs: %q vs %q", i, got, first)
		}
	}
	rows := schedule.Align([]string{"x", "y"}, bells)
	if Today("6", "Середа", rows) != Today("6", "Середа", rows) {
		t.Fatal("Today not deterministic")
	}
}
