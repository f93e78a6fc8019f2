package schedule

import (
	"strings"
	"time"
)

// Canonical day names used as ClassSchedule keys.
var weekdayNames = [7]string{
	time.Sunday:    "Неділя",
	time.Monday:    "Понеділок",
	time.Tuesday:   "Вівторок",
	time.Wednesday: "Середа",
	time.Thursday:  "Четвер",
	time.Friday:    "П'ятниця",
	time.Saturday:  "Субота",
}

var apostrophes = strings.NewReplacer("’", "'", "ʼ", "'", "`", "'")

var weekdayLookup = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, 14)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		m[foldDay(weekdayNames[wd])] = wd
		m[foldDay(wd.String())] = wd
	}
	return m
}()

func foldDay(name string) string {
	return strings.ToLower(apostrophes.Replace(strings.TrimSpace(name)))
}

// WeekdayName returns the canonical day name for wd.
func WeekdayName(wd time.Weekday) string {
	return weekdayNames[wd]
}

// ParseWeekday accepts canonical or English day names, ignoring case and apostrophe style.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayLookup[foldDay(name)]
	return wd, ok
}
