package schedule

import (
	"sort"
	"strconv"
	"strings"
)

// BellTimetable maps a period number to "HH:MM" or "HH:MM-HH:MM".
type BellTimetable map[string]string

// Bell is one timetable entry with its parsed period number.
type Bell struct {
	Number int
	Key    string
	Time   string
}

// ParsePeriod parses a timetable key as a positive integer.
func ParsePeriod(key string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Sorted returns entries ordered by numeric period. Keys that are not positive integers are skipped.
func (b BellTimetable) Sorted() []Bell {
	out := make([]Bell, 0, len(b))
	for key, t := range b {
		n, ok := ParsePeriod(key)
		if !ok {
			continue
		}
		out = append(out, Bell{Number: n, Key: key, Time: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SplitInterval splits "start-end" on the first dash; without a dash end is empty.
func SplitInterval(s string) (start, end string) {
	start, end, found := strings.Cut(s, "-")
	if !found {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(start), strings.TrimSpace(end)
}

// AlignedRow pairs a lesson with its bell interval.
type AlignedRow struct {
	Index       int
	Lesson      string
	Start       string
	End         string
	HasBellData bool
}

// Align pairs the i-th lesson with the i-th bell in numeric order.
// Lessons beyond the last bell get HasBellData=false.
func Align(lessons []string, bells BellTimetable) []AlignedRow {
	sorted := bells.Sorted()
	rows := make([]AlignedRow, 0, len(lessons))
	for i, lesson := range lessons {
		row := AlignedRow{Index: i + 1, Lesson: lesson}
		if i < len(sorted) {
			row.Start, row.End = SplitInterval(sorted[i].Time)
			row.HasBellData = true
		}
		rows = append(rows, row)
	}
	return rows
}
