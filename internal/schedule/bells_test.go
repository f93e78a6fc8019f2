package schedule

import (
	"reflect"
	"testing"
)

func TestAlignPairsLessonsWithBells(t *testing.T) {
	rows := Align([]string{"Math", "Art", "PE"}, BellTimetable{"1": "08:00-08:45", "2": "08:50-09:35"})
	want := []AlignedRow{
		{Index: 1, Lesson: "Math", Start: "08:00", End: "08:45", HasBellData: true},
		{Index: 2, Lesson: "Art", Start: "08:50", End: "09:35", HasBellData: true},
		{Index: 3, Lesson: "PE"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v", rows)
	}
}

func TestAlignEdgeCases(t *testing.T) {
	if rows := Align(nil, BellTimetable{"1": "08:00"}); rows == nil || len(rows) != 0 {
		t.Fatalf("empty lessons = %#v", rows)
	}
	rows := Align([]string{"A", "B"}, nil)
	for _, r := range rows {
		if r.HasBellData {
			t.Fatalf("row %d has bell data without bells", r.Index)
		}
	}
	rows = Align([]string{"A"}, BellTimetable{"1": "08:00"})
	if rows[0].Start != "08:00" || rows[0].End != "" || !rows[0].HasBellData {
		t.Fatalf("start only = %#v", rows[0])
	}
}

func TestAlignUsesNumericOrder(t *testing.T) {
	bells := BellTimetable{"10": "16:00-16:45", "2": "08:50-09:35", "1": "08:00-08:45"}
	rows := Align([]string{"a", "b", "c"}, bells)
	got := []string{rows[0].Start, rows[1].Start, rows[2].Start}
	if !reflect.DeepEqual(got, []string{"08:00", "08:50", "16:00"}) {
		t.Fatalf("starts = %v", got)
	}
}

func TestSortedSkipsInvalidKeys(t *testing.T) {
	bells := BellTimetable{"2": "b", "x": "bad", "0": "zero", "1": "a", "-3": "neg"}
	var nums []int
	for _, b := range bells.Sorted() {
		nums = append(nums, b.Number)
	}
	if !reflect.DeepEqual(nums, []int{1, 2}) {
		t.Fatalf("numbers = %v", nums)
	}
}

func TestSplitInterval(t *testing.T) {
	cases := []struct{ in, start, end string }{
		{"08:00-08:45", "08:00", "08:45"},
		{" 08:00 - 08:45 ", "08:00", "08:45"},
		{"08:00", "08:00", ""},
		{"08:00-08:45-09:00", "08:00", "08:45-09:00"},
	}
	for _, c := range cases {
		s, e := SplitInterval(c.in)
		if s != c.start || e != c.end {
			t.Errorf("SplitInterval(%q) = %q,%q", c.in, s, e)
		}
	}
}
