// Package render turns schedule data into Telegram HTML messages.
// Output depends only on the arguments.
package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/lessonbot/core/telegram/format"
	"github.com/m3rciful/lessonbot/internal/schedule"
)

const (
	weekSeparator  = "───────────────────────"
	todaySeparator = "────────────────────────"

	noWeekText  = "Розклад для цього класу ще не завантажено."
	noTodayText = "Сьогодні занять немає."
	noBellsText = "⏰ Розклад дзвінків ще не завантажено."
)

// Week renders every day of the class week in stored order.
func Week(classID string, week schedule.Week) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Розклад для %s класу:\n\n", format.Escape(classID))
	if len(week) == 0 {
		b.WriteString(noWeekText)
		return b.String()
	}
	for _, day := range week {
		fmt.Fprintf(&b, "📌 %s:\n", format.Escape(day.Name))
		for i, lesson := range day.Lessons {
			fmt.Fprintf(&b, "   %d. %s\n", i+1, format.Escape(lesson))
		}
		b.WriteString(weekSeparator)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Today renders aligned rows: a time line above each numbered lesson.
func Today(classID, day string, rows []schedule.AlignedRow) string {
	header := fmt.Sprintf("📅 Розклад для %s класу на %s:\n", format.Escape(classID), format.Escape(day))
	if len(rows) == 0 {
		return header + noTodayText
	}
	lines := make([]string, 0, 2*len(rows)+2)
	lines = append(lines, header)
	for _, row := range rows {
		lines = append(lines, timeLine(row))
		lines = append(lines, fmt.Sprintf("%d. %s", row.Index, format.Bold(row.Lesson)))
	}
	lines = append(lines, todaySeparator)
	return strings.Join(lines, "\n")
}

func timeLine(row schedule.AlignedRow) string {
	switch {
	case !row.HasBellData:
		return "─── — ───"
	case row.End == "":
		return fmt.Sprintf("─── %s ───", format.Code(row.Start))
	default:
		return fmt.Sprintf("─── %s ──────── %s ───", format.Code(row.Start), format.Code(row.End))
	}
}

// Bells lists the timetable in numeric period order.
func Bells(bells schedule.BellTimetable) string {
	sorted := bells.Sorted()
	if len(sorted) == 0 {
		return noBellsText
	}
	var b strings.Builder
	b.WriteString("⏰ Розклад дзвінків:\n\n")
	for _, bell := range sorted {
		fmt.Fprintf(&b, "%d. %s\n", bell.Number, format.Escape(bell.Time))
	}
	return strings.TrimRight(b.String(), "\n")
}
