package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Day is one entry of a Week: a day name and its lessons in period order.
type Day struct {
	Name    string
	Lessons []string
}

// Week keeps days in document order. It (un)marshals as a JSON object {day: [lesson, ...]}.
type Week []Day

// ClassSchedule maps a class id to its week.
type ClassSchedule map[string]Week

// Week returns the class week, or an empty week for unknown classes.
func (s ClassSchedule) Week(classID string) Week {
	if w, ok := s[classID]; ok && w != nil {
		return w
	}
	return Week{}
}

// DayLessons returns the lessons of classID on day; absent class or day yields an empty slice.
func (s ClassSchedule) DayLessons(classID, day string) []string {
	if d, ok := s.Week(classID).Find(day); ok {
		return d.Lessons
	}
	return []string{}
}

// Find looks a day up by exact name first, then by weekday identity.
func (w Week) Find(day string) (Day, bool) {
	for _, d := range w {
		if d.Name == day {
			return d.normalized(), true
		}
	}
	if wd, ok := ParseWeekday(day); ok {
		return w.FindWeekday(wd)
	}
	return Day{}, false
}

// FindWeekday returns the first day whose name denotes wd.
func (w Week) FindWeekday(wd time.Weekday) (Day, bool) {
	for _, d := range w {
		if got, ok := ParseWeekday(d.Name); ok && got == wd {
			return d.normalized(), true
		}
	}
	return Day{}, false
}

func (d Day) normalized() Day {
	if d.Lessons == nil {
		d.Lessons = []string{}
	}
	return d
}

// MarshalJSON writes days in order without HTML escaping.
func (w Week) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalRaw(d.Name)
		if err != nil {
			return nil, err
		}
		lessons := d.Lessons
		if lessons == nil {
			lessons = []string{}
		}
		val, err := marshalRaw(lessons)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order; a repeated day keeps its first
// position and its last value.
func (w *Week) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*w = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("week must be a JSON object, got %v", tok)
	}
	out := Week{}
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var lessons []string
		if err := dec.Decode(&lessons); err != nil {
			return fmt.Errorf("day %q: %w", name, err)
		}
		if lessons == nil {
			lessons = []string{}
		}
		if i, dup := index[name]; dup {
			out[i].Lessons = lessons
			continue
		}
		index[name] = len(out)
		out = append(out, Day{Name: name, Lessons: lessons})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*w = out
	return nil
}

func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
