package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/lessonbot/internal/apperr"
	"github.com/m3rciful/lessonbot/internal/schedule"
)

const parseOp = "ingest.parse"

func malformed(format string, args ...any) error {
	return apperr.Newf(apperr.MalformedUpload, parseOp, format, args...)
}

// ParseSchedule validates a {class: {day: [lesson]}} document.
func ParseSchedule(data []byte) (schedule.ClassSchedule, error) {
	var raw map[string]json.RawMessage
	if err := decodeObject(data, &raw); err != nil {
		return nil, err
	}
	if err := uniqueKeys(data, "class"); err != nil {
		return nil, err
	}
	out := make(schedule.ClassSchedule, len(raw))
	for classID, body := range raw {
		id := strings.TrimSpace(classID)
		if id == "" || strings.Contains(id, "|") {
			return nil, malformed("invalid class id %q", classID)
		}
		if _, dup := out[id]; dup {
			return nil, malformed("duplicate class id %q", id)
		}
		week, err := parseWeek(body, true)
		if err != nil {
			return nil, malformed("class %q: %v", id, unwrapDetail(err))
		}
		out[id] = week
	}
	return out, nil
}

// ParseWeek validates a {day: [lesson]} document for a single class.
func ParseWeek(data []byte) (schedule.Week, error) {
	return parseWeek(data, false)
}

func parseWeek(data []byte, allowEmpty bool) (schedule.Week, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed("expected a JSON object of days")
	}
	var week schedule.Week
	if err := json.Unmarshal(trimmed, &week); err != nil {
		return nil, malformed("invalid JSON: %v", err)
	}
	if err := uniqueKeys(trimmed, "day"); err != nil {
		return nil, err
	}
	if len(week) == 0 && !allowEmpty {
		return nil, malformed("document has no days")
	}
	seen := make(map[time.Weekday]string, len(week))
	for _, day := range week {
		wd, ok := schedule.ParseWeekday(day.Name)
		if !ok {
			return nil, malformed("unknown day %q", day.Name)
		}
		if prev, dup := seen[wd]; dup {
			return nil, malformed("day %q repeats %q", day.Name, prev)
		}
		seen[wd] = day.Name
	}
	if week == nil {
		week = schedule.Week{}
	}
	return week, nil
}

// ParseBells validates a {period: "HH:MM[-HH:MM]"} document. Keys are stored in canonical decimal form.
func ParseBells(data []byte) (schedule.BellTimetable, error) {
	var raw map[string]string
	if err := decodeObject(data, &raw); err != nil {
		return nil, err
	}
	if err := uniqueKeys(data, "bell"); err != nil {
		return nil, err
	}
	out := make(schedule.BellTimetable, len(raw))
	for key, value := range raw {
		n, ok := schedule.ParsePeriod(key)
		if !ok {
			return nil, malformed("bell key %q is not a positive integer", key)
		}
		canon := strconv.Itoa(n)
		if _, dup := out[canon]; dup {
			return nil, malformed("bell %d listed twice", n)
		}
		value = strings.TrimSpace(value)
		if err := validateInterval(value); err != nil {
			return nil, malformed("bell %d: %v", n, unwrapDetail(err))
		}
		out[canon] = value
	}
	return out, nil
}

func validateInterval(value string) error {
	start, end := schedule.SplitInterval(value)
	from, err := time.Parse("15:04", start)
	if err != nil {
		return malformed("bad start time %q", start)
	}
	if !strings.Contains(value, "-") {
		return nil
	}
	to, err := time.Parse("15:04", end)
	if err != nil {
		return malformed("bad end time %q", end)
	}
	if !to.After(from) {
		return malformed("end %s is not after start %s", end, start)
	}
	return nil
}

// decodeObject requires a non-empty JSON object and decodes it into v.
func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return malformed("empty document")
	}
	if trimmed[0] != '{' {
		return malformed("expected a JSON object")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return malformed("invalid JSON: %v", err)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil && len(obj) == 0 {
		return malformed("empty document")
	}
	return nil
}

// uniqueKeys rejects a top-level object that names the same key twice.
// Decoding into maps or Week would keep only one of the values.
func uniqueKeys(data []byte, what string) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return malformed("invalid JSON: %v", err)
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return malformed("invalid JSON: %v", err)
		}
		key, _ := tok.(string)
		if _, dup := seen[key]; dup {
			return malformed("%s %q listed twice", what, key)
		}
		seen[key] = struct{}{}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return malformed("invalid JSON: %v", err)
		}
	}
	return nil
}

// unwrapDetail strips the kind prefix so nested messages read naturally.
func unwrapDetail(err error) error {
	if e, ok := err.(*apperr.Error); ok && e.Err != nil {
		return e.Err
	}
	return err
}
