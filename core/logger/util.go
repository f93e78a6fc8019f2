package logger

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Sanitize drops control and format runes except tab and newline.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && (unicode.IsControl(r) || unicode.Is(unicode.Cf, r)) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit applies Sanitize and keeps at most max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	clean := Sanitize(s)
	n := 0
	for i := range clean {
		if n == max {
			return clean[:i]
		}
		n++
	}
	return clean
}

// BuildRID returns a correlation identifier in the format updateID:chatID:userID.
func BuildRID(updateID int, chatID, userID int64) string {
	return strconv.Itoa(updateID) + ":" + strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}

// CompactRID rewrites each numeric RID segment in base36 and joins them with dots.
// Anything that is not three integers is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	for i, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return rid
		}
		parts[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(parts, ".")
}

// ratioSampler lets n out of every d events through; d == 0 lets everything through.
type ratioSampler struct {
	mu      sync.Mutex
	n, d    int
	counter int
}

func newRatioSampler(n, d int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(n, d)
	return s
}

func (s *ratioSampler) Set(n, d int) {
	if n <= 0 || d <= 0 {
		n, d = 0, 0
	}
	s.mu.Lock()
	s.n, s.d, s.counter = min(n, d), d, 0
	s.mu.Unlock()
}

func (s *ratioSampler) Allow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.d == 0 {
		return true
	}
	s.counter = s.counter%s.d + 1
	return s.counter <= s.n
}

// parseRatioSpec accepts "n/d" or a bare "d" meaning 1/d. Unparsable input yields 0/0.
func parseRatioSpec(spec string) (int, int) {
	num, den, ok := strings.Cut(strings.TrimSpace(spec), "/")
	if !ok {
		if v, err := strconv.Atoi(num); err == nil && v > 0 {
			return 1, v
		}
		return 0, 0
	}
	n, err1 := strconv.Atoi(strings.TrimSpace(num))
	d, err2 := strconv.Atoi(strings.TrimSpace(den))
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return n, d
}
