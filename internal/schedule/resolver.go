package schedule

import (
	"context"
	"time"

	"github.com/m3rciful/lessonbot/internal/store"
)

// Clock returns the current time.
type Clock func() time.Time

// Resolver answers schedule queries against the stored datasets.
type Resolver struct {
	datasets *store.Datasets
	now      Clock
	loc      *time.Location
}

// NewResolver builds a Resolver. A nil clock means time.Now; a nil location means time.Local.
func NewResolver(datasets *store.Datasets, loc *time.Location, now Clock) *Resolver {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{datasets: datasets, now: now, loc: loc}
}

// Schedule loads the whole class schedule.
func (r *Resolver) Schedule(ctx context.Context) (ClassSchedule, error) {
	s, err := store.Read[ClassSchedule](ctx, r.datasets, store.Schedules)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = ClassSchedule{}
	}
	return s, nil
}

// Bells loads the bell timetable.
func (r *Resolver) Bells(ctx context.Context) (BellTimetable, error) {
	b, err := store.Read[BellTimetable](ctx, r.datasets, store.Bells)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = BellTimetable{}
	}
	return b, nil
}

// DayLessons returns lessons of classID on day, empty when either is absent.
func (r *Resolver) DayLessons(ctx context.Context, classID, day string) ([]string, error) {
	s, err := r.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	return s.DayLessons(classID, day), nil
}

// WeekSchedule returns the ordered week of classID.
func (r *Resolver) WeekSchedule(ctx context.Context, classID string) (Week, error) {
	s, err := r.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	return s.Week(classID), nil
}

// Weekday reports the current weekday in the configured location.
func (r *Resolver) Weekday() time.Weekday {
	return r.now().In(r.loc).Weekday()
}

// Today resolves the current weekday for classID. The returned day name is the stored key when
// present, otherwise the canonical name with no lessons.
func (r *Resolver) Today(ctx context.Context, classID string) (string, []string, error) {
	s, err := r.Schedule(ctx)
	if err != nil {
		return "", nil, err
	}
	wd := r.Weekday()
	if d, ok := s.Week(classID).FindWeekday(wd); ok {
		return d.Name, d.Lessons, nil
	}
	return WeekdayName(wd), []string{}, nil
}
