// Package ingest holds the pending admin upload and applies uploaded documents to the datasets.
package ingest

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/m3rciful/lessonbot/core/logger"
	"github.com/m3rciful/lessonbot/internal/apperr"
	"github.com/m3rciful/lessonbot/internal/schedule"
	"github.com/m3rciful/lessonbot/internal/store"
)

// Result describes an applied upload.
type Result struct {
	Kind    Kind
	Target  Target
	Classes []string
	Days    int
	Periods int
}

// Machine is the single process-wide upload expectation. Arming while armed replaces the
// previous expectation regardless of which admin set it.
type Machine struct {
	datasets *store.Datasets
	now      func() time.Time

	mu    sync.Mutex
	state State
}

// NewMachine returns an idle Machine writing to datasets.
func NewMachine(datasets *store.Datasets) *Machine {
	return &Machine{datasets: datasets, now: time.Now}
}

// Current returns a snapshot of the pending state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ExpectSchedule arms a schedule upload for target.
func (m *Machine) ExpectSchedule(ctx context.Context, target Target, adminID int64) {
	m.arm(ctx, State{Kind: AwaitingSchedule, Target: target, AdminID: adminID})
}

// ExpectBells arms a bell timetable upload.
func (m *Machine) ExpectBells(ctx context.Context, adminID int64) {
	m.arm(ctx, State{Kind: AwaitingBells, AdminID: adminID})
}

func (m *Machine) arm(ctx context.Context, st State) {
	st.Since = m.now()
	m.mu.Lock()
	prev := m.state
	m.state = st
	m.mu.Unlock()

	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("state", st.Kind.String()),
		slog.String("target", st.Target.String()),
		slog.Int64("admin", st.AdminID),
	}
	if prev.Pending() {
		attrs = append(attrs, slog.String("replaced", prev.Kind.String()), slog.Int64("replaced_admin", prev.AdminID))
	}
	logger.Info(ctx, "ingest", "armed", attrs...)
}

// Cancel drops the pending state and reports whether there was one.
func (m *Machine) Cancel(ctx context.Context) bool {
	m.mu.Lock()
	prev := m.state
	m.state = State{}
	m.mu.Unlock()
	if prev.Pending() {
		logger.Info(ctx, "ingest", "cancelled",
			slog.String("status", "ok"),
			slog.String("state", prev.Kind.String()),
			slog.String("outcome", "cancelled"),
		)
	}
	return prev.Pending()
}

func (m *Machine) take() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state
	m.state = State{}
	return st
}

// Consume takes the pending state, validates data against it and replaces the matching dataset.
// The machine is idle afterwards whatever the outcome.
func (m *Machine) Consume(ctx context.Context, data []byte) (Result, error) {
	st := m.take()
	if !st.Pending() {
		return Result{}, apperr.Newf(apperr.NothingPending, "ingest.consume", "no upload expected")
	}

	res, err := m.apply(ctx, st, data)
	if err != nil {
		logger.Warn(ctx, "ingest", "consume",
			slog.String("status", "rejected"),
			slog.String("state", st.Kind.String()),
			slog.String("target", st.Target.String()),
			slog.Int("bytes", len(data)),
			slog.String("err", err.Error()),
			slog.String("err_code", string(apperr.KindOf(err))),
		)
		return Result{}, err
	}
	logger.Info(ctx, "ingest", "consume",
		slog.String("status", "ok"),
		slog.String("state", st.Kind.String()),
		slog.String("target", st.Target.String()),
		slog.Int("bytes", len(data)),
		slog.Int("days", res.Days),
		slog.Int("bells", res.Periods),
	)
	return res, nil
}

func (m *Machine) apply(ctx context.Context, st State, data []byte) (Result, error) {
	res := Result{Kind: st.Kind, Target: st.Target}
	switch st.Kind {
	case AwaitingBells:
		bells, err := ParseBells(data)
		if err != nil {
			return res, err
		}
		if err := store.Write(ctx, m.datasets, store.Bells, bells); err != nil {
			return res, err
		}
		res.Periods = len(bells)
	case AwaitingSchedule:
		if st.Target.All() {
			sched, err := ParseSchedule(data)
			if err != nil {
				return res, err
			}
			if err := store.Write(ctx, m.datasets, store.Schedules, sched); err != nil {
				return res, err
			}
			for id, week := range sched {
				res.Classes = append(res.Classes, id)
				res.Days += len(week)
			}
			sort.Strings(res.Classes)
			return res, nil
		}
		week, err := ParseWeek(data)
		if err != nil {
			return res, err
		}
		classID := st.Target.ClassID()
		err = store.Update(ctx, m.datasets, store.Schedules, func(s *schedule.ClassSchedule) error {
			if *s == nil {
				*s = schedule.ClassSchedule{}
			}
			(*s)[classID] = week
			return nil
		})
		if err != nil {
			return res, err
		}
		res.Classes = []string{classID}
		res.Days = len(week)
	}
	return res, nil
}
