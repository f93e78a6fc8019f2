package ingest

import "time"

// Kind names the pending upload, if any.
type Kind int

const (
	Idle Kind = iota
	AwaitingSchedule
	AwaitingBells
)

func (k Kind) String() string {
	switch k {
	case AwaitingSchedule:
		return "awaiting_schedule"
	case AwaitingBells:
		return "awaiting_bells"
	default:
		return "idle"
	}
}

// Target selects which part of the schedule an upload replaces.
type Target struct {
	all     bool
	classID string
}

// AllClasses targets the whole schedule.
func AllClasses() Target { return Target{all: true} }

// Class targets a single class entry.
func Class(id string) Target { return Target{classID: id} }

// All reports whether the whole schedule is targeted.
func (t Target) All() bool { return t.all }

// ClassID returns the targeted class, empty for AllClasses.
func (t Target) ClassID() string { return t.classID }

func (t Target) String() string {
	if t.all {
		return "all"
	}
	return t.classID
}

// State is the process-wide pending upload. AdminID and Since are informational.
type State struct {
	Kind    Kind
	Target  Target
	AdminID int64
	Since   time.Time
}

// Pending reports whether an upload is expected.
func (s State) Pending() bool { return s.Kind != Idle }
