// Package audit collects every resolution decision of an engine run
// into one ordered, append-only trail for manual review.
package audit

import (
	"fmt"
	"time"
)

// Event classifies an audit entry.
type Event string

const (
	EventResolved      Event = "RESOLVED"
	EventReassigned    Event = "REASSIGNED"
	EventUnresolved    Event = "UNRESOLVED"
	EventQuotaConflict Event = "QUOTA_CONFLICT"
)

// Entry is one recorded decision.
type Entry struct {
	SubmissionID string
	Event        Event
	Detail       string
	DecidedAt    time.Time
}

// Log is an append-only decision trail. One engine run produces one
// ordered sequence; it is not safe for concurrent writers.
type Log struct {
	entries []Entry
	now     func() time.Time
}

// NewLog creates an empty trail stamped with wall-clock time.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// NewLogAt creates a trail with an injected clock, for reproducible runs.
func NewLogAt(now func() time.Time) *Log {
	return &Log{now: now}
}

// Record appends an entry. Detail accepts Printf-style arguments.
func (l *Log) Record(submissionID string, event Event, format string, args ...interface{}) {
	l.entries = append(l.entries, Entry{
		SubmissionID: submissionID,
		Event:        event,
		Detail:       fmt.Sprintf(format, args...),
		DecidedAt:    l.now(),
	})
}

// Entries returns the trail in decision order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// CountByEvent tallies entries per event type.
func (l *Log) CountByEvent() map[Event]int {
	counts := make(map[Event]int)
	for _, e := range l.entries {
		counts[e.Event]++
	}
	return counts
}

// ByEvent returns the entries with the given event, in order.
func (l *Log) ByEvent(event Event) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
