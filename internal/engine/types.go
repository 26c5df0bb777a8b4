// Package engine attaches inspection-form submissions to canonical
// store records. Resolution runs as a cascade: coordinates first, then
// free-text alias matching, then temporal pairing against already
// resolved companion forms. Quota balancing is a separate post-pass in
// the balance package.
package engine

import (
	"time"

	"github.com/storematch/internal/audit"
	"github.com/storematch/internal/geo"
)

// FormType distinguishes the two related survey types filed per visit.
type FormType string

const (
	FormOperational FormType = "OPERATIONAL"
	FormSecurity    FormType = "SECURITY"
)

// Companion returns the form type filed alongside this one.
func (f FormType) Companion() FormType {
	if f == FormOperational {
		return FormSecurity
	}
	return FormOperational
}

// Method records which cascade stage produced a store assignment.
type Method string

const (
	MethodGeo           Method = "GEO"
	MethodText          Method = "TEXT"
	MethodTemporalPair  Method = "TEMPORAL_PAIR"
	MethodQuotaFallback Method = "QUOTA_FALLBACK"
	MethodUnresolved    Method = "UNRESOLVED"
)

// Submission is one filled inspection form. Ingestion creates it
// read-only; the engine sets StoreID, Method and Confidence exactly
// once, and the quota balancer may overwrite StoreID once more.
type Submission struct {
	ID           string
	FormType     FormType
	SubmittedAt  time.Time
	SubmittedBy  string
	LocationText string     // raw free-text location tag, often wrong
	Coordinates  *geo.Point // nil when the device had no fix

	StoreID    int // 0 while unresolved
	Method     Method
	Confidence float64
}

// Resolved reports whether a store has been assigned.
func (s *Submission) Resolved() bool {
	return s.StoreID != 0
}

// PairingLink records one same-visit correspondence between an
// operational and a security submission. Each submission appears in at
// most one link.
type PairingLink struct {
	OperationalID string
	SecurityID    string
	TimeDelta     time.Duration // absolute
	SameSubmitter bool
}

// QuotaConflict is a residual surplus or deficit the balancer could
// not correct. Reported, never forced.
type QuotaConflict struct {
	StoreID  int
	FormType FormType
	Expected int
	Actual   int
}

// Result is the full outcome of one engine run. The balancer consumes
// and returns the same shape.
type Result struct {
	RunID       string
	Submissions []*Submission
	Pairings    []PairingLink
	Conflicts   []QuotaConflict
	Audit       *audit.Log
}

// Unresolved returns submissions no strategy could place.
func (r *Result) Unresolved() []*Submission {
	var out []*Submission
	for _, s := range r.Submissions {
		if !s.Resolved() {
			out = append(out, s)
		}
	}
	return out
}
