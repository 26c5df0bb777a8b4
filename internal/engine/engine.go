package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/storematch/internal/audit"
	"github.com/storematch/internal/debug"
	"github.com/storematch/internal/geo"
	"github.com/storematch/internal/store"
)

// Options tunes a resolution run. Zero values fall back to the
// defaults the pipeline was calibrated against.
type Options struct {
	GeoRadiusKm   float64       // acceptance radius, default 2.0
	GeoTieBandKm  float64       // geo tie band, default 0.1
	TextThreshold float64       // fuzzy acceptance threshold, default 0.85
	TextMargin    float64       // runner-up margin, default 0.05
	PairWindow    time.Duration // companion window, default 4h
	Denylist      []string      // known-user text entries to ignore
	Trace         bool
	Now           func() time.Time // injected clock for the audit trail
}

func (o Options) withDefaults() Options {
	if o.GeoRadiusKm == 0 {
		o.GeoRadiusKm = 2.0
	}
	if o.GeoTieBandKm == 0 {
		o.GeoTieBandKm = 0.1
	}
	if o.TextThreshold == 0 {
		o.TextThreshold = 0.85
	}
	if o.TextMargin == 0 {
		o.TextMargin = 0.05
	}
	if o.PairWindow == 0 {
		o.PairWindow = 4 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Engine runs the resolution cascade over a batch of submissions. The
// store directory is read-only for the duration of a run.
type Engine struct {
	directory *store.Directory
	sites     []geo.Site
	geo       geo.Resolver
	text      *TextMatcher
	opts      Options
}

// New builds an engine for a validated directory.
func New(directory *store.Directory, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		directory: directory,
		sites:     directory.Sites(),
		geo:       geo.Resolver{RadiusKm: opts.GeoRadiusKm, TieBandKm: opts.GeoTieBandKm},
		text:      NewTextMatcher(directory, opts.Denylist, opts.TextThreshold, opts.TextMargin),
		opts:      opts,
	}
}

// ResolveBatch runs the cascade over the batch and returns the mutated
// submissions, the pairing links formed, and the ordered audit trail.
//
// The run has two phases with a hard barrier between them: coordinates
// and text are tried for every submission first, because temporal
// pairing consumes those results. Per-submission failures never abort
// the batch; only directory configuration problems are fatal, and
// those were caught at load time.
func (e *Engine) ResolveBatch(subs []*Submission) *Result {
	trace := e.opts.Trace
	defer debug.Timing(trace, "resolve batch")()

	trail := audit.NewLogAt(e.opts.Now)

	ordered := make([]*Submission, len(subs))
	copy(ordered, subs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	// Phase 1: per-submission signals, order-independent.
	debug.Section(trace, "phase 1: geo and text")
	for _, s := range ordered {
		s.StoreID = 0
		s.Method = MethodUnresolved
		s.Confidence = 0
		e.resolveDirect(s, trail)
	}

	// Phase 2: cross-form propagation. Requires the complete first
	// pass, hence the barrier.
	debug.Section(trace, "phase 2: temporal pairing")
	links := matchCompanions(ordered, e.opts.PairWindow, trail, trace)

	for _, s := range ordered {
		if !s.Resolved() {
			trail.Record(s.ID, audit.EventUnresolved, "no strategy produced a confident store (%s)", describeSignals(s))
		}
	}

	return &Result{
		RunID:       uuid.NewString(),
		Submissions: ordered,
		Pairings:    links,
		Audit:       trail,
	}
}

// resolveDirect tries the coordinate and text strategies for one
// submission. An ambiguous outcome downgrades to the next strategy,
// never to a guess.
func (e *Engine) resolveDirect(s *Submission, trail *audit.Log) {
	if s.Coordinates != nil {
		match, err := e.geo.Resolve(*s.Coordinates, e.sites)
		switch {
		case errors.Is(err, geo.ErrAmbiguous):
			debug.Output(e.opts.Trace, "submission %s: geo ambiguous, trying text", s.ID)
		case match != nil:
			s.StoreID = match.SiteID
			s.Method = MethodGeo
			s.Confidence = match.Confidence
			trail.Record(s.ID, audit.EventResolved, "geo match to store %d (%.2f km, confidence %.2f)",
				match.SiteID, match.DistanceKm, match.Confidence)
			return
		}
	}

	if s.LocationText == "" {
		return
	}

	if e.text.Denied(s.LocationText) {
		debug.Output(e.opts.Trace, "submission %s: location text %q is denylisted", s.ID, s.LocationText)
		return
	}

	match, err := e.text.Match(s.LocationText)
	switch {
	case errors.Is(err, ErrAmbiguousText):
		debug.Output(e.opts.Trace, "submission %s: text %q ambiguous, left for pairing", s.ID, s.LocationText)
	case match != nil:
		s.StoreID = match.Store.ID
		s.Method = MethodText
		s.Confidence = match.Score
		trail.Record(s.ID, audit.EventResolved, "text match %q to store %d (score %.2f, exact %t)",
			s.LocationText, match.Store.ID, match.Score, match.Exact)
	}
}

func describeSignals(s *Submission) string {
	switch {
	case s.Coordinates != nil && s.LocationText != "":
		return "had coordinates and text"
	case s.Coordinates != nil:
		return "had coordinates only"
	case s.LocationText != "":
		return "had text only"
	default:
		return "had no location signal"
	}
}
