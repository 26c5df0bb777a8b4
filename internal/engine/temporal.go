package engine

import (
	"sort"
	"time"

	"github.com/storematch/internal/audit"
	"github.com/storematch/internal/debug"
)

// Companion confidence stays strictly below what GEO or TEXT can
// produce: propagation from a paired form is second-order evidence.
const temporalConfidenceCap = 0.80

// matchCompanions propagates resolved stores to unresolved same-day
// companion submissions. The matching is one-to-one: a resolved
// submission donates its store to at most one counterpart, and once
// used it leaves the pool.
//
// Candidates must share the calendar date and lie within the window.
// Same-submitter candidates take priority over smaller time deltas;
// within a priority class the smallest delta wins. Equally good
// candidates are ambiguous and the submission is left for quota
// fallback.
func matchCompanions(subs []*Submission, window time.Duration, trail *audit.Log, trace bool) []PairingLink {
	var unresolved, resolved []*Submission
	for _, s := range subs {
		if s.Resolved() {
			resolved = append(resolved, s)
		} else {
			unresolved = append(unresolved, s)
		}
	}

	// Deterministic processing order regardless of input order.
	sort.Slice(unresolved, func(i, j int) bool {
		if !unresolved[i].SubmittedAt.Equal(unresolved[j].SubmittedAt) {
			return unresolved[i].SubmittedAt.Before(unresolved[j].SubmittedAt)
		}
		return unresolved[i].ID < unresolved[j].ID
	})

	consumed := make(map[string]bool)
	var links []PairingLink

	for _, u := range unresolved {
		best, tied := pickCompanion(u, resolved, consumed, window)
		if best == nil {
			continue
		}
		if tied {
			debug.Output(trace, "submission %s: ambiguous companions, left for quota fallback", u.ID)
			continue
		}

		delta := absDelta(u.SubmittedAt, best.SubmittedAt)
		u.StoreID = best.StoreID
		u.Method = MethodTemporalPair
		u.Confidence = temporalConfidenceCap * (1 - float64(delta)/float64(window))
		consumed[best.ID] = true

		link := PairingLink{
			TimeDelta:     delta,
			SameSubmitter: u.SubmittedBy == best.SubmittedBy,
		}
		if u.FormType == FormOperational {
			link.OperationalID, link.SecurityID = u.ID, best.ID
		} else {
			link.OperationalID, link.SecurityID = best.ID, u.ID
		}
		links = append(links, link)

		trail.Record(u.ID, audit.EventResolved,
			"temporal pair with %s: store %d (delta %s, same submitter %t)",
			best.ID, best.StoreID, delta, link.SameSubmitter)
	}

	return links
}

// pickCompanion returns the best available companion for u, and
// whether the choice was tied between equally good candidates.
func pickCompanion(u *Submission, resolved []*Submission, consumed map[string]bool, window time.Duration) (*Submission, bool) {
	var best *Submission
	bestSame := false
	bestDelta := time.Duration(0)
	tied := false

	for _, c := range resolved {
		if c.FormType != u.FormType.Companion() || consumed[c.ID] {
			continue
		}
		if !sameDate(u.SubmittedAt, c.SubmittedAt) {
			continue
		}
		delta := absDelta(u.SubmittedAt, c.SubmittedAt)
		if delta > window {
			continue
		}

		same := c.SubmittedBy == u.SubmittedBy
		switch {
		case best == nil:
			best, bestSame, bestDelta, tied = c, same, delta, false
		case same && !bestSame:
			best, bestSame, bestDelta, tied = c, true, delta, false
		case same == bestSame && delta < bestDelta:
			best, bestDelta, tied = c, delta, false
		case same == bestSame && delta == bestDelta && c.StoreID != best.StoreID:
			tied = true
		}
	}

	return best, tied
}

func sameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
