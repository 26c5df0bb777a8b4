// Package balance corrects a resolution result against per-store
// expected-submission quotas. Surplus stores donate submissions to
// deficit stores under a deterministic preference order; unresolved
// submissions are placed first. Residual violations are reported,
// never forced.
package balance

import (
	"sort"
	"time"

	"github.com/storematch/internal/audit"
	"github.com/storematch/internal/engine"
	"github.com/storematch/internal/store"
)

// Confidence assigned to quota-fallback placements. Business-rule
// evidence only, weaker than any direct or paired signal.
const fallbackConfidence = 0.25

// BalanceQuotas runs the redistribution pass over a resolved batch,
// mutating the result in place and returning it. The pass is
// inherently sequential: every move changes the counts the next
// decision depends on.
//
// Running it twice with no intervening change is a no-op the second
// time: no surplus/deficit pairs remain to move and the input comes
// back unchanged.
func BalanceQuotas(res *engine.Result, directory *store.Directory) *engine.Result {
	b := &balancer{res: res, directory: directory}

	for _, form := range []engine.FormType{engine.FormOperational, engine.FormSecurity} {
		b.balanceForm(form)
	}

	b.reportResiduals()
	return res
}

type balancer struct {
	res       *engine.Result
	directory *store.Directory
}

// counts tallies resolved submissions of one form type per store.
func (b *balancer) counts(form engine.FormType) map[int]int {
	counts := make(map[int]int)
	for _, s := range b.res.Submissions {
		if s.Resolved() && s.FormType == form {
			counts[s.StoreID]++
		}
	}
	return counts
}

func (b *balancer) expected(storeID int, form engine.FormType) int {
	op, sec := b.directory.ExpectedQuota(storeID)
	if form == engine.FormOperational {
		return op
	}
	return sec
}

// balanceForm fills every deficit store of one form type, first from
// the unresolved pool, then by pulling from surplus stores.
func (b *balancer) balanceForm(form engine.FormType) {
	for _, rec := range b.directory.Stores() {
		for {
			counts := b.counts(form)
			deficit := b.expected(rec.ID, form) - counts[rec.ID]
			if deficit <= 0 {
				break
			}
			if !b.fillOne(rec.ID, form, counts) {
				break
			}
		}
	}
}

// fillOne moves a single submission into the deficit store. Returns
// false when no candidate remains.
func (b *balancer) fillOne(deficitID int, form engine.FormType, counts map[int]int) bool {
	pairDates := b.unpairedDates(deficitID, form)

	if s := b.pickCandidate(b.unresolvedPool(form), pairDates); s != nil {
		s.StoreID = deficitID
		s.Method = engine.MethodQuotaFallback
		s.Confidence = fallbackConfidence
		b.res.Audit.Record(s.ID, audit.EventResolved,
			"quota fallback: placed unresolved %s submission at store %d", form, deficitID)
		return true
	}

	if s := b.pickCandidate(b.surplusPool(form, counts), pairDates); s != nil {
		from := s.StoreID
		s.StoreID = deficitID
		s.Method = engine.MethodQuotaFallback
		s.Confidence = fallbackConfidence
		b.res.Audit.Record(s.ID, audit.EventReassigned,
			"quota fallback: moved %s submission from store %d to store %d", form, from, deficitID)
		return true
	}

	return false
}

// unresolvedPool returns unplaced submissions of the form type.
func (b *balancer) unresolvedPool(form engine.FormType) []*engine.Submission {
	var pool []*engine.Submission
	for _, s := range b.res.Submissions {
		if !s.Resolved() && s.FormType == form {
			pool = append(pool, s)
		}
	}
	return pool
}

// surplusPool returns submissions that may be pulled from stores above
// their own quota. A donor is only ever decremented down to its
// expected count, never into deficit.
func (b *balancer) surplusPool(form engine.FormType, counts map[int]int) []*engine.Submission {
	var pool []*engine.Submission
	for _, s := range b.res.Submissions {
		if !s.Resolved() || s.FormType != form {
			continue
		}
		if counts[s.StoreID] > b.expected(s.StoreID, form) {
			pool = append(pool, s)
		}
	}
	return pool
}

// pickCandidate applies the preference order: (a) a submission whose
// date restores a same-day pair at the deficit store, (b) the most
// recent submission, (c) lowest id as the final deterministic
// tie-break.
func (b *balancer) pickCandidate(pool []*engine.Submission, pairDates map[string]bool) *engine.Submission {
	if len(pool) == 0 {
		return nil
	}

	sort.Slice(pool, func(i, j int) bool {
		pi, pj := pairDates[dateKey(pool[i].SubmittedAt)], pairDates[dateKey(pool[j].SubmittedAt)]
		if pi != pj {
			return pi
		}
		if !pool[i].SubmittedAt.Equal(pool[j].SubmittedAt) {
			return pool[i].SubmittedAt.After(pool[j].SubmittedAt)
		}
		return pool[i].ID < pool[j].ID
	})

	return pool[0]
}

// unpairedDates lists dates on which the deficit store holds more
// submissions of the companion form type than of the given one, so a
// pulled submission on that date restores a same-day pair.
func (b *balancer) unpairedDates(storeID int, form engine.FormType) map[string]bool {
	same := make(map[string]int)
	other := make(map[string]int)
	for _, s := range b.res.Submissions {
		if !s.Resolved() || s.StoreID != storeID {
			continue
		}
		key := dateKey(s.SubmittedAt)
		if s.FormType == form {
			same[key]++
		} else {
			other[key]++
		}
	}

	dates := make(map[string]bool)
	for key, n := range other {
		if n > same[key] {
			dates[key] = true
		}
	}
	return dates
}

// reportResiduals records every store still off quota after the pass.
// Conflicts are rebuilt from scratch so a repeated run does not
// duplicate entries.
func (b *balancer) reportResiduals() {
	var conflicts []engine.QuotaConflict

	for _, form := range []engine.FormType{engine.FormOperational, engine.FormSecurity} {
		counts := b.counts(form)
		for _, rec := range b.directory.Stores() {
			expected := b.expected(rec.ID, form)
			if counts[rec.ID] != expected {
				conflicts = append(conflicts, engine.QuotaConflict{
					StoreID:  rec.ID,
					FormType: form,
					Expected: expected,
					Actual:   counts[rec.ID],
				})
			}
		}
	}

	if conflictsEqual(b.res.Conflicts, conflicts) {
		return
	}

	b.res.Conflicts = conflicts
	for _, c := range conflicts {
		b.res.Audit.Record("", audit.EventQuotaConflict,
			"store %d %s count %d, expected %d", c.StoreID, c.FormType, c.Actual, c.Expected)
	}
}

func conflictsEqual(a, b []engine.QuotaConflict) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
