package engine

import (
	"errors"

	"github.com/storematch/internal/normalize"
	"github.com/storematch/internal/store"
)

// ErrAmbiguousText is returned when two stores score within the margin
// of each other and the tag carries nothing to break the tie.
var ErrAmbiguousText = errors.New("text: two stores match equally well, refusing to guess")

// TextMatch is a confident alias-table hit.
type TextMatch struct {
	Store *store.StoreRecord
	Score float64
	Exact bool
}

// TextMatcher resolves free-text location tags against the directory's
// alias table: exact lookup first, then best-similarity with an
// ambiguity guard.
type TextMatcher struct {
	directory *store.Directory
	denylist  map[string]bool
	threshold float64
	margin    float64
}

// NewTextMatcher builds a matcher. The denylist holds known-user text
// entries (a submitter's own name typed into the location field) that
// must never be matched against store names.
func NewTextMatcher(d *store.Directory, denylist []string, threshold, margin float64) *TextMatcher {
	deny := make(map[string]bool, len(denylist))
	for _, entry := range denylist {
		if key := normalize.Canonical(entry); key != "" {
			deny[key] = true
		}
	}
	return &TextMatcher{directory: d, denylist: deny, threshold: threshold, margin: margin}
}

// Denied reports whether the tag is a known non-location entry.
func (tm *TextMatcher) Denied(raw string) bool {
	return tm.denylist[normalize.Canonical(raw)]
}

// Match resolves a raw tag. (nil, nil) means no confident match;
// ErrAmbiguousText means two stores tied.
func (tm *TextMatcher) Match(raw string) (*TextMatch, error) {
	canonical := normalize.Canonical(raw)
	if canonical == "" || tm.denylist[canonical] {
		return nil, nil
	}

	// Exact alias hit on the full tag.
	if rec, ok := tm.directory.LookupAlias(canonical); ok {
		return &TextMatch{Store: rec, Score: 1.0, Exact: true}, nil
	}

	// A numeric "12 - Centro" prefix names a store id directly. The
	// prefix disambiguates otherwise-identical names, so it is kept
	// out of the similarity comparison and consulted on ties.
	prefixID, rest := normalize.SplitNumberPrefix(raw)
	if prefixID > 0 {
		if rec, ok := tm.directory.LookupAlias(normalize.Canonical(rest)); ok {
			if prefixRec, exists := tm.directory.Get(prefixID); exists && prefixRec.ID != rec.ID {
				// Prefix and name point at different stores.
				return nil, ErrAmbiguousText
			}
			return &TextMatch{Store: rec, Score: 1.0, Exact: true}, nil
		}
	}

	return tm.fuzzyMatch(rest, prefixID)
}

// fuzzyMatch scores the tag against every alias, keeping the best and
// runner-up across distinct stores. The best wins only above the
// threshold and with a clear margin over the runner-up.
func (tm *TextMatcher) fuzzyMatch(text string, prefixID int) (*TextMatch, error) {
	bestScore, secondScore := 0.0, 0.0
	bestID, secondID := 0, 0

	for alias, id := range tm.directory.Aliases() {
		score := normalize.Similarity(text, alias)
		switch {
		case id == bestID:
			if score > bestScore {
				bestScore = score
			}
		case score > bestScore:
			secondScore, secondID = bestScore, bestID
			bestScore, bestID = score, id
		case score > secondScore && id != bestID:
			secondScore, secondID = score, id
		}
	}

	if bestID == 0 || bestScore < tm.threshold {
		return nil, nil
	}

	if secondID != 0 && bestScore-secondScore <= tm.margin {
		// Tie between two stores. A store-number prefix naming one of
		// them settles it; otherwise refuse to guess.
		switch prefixID {
		case bestID:
			// fall through to accept best
		case secondID:
			// The prefix confirms the runner-up, but only above the
			// acceptance threshold. A prefix pointing at a store the
			// text barely resembles is a contradiction, not a vote.
			if secondScore < tm.threshold {
				return nil, ErrAmbiguousText
			}
			rec, _ := tm.directory.Get(secondID)
			return &TextMatch{Store: rec, Score: secondScore}, nil
		default:
			return nil, ErrAmbiguousText
		}
	}

	// A prefix naming some other registered store contradicts the
	// fuzzy winner. Contradictory tags are never guessed at, same as
	// on the exact path.
	if prefixID > 0 && prefixID != bestID {
		if _, exists := tm.directory.Get(prefixID); exists {
			return nil, ErrAmbiguousText
		}
	}

	rec, _ := tm.directory.Get(bestID)
	return &TextMatch{Store: rec, Score: bestScore}, nil
}
