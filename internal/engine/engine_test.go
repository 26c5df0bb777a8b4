package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storematch/internal/audit"
	"github.com/storematch/internal/geo"
)

func fixedClock() func() time.Time {
	t := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func TestResolveBatchCascade(t *testing.T) {
	e := New(testDirectory(t), Options{Denylist: []string{"Juan Perez"}, Now: fixedClock()})

	subs := []*Submission{
		{
			// Coordinates at Santa Catarina itself; text says
			// something else. Geo runs first and wins.
			ID: "s-geo", FormType: FormOperational, SubmittedAt: ts(9, 0), SubmittedBy: "ana",
			Coordinates:  &geo.Point{Lat: 25.6751, Lon: -100.4456},
			LocationText: "Centro",
		},
		{
			// No fix, text alias only.
			ID: "s-text", FormType: FormOperational, SubmittedAt: ts(9, 30), SubmittedBy: "luis",
			LocationText: "sc",
		},
		{
			// Far from every store and the text is a submitter name:
			// stays unresolved through phase 1, no companion either.
			ID: "s-none", FormType: FormOperational, SubmittedAt: ts(16, 0), SubmittedBy: "juan",
			Coordinates:  &geo.Point{Lat: 25.4383, Lon: -100.9737},
			LocationText: "Juan Perez",
		},
		{
			// Companion of s-geo: no signal of its own, resolved in
			// phase 2 by pairing.
			ID: "s-pair", FormType: FormSecurity, SubmittedAt: ts(10, 0), SubmittedBy: "ana",
		},
	}

	res := e.ResolveBatch(subs)
	byID := make(map[string]*Submission)
	for _, s := range res.Submissions {
		byID[s.ID] = s
	}

	sGeo := byID["s-geo"]
	assert.Equal(t, 2, sGeo.StoreID)
	assert.Equal(t, MethodGeo, sGeo.Method)
	assert.Equal(t, 1.0, sGeo.Confidence)

	sText := byID["s-text"]
	assert.Equal(t, 2, sText.StoreID)
	assert.Equal(t, MethodText, sText.Method)
	assert.Equal(t, 1.0, sText.Confidence)

	sPair := byID["s-pair"]
	assert.Equal(t, 2, sPair.StoreID)
	assert.Equal(t, MethodTemporalPair, sPair.Method)
	assert.Less(t, sPair.Confidence, sText.Confidence, "pairing evidence is second-order")

	sNone := byID["s-none"]
	assert.False(t, sNone.Resolved())
	assert.Equal(t, MethodUnresolved, sNone.Method)

	require.Len(t, res.Pairings, 1)
	assert.Equal(t, "s-geo", res.Pairings[0].OperationalID)
	assert.Equal(t, "s-pair", res.Pairings[0].SecurityID)

	counts := res.Audit.CountByEvent()
	assert.Equal(t, 3, counts[audit.EventResolved])
	assert.Equal(t, 1, counts[audit.EventUnresolved])

	require.Len(t, res.Unresolved(), 1)
	assert.NotEmpty(t, res.RunID)
}

func TestResolveBatchDeterministicAcrossInputOrder(t *testing.T) {
	build := func() []*Submission {
		return []*Submission{
			{ID: "a", FormType: FormOperational, SubmittedAt: ts(9, 0), SubmittedBy: "ana", LocationText: "Centro"},
			{ID: "b", FormType: FormSecurity, SubmittedAt: ts(10, 0), SubmittedBy: "ana"},
			{ID: "c", FormType: FormOperational, SubmittedAt: ts(9, 5), SubmittedBy: "luis",
				Coordinates: &geo.Point{Lat: 25.7200, Lon: -100.3700}},
		}
	}

	e := New(testDirectory(t), Options{Now: fixedClock()})

	first := e.ResolveBatch(build())

	shuffled := build()
	shuffled[0], shuffled[2] = shuffled[2], shuffled[0]
	second := e.ResolveBatch(shuffled)

	require.Equal(t, len(first.Submissions), len(second.Submissions))
	for i := range first.Submissions {
		assert.Equal(t, first.Submissions[i].ID, second.Submissions[i].ID)
		assert.Equal(t, first.Submissions[i].StoreID, second.Submissions[i].StoreID)
		assert.Equal(t, first.Submissions[i].Method, second.Submissions[i].Method)
	}
	assert.Equal(t, first.Pairings, second.Pairings)
}

func TestResolveBatchGeoAmbiguousFallsToText(t *testing.T) {
	e := New(testDirectory(t), Options{GeoTieBandKm: 20.0, Now: fixedClock()})

	// With an absurdly wide tie band every coordinate is ambiguous, so
	// the text strategy must take over.
	sub := &Submission{
		ID: "s-1", FormType: FormOperational, SubmittedAt: ts(9, 0), SubmittedBy: "ana",
		Coordinates:  &geo.Point{Lat: 25.6866, Lon: -100.3161},
		LocationText: "Centro",
	}

	res := e.ResolveBatch([]*Submission{sub})
	got := res.Submissions[0]
	assert.Equal(t, 1, got.StoreID)
	assert.Equal(t, MethodText, got.Method)
}

func TestResolveBatchEmptyBatch(t *testing.T) {
	e := New(testDirectory(t), Options{Now: fixedClock()})
	res := e.ResolveBatch(nil)
	assert.Empty(t, res.Submissions)
	assert.Empty(t, res.Pairings)
	assert.Empty(t, res.Audit.Entries())
}
