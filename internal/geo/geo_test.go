package geo

import (
	"math"
	"testing"
)

// Test sites roughly follow the Monterrey metro layout the directory
// fixtures use: a few kilometres between stores.
var testSites = []Site{
	{ID: 1, Point: Point{Lat: 25.6866, Lon: -100.3161}}, // centro
	{ID: 2, Point: Point{Lat: 25.6751, Lon: -100.4456}}, // santa catarina
	{ID: 3, Point: Point{Lat: 25.7460, Lon: -100.2425}}, // linda vista
}

func TestHaversine(t *testing.T) {
	// One degree of latitude is about 111.19 km.
	a := Point{Lat: 25.0, Lon: -100.0}
	b := Point{Lat: 26.0, Lon: -100.0}

	got := Haversine(a, b)
	if math.Abs(got-111.19) > 0.5 {
		t.Errorf("Haversine one degree latitude = %.2f km, want ~111.19", got)
	}

	if d := Haversine(a, a); d != 0 {
		t.Errorf("Haversine of identical points = %f, want 0", d)
	}
}

func TestResolveExactLocation(t *testing.T) {
	r := Resolver{RadiusKm: 2.0, TieBandKm: 0.1}

	match, err := r.Resolve(testSites[1].Point, testSites)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match at the store's own coordinates")
	}
	if match.SiteID != 2 {
		t.Errorf("resolved to site %d, want 2", match.SiteID)
	}
	if match.DistanceKm != 0 {
		t.Errorf("distance = %f, want 0", match.DistanceKm)
	}
	if match.Confidence != 1.0 {
		t.Errorf("confidence = %f, want 1.0", match.Confidence)
	}
}

func TestResolveBeyondRadius(t *testing.T) {
	r := Resolver{RadiusKm: 2.0, TieBandKm: 0.1}

	// Saltillo, ~70 km from every test site. The nearest-but-too-far
	// store must not be returned.
	match, err := r.Resolve(Point{Lat: 25.4383, Lon: -100.9737}, testSites)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Errorf("expected no match, got site %d at %.2f km", match.SiteID, match.DistanceKm)
	}
}

func TestResolveTieIsAmbiguous(t *testing.T) {
	r := Resolver{RadiusKm: 2.0, TieBandKm: 0.1}

	// Two sites 60 m apart; a probe between them is a tie.
	sites := []Site{
		{ID: 10, Point: Point{Lat: 25.6600, Lon: -100.4000}},
		{ID: 11, Point: Point{Lat: 25.6605, Lon: -100.4000}},
	}

	_, err := r.Resolve(Point{Lat: 25.66025, Lon: -100.4000}, sites)
	if err != ErrAmbiguous {
		t.Errorf("expected ErrAmbiguous, got %v", err)
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := Resolver{RadiusKm: 2.0, TieBandKm: 0.1}
	probe := Point{Lat: 25.6900, Lon: -100.3200}

	first, err := r.Resolve(probe, testSites)
	if err != nil || first == nil {
		t.Fatalf("first resolve failed: match=%v err=%v", first, err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(probe, testSites)
		if err != nil || again == nil || *again != *first {
			t.Fatalf("resolve not deterministic on iteration %d: %v vs %v", i, again, first)
		}
	}
}

func TestResolveNoSites(t *testing.T) {
	r := Resolver{RadiusKm: 2.0, TieBandKm: 0.1}
	match, err := r.Resolve(Point{Lat: 25.0, Lon: -100.0}, nil)
	if match != nil || err != nil {
		t.Errorf("empty site list should yield no match, got %v, %v", match, err)
	}
}
