// Package geo resolves coordinate pairs to the nearest registered
// store site. It is stateless and pure: the same input always yields
// the same output.
package geo

import (
	"errors"
	"math"
)

const earthRadiusKm = 6371.0

// ErrAmbiguous is returned when two sites sit within the tie band of
// the minimum distance and neither can be preferred.
var ErrAmbiguous = errors.New("geo: two sites equally near, refusing to guess")

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Site is a resolution target with known coordinates.
type Site struct {
	ID    int
	Point Point
}

// Match is a confident nearest-site result.
type Match struct {
	SiteID     int
	DistanceKm float64
	Confidence float64 // 1.0 at distance 0, falling linearly to 0 at the radius
}

// Haversine returns the great-circle distance between two points in
// kilometres.
func Haversine(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Resolver finds the nearest site under an acceptance radius.
type Resolver struct {
	RadiusKm  float64 // matches beyond this distance are rejected
	TieBandKm float64 // second site within this band of the best is a tie
}

// Resolve returns the nearest site if it lies within the acceptance
// radius. A site further than the radius from everything yields
// (nil, nil): no confident match, never the nearest-but-too-far site.
// Two sites within the tie band of each other yield ErrAmbiguous.
func (r Resolver) Resolve(p Point, sites []Site) (*Match, error) {
	bestDist := math.Inf(1)
	secondDist := math.Inf(1)
	bestID := 0

	for _, s := range sites {
		d := Haversine(p, s.Point)
		switch {
		case d < bestDist:
			secondDist = bestDist
			bestDist = d
			bestID = s.ID
		case d < secondDist:
			secondDist = d
		}
	}

	if math.IsInf(bestDist, 1) || bestDist > r.RadiusKm {
		return nil, nil
	}
	if secondDist-bestDist <= r.TieBandKm {
		return nil, ErrAmbiguous
	}

	confidence := 1.0 - bestDist/r.RadiusKm
	if confidence < 0 {
		confidence = 0
	}

	return &Match{SiteID: bestID, DistanceKm: bestDist, Confidence: confidence}, nil
}
