// Package store holds the canonical store registry. The directory is
// built once, validated at load time, and read-only for the duration
// of an engine run, so concurrent lookups are safe.
package store

import (
	"fmt"
	"sort"

	"github.com/storematch/internal/geo"
	"github.com/storematch/internal/normalize"
)

// Classification buckets a store into its expected-submission quota.
type Classification string

const (
	ClassStandard Classification = "STANDARD"
	ClassReduced  Classification = "REDUCED"
	ClassSpecial  Classification = "SPECIAL"
)

// Quota is the expected submission count pair for one reporting cycle.
type Quota struct {
	Operational int
	Security    int
}

// DefaultQuotaTable maps classifications to expected counts. The
// assignment of classifications to stores is external configuration;
// only the shape of the mapping is fixed here.
func DefaultQuotaTable() map[Classification]Quota {
	return map[Classification]Quota{
		ClassStandard: {Operational: 4, Security: 4},
		ClassReduced:  {Operational: 2, Security: 2},
		ClassSpecial:  {Operational: 3, Security: 3},
	}
}

// StoreRecord is one canonical retail location.
type StoreRecord struct {
	ID             int
	Name           string
	Aliases        []string
	Coordinates    *geo.Point // nil when the site was never surveyed
	Classification Classification
	Group          string // organizational grouping, informational only
}

// ConfigurationError reports an invalid directory: duplicate ids or an
// alias claimed by two different stores. It is fatal and raised at
// load time, before any submission is processed.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return "store directory: " + e.Detail
}

// Directory is the validated, immutable store registry.
type Directory struct {
	byID    map[int]*StoreRecord
	byAlias map[string]int // canonical alias -> store id
	quotas  map[Classification]Quota
	ordered []*StoreRecord // sorted by id for deterministic iteration
}

// NewDirectory validates the record set and builds the lookup tables.
// The quota table may be nil, in which case DefaultQuotaTable applies.
func NewDirectory(records []StoreRecord, quotas map[Classification]Quota) (*Directory, error) {
	if quotas == nil {
		quotas = DefaultQuotaTable()
	}

	d := &Directory{
		byID:    make(map[int]*StoreRecord, len(records)),
		byAlias: make(map[string]int),
		quotas:  quotas,
	}

	for i := range records {
		rec := records[i]
		if rec.ID <= 0 {
			return nil, &ConfigurationError{Detail: fmt.Sprintf("store %q has invalid id %d", rec.Name, rec.ID)}
		}
		if prev, dup := d.byID[rec.ID]; dup {
			return nil, &ConfigurationError{Detail: fmt.Sprintf("duplicate store id %d (%q and %q)", rec.ID, prev.Name, rec.Name)}
		}
		if _, known := quotas[rec.Classification]; !known {
			return nil, &ConfigurationError{Detail: fmt.Sprintf("store %d has unknown classification %q", rec.ID, rec.Classification)}
		}

		stored := rec
		d.byID[rec.ID] = &stored
		d.ordered = append(d.ordered, &stored)

		for _, alias := range append([]string{rec.Name}, rec.Aliases...) {
			key := normalize.Canonical(alias)
			if key == "" {
				continue
			}
			if owner, taken := d.byAlias[key]; taken && owner != rec.ID {
				return nil, &ConfigurationError{Detail: fmt.Sprintf("alias %q maps to both store %d and store %d", key, owner, rec.ID)}
			}
			d.byAlias[key] = rec.ID
		}
	}

	sort.Slice(d.ordered, func(i, j int) bool { return d.ordered[i].ID < d.ordered[j].ID })
	return d, nil
}

// Get returns the store with the given id.
func (d *Directory) Get(id int) (*StoreRecord, bool) {
	rec, ok := d.byID[id]
	return rec, ok
}

// Stores returns all records ordered by id.
func (d *Directory) Stores() []*StoreRecord {
	return d.ordered
}

// LookupAlias resolves an already-normalized alias to its store.
func (d *Directory) LookupAlias(canonical string) (*StoreRecord, bool) {
	id, ok := d.byAlias[canonical]
	if !ok {
		return nil, false
	}
	return d.byID[id], true
}

// Aliases returns the canonical alias table (alias -> store id). The
// map is the directory's own; callers must not mutate it.
func (d *Directory) Aliases() map[string]int {
	return d.byAlias
}

// Nearest returns the store closest to the point among stores with
// known coordinates, with its distance in kilometres. Acceptance
// radius policy belongs to the geospatial resolver, not here.
func (d *Directory) Nearest(p geo.Point) (*StoreRecord, float64, bool) {
	var nearest *StoreRecord
	best := 0.0

	for _, rec := range d.ordered {
		if rec.Coordinates == nil {
			continue
		}
		dist := geo.Haversine(p, *rec.Coordinates)
		if nearest == nil || dist < best {
			nearest = rec
			best = dist
		}
	}

	if nearest == nil {
		return nil, 0, false
	}
	return nearest, best, true
}

// Sites returns the stores with known coordinates as resolver sites.
func (d *Directory) Sites() []geo.Site {
	sites := make([]geo.Site, 0, len(d.ordered))
	for _, rec := range d.ordered {
		if rec.Coordinates != nil {
			sites = append(sites, geo.Site{ID: rec.ID, Point: *rec.Coordinates})
		}
	}
	return sites
}

// ExpectedQuota returns the expected (operational, security) counts
// for a store. Unknown ids report zero quota.
func (d *Directory) ExpectedQuota(id int) (int, int) {
	rec, ok := d.byID[id]
	if !ok {
		return 0, 0
	}
	q := d.quotas[rec.Classification]
	return q.Operational, q.Security
}
