package domain

import (
	"fmt"
	"maps"
	"slices"
)

// AggregateIdentifier is the census STATE value used for national and
// census-region total rows.
const AggregateIdentifier = 0

// PopulationRecord is one census row: a numeric state identifier (FIPS) and a
// population estimate for the reference year.
type PopulationRecord struct {
	Identifier int
	Estimate   int64
}

// Registry maps region codes to populations. It is immutable once built.
type Registry struct {
	populations map[string]int64
	codes       []string
}

// BuildRegistry converts census records into a region registry. Aggregate
// rows are excluded; an identifier absent from codes fails the whole build
// because every downstream step iterates the full region set.
func BuildRegistry(records []PopulationRecord, codes map[int]string) (*Registry, error) {
	pops := make(map[string]int64, len(codes))
	for _, rec := range records {
		if rec.Identifier == AggregateIdentifier {
			continue
		}
		code, ok := codes[rec.Identifier]
		if !ok {
			return nil, fmt.Errorf("build registry: %w: %d", ErrUnknownRegionIdentifier, rec.Identifier)
		}
		if rec.Estimate < 1 {
			return nil, fmt.Errorf("build registry: %w: %s has %d", ErrInvalidPopulation, code, rec.Estimate)
		}
		if _, dup := pops[code]; dup {
			return nil, fmt.Errorf("build registry: %w: %s", ErrDuplicateRegion, code)
		}
		pops[code] = rec.Estimate
	}

	return &Registry{
		populations: pops,
		codes:       slices.Sorted(maps.Keys(pops)),
	}, nil
}

// Codes returns the region codes in sorted order.
func (r *Registry) Codes() []string {
	return slices.Clone(r.codes)
}

func (r *Registry) Population(code string) (int64, bool) {
	p, ok := r.populations[code]
	return p, ok
}

func (r *Registry) Has(code string) bool {
	_, ok := r.populations[code]
	return ok
}

func (r *Registry) Len() int {
	return len(r.codes)
}

// DefaultStateCodes returns the census FIPS state number to postal code table
// for the 50 states, DC and Puerto Rico.
func DefaultStateCodes() map[int]string {
	return map[int]string{
		1: "AL", 2: "AK", 4: "AZ", 5: "AR", 6: "CA", 8: "CO", 9: "CT", 10: "DE",
		11: "DC", 12: "FL", 13: "GA", 15: "HI", 16: "ID", 17: "IL", 18: "IN",
		19: "IA", 20: "KS", 21: "KY", 22: "LA", 23: "ME", 24: "MD", 25: "MA",
		26: "MI", 27: "MN", 28: "MS", 29: "MO", 30: "MT", 31: "NE", 32: "NV",
		33: "NH", 34: "NJ", 35: "NM", 36: "NY", 37: "NC", 38: "ND", 39: "OH",
		40: "OK", 41: "OR", 42: "PA", 44: "RI", 45: "SC", 46: "SD", 47: "TN",
		48: "TX", 49: "UT", 50: "VT", 51: "VA", 53: "WA", 54: "WV", 55: "WI",
		56: "WY", 72: "PR",
	}
}
