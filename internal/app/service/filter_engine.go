package service

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ikkim/venue-backend/internal/app/model"
)

// FacetState is the set of active filter selections. Values within one facet
// are OR-combined; facets are AND-combined.
type FacetState struct {
	Prefectures    []string `json:"prefectures"`
	CapacityRanges []string `json:"capacity_ranges"`
	Features       []string `json:"features"`
	PriceRanges    []string `json:"price_ranges"`
}

// IsEmpty reports whether no facet has a selection.
func (f FacetState) IsEmpty() bool {
	return len(f.Prefectures) == 0 &&
		len(f.CapacityRanges) == 0 &&
		len(f.Features) == 0 &&
		len(f.PriceRanges) == 0
}

// CapacityRange is a bucket over a venue's max capacity. Lower is exclusive
// and Upper inclusive; Upper < 0 means unbounded.
type CapacityRange struct {
	Key   string
	Label string
	Lower int
	Upper int
}

func (r CapacityRange) Contains(capacity int) bool {
	return capacity > r.Lower && (r.Upper < 0 || capacity <= r.Upper)
}

// CapacityRanges partition the non-negative integers.
var CapacityRanges = []CapacityRange{
	{Key: "0-50", Label: "50名以下", Lower: -1, Upper: 50},
	{Key: "51-100", Label: "51〜100名", Lower: 50, Upper: 100},
	{Key: "101-200", Label: "101〜200名", Lower: 100, Upper: 200},
	{Key: "201-", Label: "201名以上", Lower: 200, Upper: -1},
}

// PriceRange is a bucket over a venue's estimated total fee, with the same
// bound rules as CapacityRange.
type PriceRange struct {
	Key   string
	Label string
	Lower int64
	Upper int64
}

func (r PriceRange) Contains(fee int64) bool {
	return fee > r.Lower && (r.Upper < 0 || fee <= r.Upper)
}

var PriceRanges = []PriceRange{
	{Key: "0-30000", Label: "〜3万円", Lower: -1, Upper: 30000},
	{Key: "30000-50000", Label: "3〜5万円", Lower: 30000, Upper: 50000},
	{Key: "50000-100000", Label: "5〜10万円", Lower: 50000, Upper: 100000},
	{Key: "100000-", Label: "10万円〜", Lower: 100000, Upper: -1},
}

// estimatedTotal is the fee the price facet buckets on.
func estimatedTotal(v *model.Venue) (int64, bool) {
	if v.Fees == nil || v.Fees.EstimatedTotalFee == nil {
		return 0, false
	}
	return *v.Fees.EstimatedTotalFee, true
}

func findCapacityRange(key string) (CapacityRange, bool) {
	for _, r := range CapacityRanges {
		if r.Key == key {
			return r, true
		}
	}
	return CapacityRange{}, false
}

func findPriceRange(key string) (PriceRange, bool) {
	for _, r := range PriceRanges {
		if r.Key == key {
			return r, true
		}
	}
	return PriceRange{}, false
}

// Feature is a named venue predicate selectable as a filter.
type Feature struct {
	Key   string
	Label string
	Match func(v *model.Venue) bool
}

const nearStationMaxWalk = 5

func defaultFeatures() []Feature {
	return []Feature{
		{Key: "near-station", Label: "駅徒歩5分以内", Match: func(v *model.Venue) bool {
			for i := range v.Stations {
				if m, ok := v.Stations[i].WalkingMinutes(); ok && m <= nearStationMaxWalk {
					return true
				}
			}
			return false
		}},
		{Key: "parking", Label: "駐車場あり", Match: func(v *model.Venue) bool {
			return v.Parking != nil && v.Parking.Capacity != nil && *v.Parking.Capacity > 0
		}},
		{Key: "barrier-free", Label: "バリアフリー", Match: func(v *model.Venue) bool {
			return v.Facilities.IsBarrierFree.Available()
		}},
		{Key: "food-allowed", Label: "飲食可", Match: func(v *model.Venue) bool {
			return v.Facilities.CanEatDrink.Available()
		}},
		{Key: "shoes-allowed", Label: "土足可", Match: func(v *model.Venue) bool {
			return v.Facilities.CanWearShoes.Available()
		}},
		{Key: "earthquake-resistant", Label: "耐震基準適合", Match: func(v *model.Venue) bool {
			return v.Facilities.IsEarthquakeResistant.Available()
		}},
		{Key: "control-room", Label: "控室あり", Match: func(v *model.Venue) bool {
			return v.ControlRoomCount() > 0
		}},
	}
}

// FilterEngine applies FacetState selections to a venue collection. Features
// are held in a registry so new ones can be added without touching Apply.
type FilterEngine struct {
	mu       sync.RWMutex
	features map[string]Feature
	order    []string
}

func NewFilterEngine() *FilterEngine {
	e := &FilterEngine{features: make(map[string]Feature)}
	for _, f := range defaultFeatures() {
		if err := e.RegisterFeature(f); err != nil {
			panic(err)
		}
	}
	return e
}

// RegisterFeature adds f to the registry. Keys must be unique.
func (e *FilterEngine) RegisterFeature(f Feature) error {
	if f.Key == "" || f.Match == nil {
		return fmt.Errorf("feature requires a key and a predicate")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.features[f.Key]; exists {
		return fmt.Errorf("feature %q already registered", f.Key)
	}
	e.features[f.Key] = f
	e.order = append(e.order, f.Key)
	return nil
}

// Features lists the registered features in registration order.
func (e *FilterEngine) Features() []Feature {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Feature, 0, len(e.order))
	for _, key := range e.order {
		out = append(out, e.features[key])
	}
	return out
}

// Validate rejects bucket or feature keys the engine does not know.
func (e *FilterEngine) Validate(f FacetState) error {
	for _, key := range f.CapacityRanges {
		if _, ok := findCapacityRange(key); !ok {
			return fmt.Errorf("%w: capacity %q", ErrInvalidFacet, key)
		}
	}
	for _, key := range f.PriceRanges {
		if _, ok := findPriceRange(key); !ok {
			return fmt.Errorf("%w: price %q", ErrInvalidFacet, key)
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, key := range f.Features {
		if _, ok := e.features[key]; !ok {
			return fmt.Errorf("%w: feature %q", ErrInvalidFacet, key)
		}
	}
	return nil
}

// Apply returns the venues satisfying every non-empty facet, in input order.
// Unknown keys never match. With no selections the input comes back whole.
func (e *FilterEngine) Apply(venues []model.Venue, f FacetState) []model.Venue {
	if f.IsEmpty() {
		return cloneVenueSlice(venues)
	}

	match := e.predicate(f)
	result := make([]model.Venue, 0, len(venues))
	for i := range venues {
		if match(&venues[i]) {
			result = append(result, venues[i])
		}
	}
	return result
}

func (e *FilterEngine) predicate(f FacetState) func(v *model.Venue) bool {
	var checks []func(v *model.Venue) bool

	if len(f.Prefectures) > 0 {
		prefectures := make(map[string]struct{}, len(f.Prefectures))
		for _, p := range f.Prefectures {
			prefectures[p] = struct{}{}
		}
		checks = append(checks, func(v *model.Venue) bool {
			_, ok := prefectures[v.Prefecture]
			return ok
		})
	}

	if len(f.CapacityRanges) > 0 {
		var ranges []CapacityRange
		for _, key := range f.CapacityRanges {
			if r, ok := findCapacityRange(key); ok {
				ranges = append(ranges, r)
			}
		}
		checks = append(checks, func(v *model.Venue) bool {
			capacity := v.MaxCapacity()
			for _, r := range ranges {
				if r.Contains(capacity) {
					return true
				}
			}
			return false
		})
	}

	if len(f.Features) > 0 {
		e.mu.RLock()
		features := make([]Feature, 0, len(f.Features))
		for _, key := range f.Features {
			if feature, ok := e.features[key]; ok {
				features = append(features, feature)
			}
		}
		e.mu.RUnlock()

		checks = append(checks, func(v *model.Venue) bool {
			for _, feature := range features {
				if feature.Match(v) {
					return true
				}
			}
			return false
		})
	}

	if len(f.PriceRanges) > 0 {
		var ranges []PriceRange
		for _, key := range f.PriceRanges {
			if r, ok := findPriceRange(key); ok {
				ranges = append(ranges, r)
			}
		}
		checks = append(checks, func(v *model.Venue) bool {
			fee, ok := estimatedTotal(v)
			if !ok {
				return false
			}
			for _, r := range ranges {
				if r.Contains(fee) {
					return true
				}
			}
			return false
		})
	}

	return func(v *model.Venue) bool {
		for _, check := range checks {
			if !check(v) {
				return false
			}
		}
		return true
	}
}

// FacetOption is one selectable value with the number of venues it matches.
type FacetOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type FacetSummary struct {
	Prefectures    []FacetOption `json:"prefectures"`
	CapacityRanges []FacetOption `json:"capacity_ranges"`
	Features       []FacetOption `json:"features"`
	PriceRanges    []FacetOption `json:"price_ranges"`
}

// FacetCounts counts, for each selectable value, how many venues it matches on
// its own.
func (e *FilterEngine) FacetCounts(venues []model.Venue) FacetSummary {
	prefCounts := make(map[string]int)
	for i := range venues {
		prefCounts[venues[i].Prefecture]++
	}
	prefectures := make([]string, 0, len(prefCounts))
	for p := range prefCounts {
		if p != "" {
			prefectures = append(prefectures, p)
		}
	}
	sort.Strings(prefectures)

	summary := FacetSummary{
		Prefectures:    make([]FacetOption, 0, len(prefectures)),
		CapacityRanges: make([]FacetOption, 0, len(CapacityRanges)),
		PriceRanges:    make([]FacetOption, 0, len(PriceRanges)),
	}
	for _, p := range prefectures {
		summary.Prefectures = append(summary.Prefectures, FacetOption{Value: p, Label: p, Count: prefCounts[p]})
	}

	for _, r := range CapacityRanges {
		n := 0
		for i := range venues {
			if r.Contains(venues[i].MaxCapacity()) {
				n++
			}
		}
		summary.CapacityRanges = append(summary.CapacityRanges, FacetOption{Value: r.Key, Label: r.Label, Count: n})
	}

	for _, f := range e.Features() {
		n := 0
		for i := range venues {
			if f.Match(&venues[i]) {
				n++
			}
		}
		summary.Features = append(summary.Features, FacetOption{Value: f.Key, Label: f.Label, Count: n})
	}

	for _, r := range PriceRanges {
		n := 0
		for i := range venues {
			if fee, ok := estimatedTotal(&venues[i]); ok && r.Contains(fee) {
				n++
			}
		}
		summary.PriceRanges = append(summary.PriceRanges, FacetOption{Value: r.Key, Label: r.Label, Count: n})
	}

	return summary
}

func cloneVenueSlice(venues []model.Venue) []model.Venue {
	out := make([]model.Venue, len(venues))
	copy(out, venues)
	return out
}
