package listing

import (
	"slices"
	"strings"

	"github.com/WessleyAI/autosphere/engine/catalog"
	"github.com/WessleyAI/autosphere/pkg/fn"
)

// Apply filters vehicles by c and r, then stable-sorts the survivors by key.
// Listings that tie on the sort field keep their catalog order. An unknown
// key falls back to DefaultSort.
func Apply(vehicles []catalog.Vehicle, c Criteria, r Restriction, key SortKey) []catalog.Vehicle {
	out := fn.Filter(vehicles, matcher(c, r))
	less := key.compare()
	if less == nil {
		less = DefaultSort.compare()
	}
	slices.SortStableFunc(out, func(a, b catalog.Vehicle) int {
		return less(keyOf(a), keyOf(b))
	})
	return out
}

// Matches reports whether v passes every predicate of c and the restriction r.
func Matches(v catalog.Vehicle, c Criteria, r Restriction) bool {
	return matcher(c, r)(v)
}

func matcher(c Criteria, r Restriction) func(catalog.Vehicle) bool {
	search := strings.ToLower(c.Search)
	return func(v catalog.Vehicle) bool {
		return matchesSearch(v, search) &&
			matchesMake(v, c.Make) &&
			matchesPrice(v, c.MinPrice, c.MaxPrice) &&
			(len(c.BodyTypes) == 0 || slices.Contains(c.BodyTypes, v.BodyType)) &&
			(len(c.FuelTypes) == 0 || slices.Contains(c.FuelTypes, v.FuelType)) &&
			r.Allows(v.ID)
	}
}

func matchesSearch(v catalog.Vehicle, lowered string) bool {
	if lowered == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v.Make), lowered) ||
		strings.Contains(strings.ToLower(v.Model), lowered)
}

func matchesMake(v catalog.Vehicle, want string) bool {
	return want == "" || v.Make == want
}

func matchesPrice(v catalog.Vehicle, minPrice, maxPrice int) bool {
	return v.Price >= minPrice && (maxPrice == 0 || v.Price <= maxPrice)
}

func keyOf(v catalog.Vehicle) vehicleKey {
	return vehicleKey{price: v.Price, year: v.Year, mileage: v.Mileage}
}
