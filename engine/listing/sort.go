package listing

import (
	"cmp"
	"errors"
	"fmt"
)

// ErrUnknownSortKey is returned by ParseSortKey for unsupported keys.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortKey selects the ordering of the displayed listings.
type SortKey string

const (
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortYearDesc   SortKey = "year-desc"
	SortMileageAsc SortKey = "mileage-asc"
)

// DefaultSort shows the newest listings first.
const DefaultSort = SortYearDesc

// SortKeys returns the supported keys in sort-menu order.
func SortKeys() []SortKey {
	return []SortKey{SortYearDesc, SortPriceAsc, SortPriceDesc, SortMileageAsc}
}

// ParseSortKey converts s into a SortKey. An empty string yields DefaultSort.
func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return DefaultSort, nil
	}
	k := SortKey(s)
	if k.compare() == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
	return k, nil
}

func (k SortKey) compare() func(a, b vehicleKey) int {
	switch k {
	case SortPriceAsc:
		return func(a, b vehicleKey) int { return cmp.Compare(a.price, b.price) }
	case SortPriceDesc:
		return func(a, b vehicleKey) int { return cmp.Compare(b.price, a.price) }
	case SortYearDesc:
		return func(a, b vehicleKey) int { return cmp.Compare(b.year, a.year) }
	case SortMileageAsc:
		return func(a, b vehicleKey) int { return cmp.Compare(a.mileage, b.mileage) }
	}
	return nil
}

type vehicleKey struct {
	price, year, mileage int
}
