package listing

import "github.com/WessleyAI/autosphere/pkg/fn"

// Restriction is the AI match restriction: either inactive, or the set of
// vehicle ids returned by the last successful smart search.
type Restriction struct {
	active bool
	ids    []string
	set    map[string]struct{}
}

// Inactive returns a restriction that excludes nothing.
func Inactive() Restriction { return Restriction{} }

// Restrict returns an active restriction admitting only ids. An empty list
// is still active and admits nothing. Ids unknown to the catalog are kept.
func Restrict(ids []string) Restriction {
	ids = fn.Unique(ids)
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Restriction{active: true, ids: ids, set: set}
}

// Active reports whether the restriction applies.
func (r Restriction) Active() bool { return r.active }

// Allows reports whether a vehicle id passes the restriction.
func (r Restriction) Allows(id string) bool {
	if !r.active {
		return true
	}
	_, ok := r.set[id]
	return ok
}

// IDs returns the restriction ids in response order, or nil when inactive.
func (r Restriction) IDs() []string {
	if !r.active {
		return nil
	}
	return append([]string{}, r.ids...)
}
