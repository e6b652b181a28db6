package catalog

import "fmt"

// Catalog is the immutable, ordered set of listings for a process. It is
// built once at startup and shared by reference.
type Catalog struct {
	vehicles []Vehicle
	byID     map[string]int
}

// New validates vehicles and builds a Catalog preserving their order.
func New(vehicles []Vehicle) (*Catalog, error) {
	c := &Catalog{
		vehicles: make([]Vehicle, 0, len(vehicles)),
		byID:     make(map[string]int, len(vehicles)),
	}
	for i, v := range vehicles {
		if err := ValidateVehicle(v); err != nil {
			return nil, fmt.Errorf("catalog: vehicle %d: %w", i, err)
		}
		if _, dup := c.byID[v.ID]; dup {
			return nil, fmt.Errorf("catalog: vehicle %d: %w", i, NewValidationError("id", v.ID, ErrDuplicateID))
		}
		v = v.clone()
		c.byID[v.ID] = len(c.vehicles)
		c.vehicles = append(c.vehicles, v)
	}
	return c, nil
}

// MustNew is New for fixtures known to be valid.
func MustNew(vehicles []Vehicle) *Catalog {
	c, err := New(vehicles)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns a copy of every listing in catalog order.
func (c *Catalog) All() []Vehicle {
	out := make([]Vehicle, len(c.vehicles))
	for i, v := range c.vehicles {
		out[i] = v.clone()
	}
	return out
}

// Get returns the listing with the given id.
func (c *Catalog) Get(id string) (Vehicle, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Vehicle{}, false
	}
	return c.vehicles[i].clone(), true
}

// Len returns the number of listings.
func (c *Catalog) Len() int { return len(c.vehicles) }

// Makes returns the distinct makes present, in first-seen order.
func (c *Catalog) Makes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range c.vehicles {
		if !seen[v.Make] {
			seen[v.Make] = true
			out = append(out, v.Make)
		}
	}
	return out
}

// clone copies v with its own Features backing array.
func (v Vehicle) clone() Vehicle {
	v.Features = append([]string(nil), v.Features...)
	return v
}
