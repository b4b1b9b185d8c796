// Package catalog holds the read-only set of destination regions.
//
// A Catalog is built once and never mutated. Lookups on unknown ids report
// absence instead of failing; callers decide on the fallback.
package catalog

import (
	"fmt"
	"strings"

	"github.com/okian/relocator/internal/domain/model"
)

// Catalog is an immutable, ordered set of regions.
type Catalog struct {
	regions []model.Region
	index   map[string]int
}

// New validates regions and builds a Catalog preserving declaration order.
func New(regions []model.Region) (*Catalog, error) {
	if len(regions) == 0 {
		return nil, ErrEmptyCatalog
	}
	c := &Catalog{
		regions: make([]model.Region, 0, len(regions)),
		index:   make(map[string]int, len(regions)),
	}
	for i, r := range regions {
		r.ID = strings.TrimSpace(r.ID)
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("region %d: %w", i, err)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		c.index[r.ID] = len(c.regions)
		c.regions = append(c.regions, r.Clone())
	}
	return c, nil
}

// MustNew is New for static definitions; it panics on invalid input.
func MustNew(regions []model.Region) *Catalog {
	c, err := New(regions)
	if err != nil {
		panic(err)
	}
	return c
}

func validate(r model.Region) error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRegion)
	}
	if r.BaseCost <= 0 {
		return fmt.Errorf("%w: %s: base cost must be positive", ErrInvalidRegion, r.ID)
	}
	for _, a := range model.Attributes() {
		v, ok := r.Scores[a]
		if !ok {
			return fmt.Errorf("%w: %s: missing attribute %s", ErrInvalidRegion, r.ID, a)
		}
		if v < model.MinAttributeScore || v > model.MaxAttributeScore {
			return fmt.Errorf("%w: %s: attribute %s out of range: %d", ErrInvalidRegion, r.ID, a, v)
		}
	}
	return nil
}

// Lookup returns the region with the given id.
func (c *Catalog) Lookup(id string) (model.Region, bool) {
	i, ok := c.index[strings.TrimSpace(id)]
	if !ok {
		return model.Region{}, false
	}
	return c.regions[i].Clone(), true
}

// Default returns the first declared region.
func (c *Catalog) Default() model.Region {
	return c.regions[0].Clone()
}

// Resolve returns the region for id, or the default region when id is
// unknown. The boolean reports whether id itself resolved.
func (c *Catalog) Resolve(id string) (model.Region, bool) {
	if r, ok := c.Lookup(id); ok {
		return r, true
	}
	return c.Default(), false
}

// All returns every region in declaration order.
func (c *Catalog) All() []model.Region {
	out := make([]model.Region, len(c.regions))
	for i, r := range c.regions {
		out[i] = r.Clone()
	}
	return out
}

// Each calls fn for every region in declaration order without copying.
// fn must not retain or modify the region's score map.
func (c *Catalog) Each(fn func(i int, r *model.Region)) {
	for i := range c.regions {
		fn(i, &c.regions[i])
	}
}

// Len returns the number of regions.
func (c *Catalog) Len() int {
	return len(c.regions)
}

// Cheapest returns the region with the lowest base cost (first on ties).
func (c *Catalog) Cheapest() model.Region {
	best := 0
	for i := range c.regions {
		if c.regions[i].BaseCost < c.regions[best].BaseCost {
			best = i
		}
	}
	return c.regions[best].Clone()
}
