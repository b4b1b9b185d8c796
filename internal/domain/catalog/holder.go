package catalog

import (
	"fmt"
	"sync/atomic"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/relocator/internal/domain/model"
)

// Holder publishes the current catalog snapshot. Readers always see a
// complete catalog; reloads replace the pointer, never the entries.
type Holder struct {
	cur atomic.Pointer[Catalog]
}

// NewHolder returns a Holder serving c.
func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.cur.Store(c)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Catalog {
	return h.cur.Load()
}

// Swap installs c and returns the previous snapshot.
func (h *Holder) Swap(c *Catalog) *Catalog {
	return h.cur.Swap(c)
}

// fileCatalog mirrors the YAML layout:
//
//	regions:
//	  - id: bretagne
//	    name: Bretagne
//	    base_cost: 750
//	    climate_tag: oceanic
//	    community_size: medium-large
//	    attribute_scores: {urban: 3, coastal: 9, ...}
type fileCatalog struct {
	Regions []model.Region `koanf:"regions"`
}

// LoadFile builds a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}
	var fc fileCatalog
	if err := k.UnmarshalWithConf("", &fc, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadCatalog, path, err)
	}
	return New(fc.Regions)
}

// Watch reloads path whenever it changes and swaps the snapshot on success.
// A failed reload keeps the previous snapshot. onReload, if set, observes
// every attempt. The returned stop function ends the watch.
func (h *Holder) Watch(path string, onReload func(*Catalog, error)) (func(), error) {
	fp := file.Provider(path)
	err := fp.Watch(func(_ interface{}, werr error) {
		if werr != nil {
			if onReload != nil {
				onReload(nil, fmt.Errorf("%w: watch %s: %w", ErrLoadCatalog, path, werr))
			}
			return
		}
		c, lerr := LoadFile(path)
		if lerr == nil {
			h.Swap(c)
		}
		if onReload != nil {
			onReload(c, lerr)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: watch %s: %w", ErrLoadCatalog, path, err)
	}
	return func() { _ = fp.Unwatch() }, nil
}
