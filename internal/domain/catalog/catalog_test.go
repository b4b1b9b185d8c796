package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fullScores(v int) map[model.Attribute]int {
	out := make(map[model.Attribute]int)
	for _, a := range model.Attributes() {
		out[a] = v
	}
	return out
}

func TestBuiltin(t *testing.T) {
	Convey("Given the builtin catalog", t, func() {
		c := catalog.Builtin()

		Convey("Then it should hold the six regions in declaration order", func() {
			So(c.Len(), ShouldEqual, 6)
			all := c.All()
			So(all[0].ID, ShouldEqual, "ile-de-france")
			So(all[5].ID, ShouldEqual, "auvergne-rhone-alpes")
		})

		Convey("And every region should define every attribute", func() {
			for _, r := range c.All() {
				for _, a := range model.Attributes() {
					_, ok := r.Scores[a]
					So(ok, ShouldBeTrue)
				}
			}
		})

		Convey("And the default region should be the first entry", func() {
			So(c.Default().ID, ShouldEqual, "ile-de-france")
		})

		Convey("And the cheapest region should be Bretagne", func() {
			So(c.Cheapest().ID, ShouldEqual, "bretagne")
		})
	})
}

func TestLookup(t *testing.T) {
	Convey("Given the builtin catalog", t, func() {
		c := catalog.Builtin()

		Convey("When looking up a known id", func() {
			r, ok := c.Lookup("occitanie")

			Convey("Then it should be found", func() {
				So(ok, ShouldBeTrue)
				So(r.Name, ShouldEqual, "Occitanie")
			})
		})

		Convey("When looking up an unknown id", func() {
			r, ok := c.Lookup("atlantis")

			Convey("Then it should report absence without failing", func() {
				So(ok, ShouldBeFalse)
				So(r.ID, ShouldBeEmpty)
			})
		})

		Convey("When resolving an unknown id", func() {
			r, ok := c.Resolve("")

			Convey("Then it should fall back to the default region", func() {
				So(ok, ShouldBeFalse)
				So(r.ID, ShouldEqual, "ile-de-france")
			})
		})

		Convey("When a caller mutates a returned region", func() {
			r, _ := c.Lookup("bretagne")
			r.Scores[model.AttrUrban] = 10
			r.BaseCost = 1

			Convey("Then the catalog should be unaffected", func() {
				again, _ := c.Lookup("bretagne")
				So(again.Score(model.AttrUrban), ShouldEqual, 3)
				So(again.BaseCost, ShouldEqual, 750)
			})
		})
	})
}

func TestNewValidation(t *testing.T) {
	Convey("Given region definitions", t, func() {
		valid := model.Region{ID: "a", BaseCost: 100, Scores: fullScores(5)}

		Convey("When the list is empty", func() {
			_, err := catalog.New(nil)
			So(errors.Is(err, catalog.ErrEmptyCatalog), ShouldBeTrue)
		})

		Convey("When an attribute is missing", func() {
			partial := valid
			partial.Scores = map[model.Attribute]int{model.AttrUrban: 5}
			_, err := catalog.New([]model.Region{partial})
			So(errors.Is(err, catalog.ErrInvalidRegion), ShouldBeTrue)
		})

		Convey("When an attribute is out of range", func() {
			bad := valid
			bad.Scores = fullScores(11)
			_, err := catalog.New([]model.Region{bad})
			So(errors.Is(err, catalog.ErrInvalidRegion), ShouldBeTrue)
		})

		Convey("When the base cost is not positive", func() {
			bad := valid
			bad.BaseCost = 0
			_, err := catalog.New([]model.Region{bad})
			So(errors.Is(err, catalog.ErrInvalidRegion), ShouldBeTrue)
		})

		Convey("When two regions share an id", func() {
			_, err := catalog.New([]model.Region{valid, valid})
			So(errors.Is(err, catalog.ErrDuplicateID), ShouldBeTrue)
		})

		Convey("When the input slice is modified after construction", func() {
			regions := []model.Region{valid}
			c, err := catalog.New(regions)
			So(err, ShouldBeNil)
			regions[0].Scores[model.AttrUrban] = 0

			Convey("Then the catalog should keep its own copy", func() {
				r, _ := c.Lookup("a")
				So(r.Score(model.AttrUrban), ShouldEqual, 5)
			})
		})
	})
}

const yamlCatalog = `
regions:
  - id: north
    name: North
    description: Cold and quiet
    base_cost: 600
    climate_tag: continental
    community_size: small
    attribute_scores:
      urban: 2
      coastal: 3
      rural: 9
      culturalAffinity: 4
      familyFit: 7
      careerFit: 3
  - id: south
    name: South
    base_cost: 900
    climate_tag: mediterranean
    community_size: large
    attribute_scores:
      urban: 6
      coastal: 9
      rural: 5
      culturalAffinity: 8
      familyFit: 6
      careerFit: 5
`

func TestLoadFile(t *testing.T) {
	Convey("Given a YAML catalog file", t, func() {
		path := filepath.Join(t.TempDir(), "regions.yaml")
		So(os.WriteFile(path, []byte(yamlCatalog), 0o600), ShouldBeNil)

		Convey("When loading it", func() {
			c, err := catalog.LoadFile(path)

			Convey("Then it should build a catalog in file order", func() {
				So(err, ShouldBeNil)
				So(c.Len(), ShouldEqual, 2)
				So(c.Default().ID, ShouldEqual, "north")
				south, ok := c.Lookup("south")
				So(ok, ShouldBeTrue)
				So(south.Score(model.AttrCoastal), ShouldEqual, 9)
				So(south.CommunitySize, ShouldEqual, model.CommunityLarge)
			})
		})

		Convey("When the file does not exist", func() {
			_, err := catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
			So(errors.Is(err, catalog.ErrLoadCatalog), ShouldBeTrue)
		})
	})
}

func TestHolder(t *testing.T) {
	Convey("Given a holder serving the builtin catalog", t, func() {
		h := catalog.NewHolder(catalog.Builtin())

		Convey("When swapping in a new snapshot", func() {
			next := catalog.MustNew([]model.Region{{ID: "solo", BaseCost: 1, Scores: fullScores(1)}})
			prev := h.Swap(next)

			Convey("Then readers should see the new snapshot and the old one stays intact", func() {
				So(h.Load().Len(), ShouldEqual, 1)
				So(prev.Len(), ShouldEqual, 6)
			})
		})
	})
}

func TestHolderWatch(t *testing.T) {
	Convey("Given a holder watching a catalog file", t, func() {
		path := filepath.Join(t.TempDir(), "regions.yaml")
		So(os.WriteFile(path, []byte(yamlCatalog), 0o600), ShouldBeNil)
		initial, err := catalog.LoadFile(path)
		So(err, ShouldBeNil)

		h := catalog.NewHolder(initial)
		reloaded := make(chan int, 16)
		stop, err := h.Watch(path, func(c *catalog.Catalog, err error) {
			if err == nil && c != nil {
				reloaded <- c.Len()
			}
		})
		So(err, ShouldBeNil)
		defer stop()

		Convey("When the file is rewritten with one region", func() {
			one := yamlCatalog[:strings.Index(yamlCatalog, "  - id: south")]
			So(os.WriteFile(path, []byte(one), 0o600), ShouldBeNil)

			Convey("Then the holder should serve the new snapshot", func() {
				deadline := time.After(5 * time.Second)
				got := 0
				for got != 1 {
					select {
					case got = <-reloaded:
					case <-deadline:
						So(got, ShouldEqual, 1)
						return
					}
				}
				So(h.Load().Len(), ShouldEqual, 1)
				So(h.Load().Default().ID, ShouldEqual, "north")
			})
		})
	})
}
