package model_test

import (
	"testing"

	model "github.com/okian/relocator/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestSource(t *testing.T) {
	convey.Convey("Given lead sources", t, func() {
		convey.Convey("Then every listed source should be valid", func() {
			for _, s := range model.Sources() {
				convey.So(s.Valid(), convey.ShouldBeTrue)
			}
		})

		convey.Convey("And unknown sources should be rejected", func() {
			convey.So(model.Source("webinar").Valid(), convey.ShouldBeFalse)
			convey.So(model.Source("").Valid(), convey.ShouldBeFalse)
		})
	})
}

func TestRegionClone(t *testing.T) {
	convey.Convey("Given a region with attribute scores", t, func() {
		r := model.Region{
			ID:     "bretagne",
			Scores: map[model.Attribute]int{model.AttrCoastal: 9},
		}

		convey.Convey("When the clone is modified", func() {
			c := r.Clone()
			c.Scores[model.AttrCoastal] = 1

			convey.Convey("Then the original should be untouched", func() {
				convey.So(r.Score(model.AttrCoastal), convey.ShouldEqual, 9)
				convey.So(c.Score(model.AttrCoastal), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When reading a missing attribute", func() {
			convey.Convey("Then it should score zero", func() {
				convey.So(r.Score(model.AttrUrban), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestEnumerations(t *testing.T) {
	convey.Convey("Given the fixed enumerations", t, func() {
		convey.So(model.Attributes(), convey.ShouldHaveLength, 6)
		convey.So(model.MoveTiers(), convey.ShouldResemble, []model.MoveTier{model.TierMinimal, model.TierPartial, model.TierFull})
	})
}
