package model_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/notfound/ballog/internal/domain/model"
)

func TestSide(t *testing.T) {
	Convey("Given wire side values", t, func() {
		Convey("Then LEFT matches case-insensitively", func() {
			So(model.Side("LEFT").IsLeft(), ShouldBeTrue)
			So(model.Side("left").IsLeft(), ShouldBeTrue)
			So(model.Side("Left").IsLeft(), ShouldBeTrue)
			So(model.Side("RIGHT").IsLeft(), ShouldBeFalse)
		})

		Convey("Then anything that is not LEFT normalizes to RIGHT", func() {
			So(model.Side("left").Normalized(), ShouldEqual, model.SideLeft)
			So(model.Side("right").Normalized(), ShouldEqual, model.SideRight)
			So(model.Side("midfield").Normalized(), ShouldEqual, model.SideRight)
			So(model.Side("").Normalized(), ShouldEqual, model.SideRight)
		})
	})
}

func TestPlayerProfileScores(t *testing.T) {
	Convey("Given a player profile", t, func() {
		p := model.PlayerProfile{Attack: 76, Defense: 3, Speed: 60, Stamina: 40, Recovery: 12}

		Convey("Then Scores round-trips through SetScores", func() {
			s := p.Scores()
			So(s, ShouldResemble, model.AbilityScores{Attack: 76, Defense: 3, Speed: 60, Stamina: 40, Recovery: 12})

			var q model.PlayerProfile
			q.SetScores(s)
			So(q.Scores(), ShouldResemble, s)
		})
	})
}
