package filter_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/okian/rangeboard/internal/domain/filter"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDecode(t *testing.T) {
	Convey("Given query parameters", t, func() {
		Convey("When every dimension holds a JSON array", func() {
			q := url.Values{}
			q.Set("scoreboard", "[1,2]")
			q.Set("scorelist", "[7]")
			q.Set("stage", "[3,3,4]")
			sel, err := filter.Decode(q)

			Convey("Then each dimension is selected in order without duplicates", func() {
				So(err, ShouldBeNil)
				So(sel.Get(filter.Scoreboard), ShouldResemble, []int{1, 2})
				So(sel.Get(filter.Scorelist), ShouldResemble, []int{7})
				So(sel.Get(filter.Stage), ShouldResemble, []int{3, 4})
			})
		})

		Convey("When a parameter is absent or an empty array", func() {
			q := url.Values{}
			q.Set("stage", "[]")
			sel, err := filter.Decode(q)

			Convey("Then the dimension is unfiltered", func() {
				So(err, ShouldBeNil)
				So(sel.Get(filter.Scoreboard), ShouldBeEmpty)
				So(sel.Get(filter.Stage), ShouldBeEmpty)
			})
		})

		Convey("When a parameter is malformed", func() {
			q := url.Values{}
			q.Set("scoreboard", "[1,")
			q.Set("stage", "[5]")
			sel, err := filter.Decode(q)

			Convey("Then only that dimension fails and the rest still decode", func() {
				So(errors.Is(err, filter.ErrMalformedParam), ShouldBeTrue)
				var de *filter.DecodeError
				So(errors.As(err, &de), ShouldBeTrue)
				So(de.Dimension, ShouldEqual, filter.Scoreboard)
				So(sel.Get(filter.Scoreboard), ShouldBeEmpty)
				So(sel.Get(filter.Stage), ShouldResemble, []int{5})
			})
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Given a selection with non-empty dimensions", t, func() {
		sel := filter.Selection{
			filter.Scoreboard: {4, 1},
			filter.Stage:      {9},
		}

		Convey("Then decoding its encoding yields the same selection", func() {
			back, err := filter.Decode(filter.Encode(sel))
			So(err, ShouldBeNil)
			So(back, ShouldResemble, sel)
		})

		Convey("Then empty dimensions encode to an absent parameter", func() {
			sel[filter.Scorelist] = []int{}
			q := filter.Encode(sel)
			So(q.Has("scorelist"), ShouldBeFalse)
			So(q.Get("scoreboard"), ShouldEqual, "[4,1]")
		})
	})
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	Convey("Given a manager mounted on ?scoreboard=[1,2]", t, func() {
		u, _ := url.Parse("/statistics?scoreboard=%5B1%2C2%5D&tab=zones")
		m := filter.NewManager(ctx, u)

		Convey("Then the initial selection comes from the URL", func() {
			So(m.Selection().Get(filter.Scoreboard), ShouldResemble, []int{1, 2})
		})

		Convey("When the scoreboard selection is cleared", func() {
			So(m.Set(filter.Scoreboard, nil), ShouldBeNil)

			Convey("Then the parameter is removed and unrelated ones are kept", func() {
				So(m.Selection().Get(filter.Scoreboard), ShouldBeEmpty)
				So(m.Location(), ShouldEqual, "/statistics?tab=zones")
			})
		})

		Convey("When a stage is selected", func() {
			So(m.Set(filter.Stage, []int{3}), ShouldBeNil)

			Convey("Then the location carries both dimensions", func() {
				loc, err := url.Parse(m.Location())
				So(err, ShouldBeNil)
				So(loc.Path, ShouldEqual, "/statistics")
				So(loc.Query().Get("scoreboard"), ShouldEqual, "[1,2]")
				So(loc.Query().Get("stage"), ShouldEqual, "[3]")
				So(loc.Query().Get("tab"), ShouldEqual, "zones")
			})
		})

		Convey("When every parameter is cleared", func() {
			u, _ := url.Parse("/statistics?stage=%5B1%5D")
			m := filter.NewManager(ctx, u)
			So(m.Set(filter.Stage, []int{}), ShouldBeNil)

			Convey("Then the location has no query string", func() {
				So(m.Location(), ShouldEqual, "/statistics")
			})
		})

		Convey("When an unknown dimension is set", func() {
			err := m.Set(filter.Dimension("shooter"), []int{1})
			So(errors.Is(err, filter.ErrUnknownDimension), ShouldBeTrue)
		})

		Convey("When the selection copy is mutated", func() {
			sel := m.Selection()
			sel[filter.Scoreboard][0] = 99
			So(m.Selection().Get(filter.Scoreboard), ShouldResemble, []int{1, 2})
		})
	})

	Convey("Given a manager mounted on a malformed URL", t, func() {
		u, _ := url.Parse("/statistics?scorelist=notjson&stage=%5B2%5D")
		m := filter.NewManager(ctx, u)

		Convey("Then the malformed dimension is unfiltered", func() {
			So(m.Selection().Get(filter.Scorelist), ShouldBeEmpty)
			So(m.Selection().Get(filter.Stage), ShouldResemble, []int{2})
		})
	})
}
