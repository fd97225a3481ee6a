package split_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/okian/breakpoint/internal/domain/model"
	"github.com/okian/breakpoint/internal/domain/split"
	. "github.com/smartystreets/goconvey/convey"
)

// season fabricates n date-sorted vectors spread over one calendar year.
func season(year, n int) []model.FeatureVector {
	out := make([]model.FeatureVector, n)
	for i := range out {
		out[i] = model.FeatureVector{
			MatchID:   fmt.Sprintf("%d-%d", year, i),
			MatchDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%300),
		}
	}
	return out
}

func seasons(perYear map[int]int, years ...int) []model.FeatureVector {
	var out []model.FeatureVector
	for _, y := range years {
		out = append(out, season(y, perYear[y])...)
	}
	return out
}

func TestSplit(t *testing.T) {
	Convey("Given four full seasons", t, func() {
		perYear := map[int]int{2018: 50, 2019: 60, 2020: 70, 2021: 80}
		features := seasons(perYear, 2018, 2019, 2020, 2021)

		Convey("When split over the full range", func() {
			folds, skipped, err := split.Split(features, split.Config{
				StartYear:  2018,
				EndYear:    2021,
				MinMatches: 10,
			})

			Convey("Then each validation year trains on everything before it", func() {
				So(err, ShouldBeNil)
				So(skipped, ShouldBeEmpty)
				So(len(folds), ShouldEqual, 3)

				So(folds[0].Year, ShouldEqual, 2019)
				So(len(folds[0].Train), ShouldEqual, 50)
				So(len(folds[0].Validate), ShouldEqual, 60)

				So(folds[2].Year, ShouldEqual, 2021)
				So(len(folds[2].Train), ShouldEqual, 180)
				So(len(folds[2].Validate), ShouldEqual, 80)
			})

			Convey("And every fold's boundary separates train from validate", func() {
				So(err, ShouldBeNil)
				for _, f := range folds {
					last := f.Train[len(f.Train)-1].MatchDate
					first := f.Validate[0].MatchDate
					So(last.Before(first), ShouldBeTrue)
				}
			})
		})

		Convey("When a validation year is sparse", func() {
			folds, skipped, err := split.Split(features, split.Config{
				StartYear:  2018,
				EndYear:    2021,
				MinMatches: 65,
			})

			Convey("Then thin years are reported, not merged", func() {
				So(err, ShouldBeNil)
				So(len(folds), ShouldEqual, 2)
				So(len(skipped), ShouldEqual, 1)
				So(skipped[0].Year, ShouldEqual, 2019)
				So(skipped[0].Matches, ShouldEqual, 60)
				So(skipped[0].Reason, ShouldWrap, split.ErrInsufficientFoldData)
			})
		})

		Convey("When the first fold year has no history", func() {
			_, skipped, err := split.Split(features, split.Config{
				StartYear:  2017,
				EndYear:    2021,
				MinMatches: 10,
			})

			Convey("Then 2018 is skipped for lack of training data", func() {
				So(err, ShouldBeNil)
				So(len(skipped), ShouldEqual, 1)
				So(skipped[0].Year, ShouldEqual, 2018)
			})
		})
	})

	Convey("Given unsorted input", t, func() {
		features := seasons(map[int]int{2019: 10, 2018: 10}, 2019, 2018)

		Convey("Then Split refuses to build folds", func() {
			_, _, err := split.Split(features, split.Config{StartYear: 2018, EndYear: 2019, MinMatches: 1})
			So(err, ShouldWrap, split.ErrFoldOrdering)
		})
	})

	Convey("Given an empty year range", t, func() {
		_, _, err := split.Split(nil, split.Config{StartYear: 2020, EndYear: 2020, MinMatches: 1})
		So(err, ShouldWrap, split.ErrInsufficientFoldData)
	})
}
