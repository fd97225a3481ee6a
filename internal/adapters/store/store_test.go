package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/breakpoint/internal/adapters/repository"
	"github.com/okian/breakpoint/internal/domain/calibration"
	"github.com/okian/breakpoint/internal/domain/model"
	"github.com/okian/breakpoint/internal/domain/train"
)

func sampleMatches() []model.Match {
	return []model.Match{
		{
			ID:      "m-001",
			Date:    time.Date(2021, 6, 28, 0, 0, 0, 0, time.UTC),
			Surface: model.SurfaceGrass,
			Level:   "Grand Slam",
			Round:   model.RoundR1,
			BestOf:  5,
			PlayerA: model.PlayerInfo{ID: "alice"},
			PlayerB: model.PlayerInfo{ID: "berta"},

			WinnerID: "alice",
			StatsA:   model.ServeStats{Valid: true, HoldRate: 0.85, BreakRate: 0.25},
			StatsB:   model.ServeStats{Valid: true, HoldRate: 0.78, BreakRate: 0.15},
		},
		{
			ID:       "m-002",
			Date:     time.Date(2021, 9, 2, 0, 0, 0, 0, time.UTC),
			Surface:  model.SurfaceHard,
			Indoor:   true,
			Level:    "ATP250",
			Round:    model.RoundQF,
			BestOf:   3,
			PlayerA:  model.PlayerInfo{ID: "carla"},
			PlayerB:  model.PlayerInfo{ID: "alice"},
			WinnerID: "alice",
			Retired:  true,
		},
	}
}

func TestMatchesRoundTrip(t *testing.T) {
	Convey("Given a canonical match table on disk", t, func() {
		path := filepath.Join(t.TempDir(), "atp_matches.csv")
		So(SaveMatches(path, sampleMatches()), ShouldBeNil)

		Convey("LoadMatches restores every field the schema carries", func() {
			got, err := LoadMatches(path)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)

			So(got[0].ID, ShouldEqual, "m-001")
			So(got[0].Date.Equal(time.Date(2021, 6, 28, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			So(got[0].Surface, ShouldEqual, model.SurfaceGrass)
			So(got[0].Round, ShouldEqual, model.RoundR1)
			So(got[0].BestOf, ShouldEqual, 5)
			So(got[0].WinnerID, ShouldEqual, "alice")
			So(got[0].StatsA.Valid, ShouldBeTrue)
			So(got[0].StatsA.HoldRate, ShouldEqual, 0.85)
			So(got[0].StatsB.BreakRate, ShouldEqual, 0.15)
			So(got[0].Retired, ShouldBeFalse)

			So(got[1].Indoor, ShouldBeTrue)
			So(got[1].Retired, ShouldBeTrue)

			Convey("Missing serve stats come back invalid, not zero-valid", func() {
				So(got[1].StatsA.Valid, ShouldBeFalse)
				So(got[1].StatsB.Valid, ShouldBeFalse)
			})
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := LoadMatches(filepath.Join(t.TempDir(), "nope.csv"))
		So(err, ShouldWrap, ErrNotFound)
	})

	Convey("Given a file with the wrong header", t, func() {
		path := filepath.Join(t.TempDir(), "bad.csv")
		So(writeCSV(path, [][]string{{"id", "when"}, {"x", "2020-01-01"}}), ShouldBeNil)
		_, err := LoadMatches(path)
		So(err, ShouldWrap, ErrBadSchema)
	})
}

func TestFeaturesRoundTrip(t *testing.T) {
	Convey("Given assembled feature vectors", t, func() {
		fvs := []model.FeatureVector{
			{
				MatchID:   "m-001",
				MatchDate: time.Date(2021, 6, 28, 0, 0, 0, 0, time.UTC),
				PlayerA:   "alice",
				PlayerB:   "berta",

				EloOverallDiff:  48.5,
				EloSurfaceDiff:  12,
				HoldPctDiff:     0.07,
				H2HAdvantage:    0.5,
				AgeDiff:         -3,
				HandInteraction: 1,
				SurfaceOrdinal:  2,
				Level:           4,
				RoundDepth:      1,
				BestOf:          5,

				DaysSinceA: 14,
				DaysSinceB: 7,
				AWon:       1,
			},
			{
				MatchID:   "m-002",
				MatchDate: time.Date(2021, 9, 2, 0, 0, 0, 0, time.UTC),
				PlayerA:   "carla",
				PlayerB:   "alice",
				Indoor:    1,
				BestOf:    3,
				AWon:      0,
			},
		}
		path := filepath.Join(t.TempDir(), "features.csv")
		So(SaveFeatures(path, fvs), ShouldBeNil)

		Convey("LoadFeatures restores the vectors exactly", func() {
			got, err := LoadFeatures(path)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].MatchDate.Equal(fvs[0].MatchDate), ShouldBeTrue)
			got[0].MatchDate = fvs[0].MatchDate
			got[1].MatchDate = fvs[1].MatchDate
			So(got, ShouldResemble, fvs)
		})

		Convey("The header pins the numeric feature schema", func() {
			header := featureHeader()
			So(header, ShouldHaveLength, len(featureMetaColumns)+len(model.FeatureNames())+len(featureTailColumns))
			So(header[0], ShouldEqual, "match_id")
			So(header[len(header)-1], ShouldEqual, "label")
		})
	})
}

func TestArtifacts(t *testing.T) {
	Convey("Given an artifacts directory", t, func() {
		dir := t.TempDir()

		Convey("Model params survive a save/load cycle", func() {
			params := train.LogisticParams{
				Means:   []float64{0.1, -0.2},
				Stds:    []float64{1.5, 0.9},
				Weights: []float64{0.4, -0.7},
				Bias:    0.05,
			}
			So(SaveModelParams(dir, params), ShouldBeNil)
			got, err := LoadModelParams(dir)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, params)
		})

		Convey("Calibration maps survive a save/load cycle", func() {
			m := calibration.Map{Method: "isotonic", Xs: []float64{0.2, 0.5, 0.8}, Ys: []float64{0.3, 0.5, 0.7}}
			So(SaveCalibration(dir, m), ShouldBeNil)
			got, err := LoadCalibration(dir)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, m)
		})

		Convey("Model cards survive a save/load cycle", func() {
			card := ModelCard{
				ModelVersion:  "bp-20210902-deadbeef",
				TrainedAt:     time.Date(2021, 9, 2, 10, 0, 0, 0, time.UTC),
				DataFrom:      "2015-01-03",
				DataTo:        "2021-08-30",
				Matches:       4200,
				SchemaVersion: "v1",
				Hyperparams:   map[string]string{"epochs": "300"},
				Calibration:   "platt",
				Metrics:       []MetricValue{{Name: "log_loss", Value: 0.62, Pass: true}},
				Promotable:    true,
			}
			So(SaveModelCard(dir, card), ShouldBeNil)
			got, err := LoadModelCard(dir)
			So(err, ShouldBeNil)
			So(got.ModelVersion, ShouldEqual, card.ModelVersion)
			So(got.TrainedAt.Equal(card.TrainedAt), ShouldBeTrue)
			So(got.Metrics, ShouldResemble, card.Metrics)
			So(got.Promotable, ShouldBeTrue)
		})

		Convey("Out-of-fold predictions survive a save/load cycle", func() {
			rows := []OOFRow{
				{Year: 2019, Raw: 0.71, Outcome: 1},
				{Year: 2019, Raw: 0.33, Outcome: 0},
				{Year: 2020, Raw: 0.5, Outcome: 1},
			}
			So(SaveOOF(dir, rows), ShouldBeNil)
			got, err := LoadOOF(dir)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, rows)
		})

		Convey("Loading from an empty directory reports not found", func() {
			_, err := LoadModelCard(t.TempDir())
			So(err, ShouldWrap, ErrNotFound)
		})

		Convey("A corrupt artifact reports a schema mismatch", func() {
			bad := t.TempDir()
			So(writeCSV(filepath.Join(bad, OOFFile), [][]string{oofColumns, {"not-a-year", "0.5", "1"}}), ShouldBeNil)
			_, err := LoadOOF(bad)
			So(err, ShouldWrap, ErrBadSchema)
		})
	})
}

func TestSaveRatings(t *testing.T) {
	ctx := context.Background()

	Convey("Given a populated rankings store", t, func() {
		repo := repository.NewMemStore()
		repo.Upsert("alice", 1580, 42)
		repo.Upsert("berta", 1460, 38)
		dir := t.TempDir()

		Convey("SaveRatings writes every player, best first", func() {
			So(SaveRatings(ctx, dir, repo), ShouldBeNil)
			rows, err := readCSV(filepath.Join(dir, RatingsFile), []string{"rank", "player_id", "elo_overall", "matches"})
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0][1], ShouldEqual, "alice")
			So(rows[1][1], ShouldEqual, "berta")
			So(rows[0][0], ShouldEqual, "1")
		})
	})

	Convey("Given an empty rankings store", t, func() {
		dir := t.TempDir()

		Convey("SaveRatings still writes a header-only file", func() {
			So(SaveRatings(ctx, dir, repository.NewMemStore()), ShouldBeNil)
			rows, err := readCSV(filepath.Join(dir, RatingsFile), []string{"rank"})
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})
	})
}
