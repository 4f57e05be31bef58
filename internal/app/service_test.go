package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	service "github.com/Jaber-Ghorbani/arg-risk-lookup/internal/app"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

const sampleTable = `Genes,Mobility_level,Mobility_score,Final_Risk_score,Mechanism
mecA,high,0.8,0.9,PBP2a
vanA,low,0.2,0.1,ligase
blaTEM-1,medium,0.5,0.5,beta-lactamase
`

func writeTable(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func startService(t *testing.T, path string) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithTablePath(path),
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service over a sample table", t, func() {
		ctx := context.Background()
		path := writeTable(t, sampleTable)

		Convey("When starting with a valid table", func() {
			svc := startService(t, path)

			Convey("Then records are loaded", func() {
				So(svc.Count(ctx), ShouldEqual, 3)
			})

			Convey("And starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When the table file is missing", func() {
			svc := service.New(service.WithTablePath(filepath.Join(t.TempDir(), "nope.csv")))
			So(svc.Start(ctx), ShouldNotBeNil)
		})
	})
}

func TestServiceLookup(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(t, writeTable(t, sampleTable))

		Convey("When looking up an exact id", func() {
			candidates := svc.Lookup(ctx, "MecA", 0)

			Convey("Then it resolves exactly", func() {
				So(candidates, ShouldHaveLength, 1)
				So(candidates[0].Method, ShouldEqual, model.MatchExact)
				So(candidates[0].MatchedID, ShouldEqual, "meca")
			})
		})

		Convey("When looking up a misspelled id", func() {
			candidates := svc.Lookup(ctx, "vanaa", 0)

			Convey("Then the fuzzy stage finds it", func() {
				So(candidates[0].Matched(), ShouldBeTrue)
				So(candidates[0].Method, ShouldEqual, model.MatchFuzzy)
				So(candidates[0].MatchedID, ShouldEqual, "vana")
			})
		})

		Convey("When an explicit threshold rejects weak matches", func() {
			candidates := svc.Lookup(ctx, "vanaa", 0.99)
			So(candidates[0].Matched(), ShouldBeFalse)
		})

		Convey("When suggesting by prefix", func() {
			So(svc.Suggest(ctx, "bla", 10), ShouldResemble, []string{"blatem-1"})
		})
	})
}

func TestServiceFinalMarker(t *testing.T) {
	Convey("Given a service with a custom authoritative score column", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithTablePath(writeTable(t, sampleTable)),
			service.WithWorkerCount(2),
			service.WithQueueSize(64),
			service.WithFinalMarker("mobility"),
		)
		So(svc.Start(ctx), ShouldBeNil)
		t.Cleanup(svc.Stop)

		Convey("When scoring a resolved record", func() {
			candidates := svc.Lookup(ctx, "mecA", 0)
			So(candidates[0].Record, ShouldNotBeNil)
			score, ok := svc.Score(ctx, candidates[0].Record)

			Convey("Then the marked column wins over the default one", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldAlmostEqual, 0.8, 0.0001)
			})
		})
	})
}

func TestServiceBatchAndRiskIndex(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := startService(t, writeTable(t, sampleTable))

		Convey("When running a batch with one unknown id", func() {
			result := svc.Batch(ctx, []string{"mecA", "xyz123"}, 0)

			Convey("Then rows keep input order with summary counts", func() {
				So(result.Rows, ShouldHaveLength, 2)
				So(result.ID, ShouldNotBeEmpty)
				So(result.Matched, ShouldEqual, 1)
				So(result.Unmatched, ShouldEqual, 1)
				So(result.HasMean, ShouldBeTrue)
				So(result.MeanScore, ShouldAlmostEqual, 0.9, 0.0001)
			})
		})

		Convey("When computing a risk index", func() {
			total, contribs := svc.RiskIndex(ctx, []model.SampleItem{
				{Query: "mecA", Abundance: 10},
				{Query: "vanA", Abundance: 2},
				{Query: "xyz123", Abundance: 100},
			}, "")

			Convey("Then unmatched rows contribute zero", func() {
				So(total, ShouldAlmostEqual, 10*0.9+2*0.1, 0.0001)
				So(contribs, ShouldHaveLength, 3)
				So(contribs[2].Product, ShouldEqual, 0)
			})
		})

		Convey("When asking for the column partition", func() {
			cols := svc.Columns(ctx)
			So(cols.ID, ShouldEqual, "Genes")
			So(cols.Scores, ShouldResemble, []string{"Mobility_score", "Final_Risk_score"})
		})

		Convey("When asking for stats", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["records"], ShouldEqual, 3)
		})
	})
}

func TestServiceReload(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		path := writeTable(t, sampleTable)
		svc := startService(t, path)

		Convey("When the table file grows and is reloaded", func() {
			extended := sampleTable + "ndm-1,high,0.9,0.95,carbapenemase\n"
			So(os.WriteFile(path, []byte(extended), 0o600), ShouldBeNil)
			So(svc.Reload(ctx), ShouldBeNil)

			Convey("Then new records are visible", func() {
				So(svc.Count(ctx), ShouldEqual, 4)
				candidates := svc.Lookup(ctx, "ndm-1", 0)
				So(candidates[0].Method, ShouldEqual, model.MatchExact)
			})
		})

		Convey("When the replacement file is broken", func() {
			So(os.WriteFile(path, []byte("foo,bar\n1,2\n"), 0o600), ShouldBeNil)

			Convey("Then reload fails and the old table survives", func() {
				So(svc.Reload(ctx), ShouldNotBeNil)
				So(svc.Count(ctx), ShouldEqual, 3)
				candidates := svc.Lookup(ctx, "mecA", 0)
				So(candidates[0].Matched(), ShouldBeTrue)
			})
		})
	})
}
