package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/repository"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleHeader() []string {
	return []string{"Genes", "Mobility_level", "Mobility_score", "Final_Risk_score", "Mechanism"}
}

func sampleRows() []model.Row {
	return []model.Row{
		{"Genes": "mecA", "Mobility_level": "high", "Mobility_score": "0.8", "Final_Risk_score": "0.9", "Mechanism": "PBP2a"},
		{"Genes": "vanA", "Mobility_level": "low", "Mobility_score": "0.2", "Final_Risk_score": "0.1", "Mechanism": "ligase"},
		{"Genes": "blaTEM-1", "Mobility_level": "medium", "Mobility_score": "0.5", "Final_Risk_score": "0.5", "Mechanism": "beta-lactamase"},
	}
}

func TestBuild(t *testing.T) {
	Convey("Given raw table rows", t, func() {
		ctx := context.Background()

		Convey("When building from clean rows", func() {
			store, warnings, err := repository.Build(ctx, sampleHeader(), sampleRows())

			Convey("Then the store holds every record with no warnings", func() {
				So(err, ShouldBeNil)
				So(warnings, ShouldBeEmpty)
				So(store.Count(ctx), ShouldEqual, 3)
			})

			Convey("And ids are normalized", func() {
				rec, ok := store.Get(ctx, "meca")
				So(ok, ShouldBeTrue)
				So(rec.Display, ShouldEqual, "mecA")
				So(rec.Levels["Mobility_level"], ShouldEqual, "high")
				So(rec.Scores["Final_Risk_score"], ShouldEqual, 0.9)
				So(rec.Extras["Mechanism"], ShouldEqual, "PBP2a")
			})

			Convey("And columns are partitioned in source order", func() {
				cols := store.Columns(ctx)
				So(cols.ID, ShouldEqual, "Genes")
				So(cols.Levels, ShouldResemble, []string{"Mobility_level"})
				So(cols.Scores, ShouldResemble, []string{"Mobility_score", "Final_Risk_score"})
				So(cols.Extras, ShouldResemble, []string{"Mechanism"})
			})
		})

		Convey("When rows duplicate a normalized id", func() {
			rows := append(sampleRows(), model.Row{
				"Genes": "MECA", "Mobility_level": "low", "Final_Risk_score": "0.2",
			})
			store, warnings, err := repository.Build(ctx, sampleHeader(), rows)

			Convey("Then the first occurrence wins with a warning", func() {
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 3)
				So(warnings, ShouldHaveLength, 1)
				So(warnings[0].Code, ShouldEqual, model.WarnDuplicateID)
				rec, _ := store.Get(ctx, "meca")
				So(rec.Scores["Final_Risk_score"], ShouldEqual, 0.9)
			})
		})

		Convey("When scores fall outside [0,1]", func() {
			rows := []model.Row{
				{"Genes": "mecA", "Mobility_score": "1.7", "Final_Risk_score": "-0.3"},
			}
			store, warnings, err := repository.Build(ctx, sampleHeader(), rows)

			Convey("Then values are clamped with warnings, not errors", func() {
				So(err, ShouldBeNil)
				So(warnings, ShouldHaveLength, 2)
				rec, _ := store.Get(ctx, "meca")
				So(rec.Scores["Mobility_score"], ShouldEqual, 1.0)
				So(rec.Scores["Final_Risk_score"], ShouldEqual, 0.0)
			})
		})

		Convey("When a score cell is not numeric", func() {
			rows := []model.Row{
				{"Genes": "mecA", "Mobility_score": "Not Defined", "Final_Risk_score": "0.9"},
			}
			store, warnings, err := repository.Build(ctx, sampleHeader(), rows)

			Convey("Then the cell is skipped with a warning", func() {
				So(err, ShouldBeNil)
				So(warnings, ShouldHaveLength, 1)
				So(warnings[0].Code, ShouldEqual, model.WarnNonNumeric)
				rec, _ := store.Get(ctx, "meca")
				_, present := rec.Scores["Mobility_score"]
				So(present, ShouldBeFalse)
			})
		})

		Convey("When a row has an empty identifier", func() {
			rows := append(sampleRows(), model.Row{"Genes": "   "})
			store, warnings, err := repository.Build(ctx, sampleHeader(), rows)

			Convey("Then the row is skipped with a warning", func() {
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 3)
				So(warnings, ShouldHaveLength, 1)
				So(warnings[0].Code, ShouldEqual, model.WarnMissingID)
			})
		})

		Convey("When no identifier column exists", func() {
			_, _, err := repository.Build(ctx, []string{"foo", "bar"}, []model.Row{{"foo": "x"}})

			Convey("Then the build fails with the schema error", func() {
				So(errors.Is(err, repository.ErrNoIDColumn), ShouldBeTrue)
			})
		})

		Convey("When there are no rows", func() {
			_, _, err := repository.Build(ctx, sampleHeader(), nil)
			So(errors.Is(err, repository.ErrNoRows), ShouldBeTrue)
		})

		Convey("When forcing the id column by option", func() {
			store, _, err := repository.Build(ctx, []string{"name", "x_score"},
				[]model.Row{{"name": "mecA", "x_score": "0.4"}},
				repository.WithIDColumn("name"),
			)
			So(err, ShouldBeNil)
			_, ok := store.Get(ctx, "meca")
			So(ok, ShouldBeTrue)
		})

		Convey("When columns use the prefix spelling", func() {
			store, _, err := repository.Build(ctx, []string{"id", "level_x", "score_final_risk"},
				[]model.Row{{"id": "mecA", "level_x": "high", "score_final_risk": "0.9"}})

			Convey("Then they classify as levels and scores", func() {
				So(err, ShouldBeNil)
				cols := store.Columns(ctx)
				So(cols.Levels, ShouldResemble, []string{"level_x"})
				So(cols.Scores, ShouldResemble, []string{"score_final_risk"})
			})
		})
	})
}

func TestPrefixSearch(t *testing.T) {
	Convey("Given a built store", t, func() {
		ctx := context.Background()
		header := []string{"Genes"}
		rows := []model.Row{
			{"Genes": "vanB"}, {"Genes": "mecA"}, {"Genes": "mecC"}, {"Genes": "vanA"},
		}
		store, _, err := repository.Build(ctx, header, rows)
		So(err, ShouldBeNil)

		Convey("When searching a shared prefix", func() {
			got := store.PrefixSearch(ctx, "mec", 10)

			Convey("Then matches come back lexicographically", func() {
				So(got, ShouldResemble, []string{"meca", "mecc"})
			})
		})

		Convey("When the limit truncates results", func() {
			got := store.PrefixSearch(ctx, "mec", 1)
			So(got, ShouldResemble, []string{"meca"})
		})

		Convey("When the prefix is empty", func() {
			got := store.PrefixSearch(ctx, "", 3)

			Convey("Then the first ids in table order come back", func() {
				So(got, ShouldResemble, []string{"vanb", "meca", "mecc"})
			})
		})

		Convey("When the prefix is mixed case", func() {
			got := store.PrefixSearch(ctx, "MeC", 10)
			So(got, ShouldResemble, []string{"meca", "mecc"})
		})

		Convey("When nothing matches", func() {
			So(store.PrefixSearch(ctx, "zzz", 10), ShouldBeEmpty)
		})

		Convey("When the limit is zero", func() {
			So(store.PrefixSearch(ctx, "mec", 0), ShouldBeEmpty)
		})
	})
}

func TestBuildIdempotence(t *testing.T) {
	Convey("Given two stores built from identical input", t, func() {
		ctx := context.Background()
		a, _, errA := repository.Build(ctx, sampleHeader(), sampleRows())
		b, _, errB := repository.Build(ctx, sampleHeader(), sampleRows())
		So(errA, ShouldBeNil)
		So(errB, ShouldBeNil)

		Convey("Then lookups agree for every id", func() {
			So(a.IDs(ctx), ShouldResemble, b.IDs(ctx))
			for _, id := range a.IDs(ctx) {
				ra, _ := a.Get(ctx, id)
				rb, _ := b.Get(ctx, id)
				So(ra.Scores, ShouldResemble, rb.Scores)
				So(ra.Levels, ShouldResemble, rb.Levels)
			}
		})

		Convey("And column partitions agree", func() {
			So(a.Columns(ctx), ShouldResemble, b.Columns(ctx))
		})
	})
}
