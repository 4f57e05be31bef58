package batch_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/repository"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/batch"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/resolve"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func buildTable(ctx context.Context) *repository.TableStore {
	header := []string{"Genes", "Pathogenic_level", "Final_Risk_score"}
	rows := []model.Row{
		{"Genes": "mecA", "Pathogenic_level": "high", "Final_Risk_score": "0.9"},
		{"Genes": "vanA", "Pathogenic_level": "low", "Final_Risk_score": "0.1"},
	}
	store, _, err := repository.Build(ctx, header, rows)
	So(err, ShouldBeNil)
	return store
}

func TestBatchRun(t *testing.T) {
	Convey("Given a batch processor", t, func() {
		ctx := context.Background()
		table := buildTable(ctx)
		p := batch.New(resolve.New(), scoring.New())

		Convey("When running the reference batch", func() {
			got := p.Run(ctx, table, []string{"mecA", "xyz123"}, resolve.DefaultThreshold)

			Convey("Then counts and mean match the expectation", func() {
				So(got.Matched, ShouldEqual, 1)
				So(got.Unmatched, ShouldEqual, 1)
				So(got.HasMean, ShouldBeTrue)
				So(got.MeanScore, ShouldAlmostEqual, 0.9, 1e-9)
			})

			Convey("And row order follows the input", func() {
				So(got.Rows, ShouldHaveLength, 2)
				So(got.Rows[0].Candidate.Query, ShouldEqual, "mecA")
				So(got.Rows[0].Candidate.Method, ShouldEqual, model.MatchExact)
				So(got.Rows[1].Candidate.Method, ShouldEqual, model.MatchUnmatched)
			})

			Convey("And the result gets a fresh id", func() {
				So(got.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When the input contains blanks and duplicates", func() {
			got := p.Run(ctx, table, []string{"", "mecA", "  ", "mecA"}, resolve.DefaultThreshold)

			Convey("Then blanks are unmatched without resolution", func() {
				So(got.Rows[0].Candidate.Method, ShouldEqual, model.MatchUnmatched)
				So(got.Rows[2].Candidate.Method, ShouldEqual, model.MatchUnmatched)
			})

			Convey("And duplicates each count as matched", func() {
				So(got.Matched, ShouldEqual, 2)
				So(got.Unmatched, ShouldEqual, 2)
			})
		})

		Convey("When no row matches", func() {
			got := p.Run(ctx, table, []string{"qqq", "zzz"}, resolve.DefaultThreshold)

			Convey("Then the summary reports no mean", func() {
				So(got.Matched, ShouldEqual, 0)
				So(got.HasMean, ShouldBeFalse)
			})
		})

		Convey("When the batch is empty", func() {
			got := p.Run(ctx, table, nil, resolve.DefaultThreshold)
			So(got.Rows, ShouldBeEmpty)
			So(got.HasMean, ShouldBeFalse)
		})
	})
}

// goRunner fans fn out over goroutines; output slots keep it deterministic.
type goRunner struct{}

func (goRunner) Map(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn(ctx, i)
		}(i)
	}
	wg.Wait()
}

func TestBatchParallelMatchesSequential(t *testing.T) {
	Convey("Given sequential and parallel processors over one table", t, func() {
		ctx := context.Background()
		table := buildTable(ctx)
		seq := batch.New(resolve.New(), scoring.New())
		par := batch.New(resolve.New(), scoring.New(),
			batch.WithRunner(goRunner{}),
			batch.WithParallelMin(1),
		)

		ids := make([]string, 0, 40)
		for i := 0; i < 10; i++ {
			ids = append(ids, "mecA", "vanaa", fmt.Sprintf("junk-%d", i), "")
		}

		Convey("When both process the same identifiers", func() {
			a := seq.Run(ctx, table, ids, resolve.DefaultThreshold)
			b := par.Run(ctx, table, ids, resolve.DefaultThreshold)

			Convey("Then rows and summaries are identical", func() {
				So(b.Matched, ShouldEqual, a.Matched)
				So(b.Unmatched, ShouldEqual, a.Unmatched)
				So(b.HasMean, ShouldEqual, a.HasMean)
				So(b.MeanScore, ShouldAlmostEqual, a.MeanScore, 1e-12)
				for i := range a.Rows {
					So(b.Rows[i].Candidate.MatchedID, ShouldEqual, a.Rows[i].Candidate.MatchedID)
					So(b.Rows[i].Candidate.Method, ShouldEqual, a.Rows[i].Candidate.Method)
					So(b.Rows[i].Composite, ShouldEqual, a.Rows[i].Composite)
				}
			})
		})
	})
}
