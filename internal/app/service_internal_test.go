package service

import (
	"context"
	"testing"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/adapters/repository"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/model"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/resolve"
	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/domain/scoring"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProcessorWithoutPool(t *testing.T) {
	Convey("Given a service whose worker pool has not been started", t, func() {
		ctx := context.Background()
		header := []string{"Genes", "Final_Risk_score"}
		rows := []model.Row{
			{"Genes": "mecA", "Final_Risk_score": "0.9"},
			{"Genes": "vanA", "Final_Risk_score": "0.1"},
		}
		store, _, err := repository.Build(ctx, header, rows)
		So(err, ShouldBeNil)

		s := New(WithParallelBatchMin(2))
		s.agg = scoring.New()
		st := &tableState{store: store, resolver: resolve.New()}

		Convey("When a batch larger than the parallel minimum runs", func() {
			result := s.processorFor(st).Run(ctx, st.store, []string{"mecA", "vanA", "zzz999"}, resolve.DefaultThreshold)

			Convey("Then rows run sequentially instead of on a nil runner", func() {
				So(result.Rows, ShouldHaveLength, 3)
				So(result.Matched, ShouldEqual, 2)
				So(result.Unmatched, ShouldEqual, 1)
			})
		})
	})
}
