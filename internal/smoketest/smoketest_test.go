package smoketest

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfigValidate(t *testing.T) {
	Convey("Given smoke test configuration", t, func() {
		Convey("When using the defaults", func() {
			So(DefaultConfig().Validate(), ShouldBeNil)
		})

		Convey("When a field is out of range", func() {
			cfg := DefaultConfig()
			cfg.Workers = 0
			So(cfg.Validate(), ShouldNotBeNil)

			cfg = DefaultConfig()
			cfg.BaseURL = ""
			So(cfg.Validate(), ShouldNotBeNil)

			cfg = DefaultConfig()
			cfg.NumQueries = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}

func TestGenerateQueries(t *testing.T) {
	Convey("Given sampled identifiers", t, func() {
		ids := []string{"meca", "vana", "blatem-1"}
		rng := rand.New(rand.NewSource(1))

		Convey("When generating queries", func() {
			queries := generateQueries(ids, 50, rng)

			Convey("Then the requested count comes back", func() {
				So(queries, ShouldHaveLength, 50)
			})

			Convey("And junk queries are strict non-matches", func() {
				junk := 0
				for _, q := range queries {
					if !q.WantMatch {
						So(q.Strict, ShouldBeTrue)
						junk++
					}
				}
				So(junk, ShouldBeGreaterThan, 0)
			})

			Convey("And mutated queries are never strict", func() {
				for i, q := range queries {
					if i%5 == 3 {
						So(q.Strict, ShouldBeFalse)
					}
				}
			})
		})
	})
}

func TestMutate(t *testing.T) {
	Convey("Given an identifier", t, func() {
		rng := rand.New(rand.NewSource(7))

		Convey("When mutating it", func() {
			out := mutate("meca", rng)
			So(out, ShouldHaveLength, 4)
		})

		Convey("When the input is empty", func() {
			So(mutate("", rng), ShouldBeEmpty)
		})
	})
}

func TestCheckExpectation(t *testing.T) {
	Convey("Given lookup outcomes", t, func() {
		Convey("When a strict match expectation holds", func() {
			q := Query{Text: "meca", WantMatch: true, WantID: "meca", Strict: true}
			o := lookupOutcome{query: "meca", matched: true, id: "meca"}
			So(checkExpectation(q, o), ShouldBeEmpty)
		})

		Convey("When the match flag disagrees", func() {
			q := Query{Text: "zzqx1", WantMatch: false, Strict: true}
			o := lookupOutcome{query: "zzqx1", matched: true, id: "meca"}
			So(checkExpectation(q, o), ShouldNotBeEmpty)
		})

		Convey("When the resolved id disagrees", func() {
			q := Query{Text: "meca", WantMatch: true, WantID: "meca", Strict: true}
			o := lookupOutcome{query: "meca", matched: true, id: "vana"}
			So(checkExpectation(q, o), ShouldNotBeEmpty)
		})

		Convey("When the query is not strict", func() {
			q := Query{Text: "mxca", WantMatch: true, Strict: false}
			o := lookupOutcome{query: "mxca", matched: false}
			So(checkExpectation(q, o), ShouldBeEmpty)
		})
	})
}
