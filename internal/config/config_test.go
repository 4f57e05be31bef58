package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Jaber-Ghorbani/arg-risk-lookup/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given default configuration", t, func() {
		cfg := config.New(context.Background())

		Convey("Then defaults are sane", func() {
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.FuzzyThreshold, ShouldEqual, 0.6)
			So(cfg.FuzzyTopK, ShouldEqual, 5)
			So(cfg.WorkerCount, ShouldBeGreaterThan, 0)
			So(cfg.MaxBatchSize, ShouldBeGreaterThan, 0)
			So(cfg.ParallelBatchMin, ShouldBeGreaterThan, 0)
			So(cfg.FinalScoreMarker, ShouldEqual, "final")
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given layered configuration sources", t, func() {
		ctx := context.Background()

		Convey("When nothing overrides the defaults", func() {
			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.TablePath, ShouldEqual, "data/risk_table.csv")
		})

		Convey("When env vars override", func() {
			t.Setenv("ARGRISK_ADDR", ":7070")
			t.Setenv("ARGRISK_TABLE_PATH", "/tmp/custom.tsv")
			t.Setenv("ARGRISK_FUZZY_THRESHOLD", "0.8")

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.TablePath, ShouldEqual, "/tmp/custom.tsv")
			So(cfg.FuzzyThreshold, ShouldEqual, 0.8)
		})

		Convey("When a YAML file provides values and env overrides one", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			body := "addr: \":6060\"\nfuzzy_top_k: 9\nsuggest_limit: 50\n"
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)
			t.Setenv("ARGRISK_CONFIG", path)
			t.Setenv("ARGRISK_ADDR", ":6061")

			cfg, err := config.Load(ctx)
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6061") // env wins over file
			So(cfg.FuzzyTopK, ShouldEqual, 9)
			So(cfg.SuggestLimit, ShouldEqual, 50)
		})

		Convey("When the config file is missing", func() {
			t.Setenv("ARGRISK_CONFIG", "/nonexistent/config.yaml")
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})

		Convey("When validation fails", func() {
			t.Setenv("ARGRISK_CONFIG", "")
			t.Setenv("ARGRISK_FUZZY_THRESHOLD", "1.5")
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the threshold is zero", func() {
			t.Setenv("ARGRISK_CONFIG", "")
			t.Setenv("ARGRISK_FUZZY_THRESHOLD", "0")
			_, err := config.Load(ctx)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
