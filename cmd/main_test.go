package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/okian/lobbyrisk/internal/app"
	"github.com/okian/lobbyrisk/internal/config"
	"github.com/okian/lobbyrisk/internal/domain/types"
	"github.com/okian/lobbyrisk/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("LOBBYRISK_ADDR", ":8080")
			_ = os.Setenv("LOBBYRISK_QUEUE_SIZE", "1000")
			_ = os.Setenv("LOBBYRISK_POOL_SIZE", "4")
			defer func() {
				_ = os.Unsetenv("LOBBYRISK_ADDR")
				_ = os.Unsetenv("LOBBYRISK_QUEUE_SIZE")
				_ = os.Unsetenv("LOBBYRISK_POOL_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.PoolSize, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv("LOBBYRISK_CACHE_BACKEND", "redis")
			defer func() { _ = os.Unsetenv("LOBBYRISK_CACHE_BACKEND") }()

			convey.Convey("Then run fails before serving", func() {
				err := run(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestHandlerRoutes(t *testing.T) {
	convey.Convey("Given the assembled handler", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc := app.New(app.WithConfig(cfg))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		h := newHandler(ctx, cfg, svc)

		for _, path := range []string{"/healthz", "/stats", "/api-docs", "/openapi.yaml"} {
			convey.Convey("When GET "+path+" is requested", func() {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))

				convey.Convey("Then it is served", func() {
					convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
				})
			})
		}

		convey.Convey("When stats are requested", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", http.NoBody))

			convey.Convey("Then they describe the running service", func() {
				var stats types.Stats
				convey.So(json.Unmarshal(rec.Body.Bytes(), &stats), convey.ShouldBeNil)
				convey.So(stats.PoolSize, convey.ShouldEqual, cfg.PoolSize)
				convey.So(stats.QueueCapacity, convey.ShouldEqual, cfg.QueueSize)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() {
				startServiceMetricsUpdater(ctx, svc)
			}, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})
	})
}
