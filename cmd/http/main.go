package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/nowly-app/nowly/internal/infrastructure/configs"
	"github.com/nowly-app/nowly/internal/infrastructure/ratelimiter"
	"github.com/nowly-app/nowly/internal/infrastructure/repository"
	"github.com/nowly-app/nowly/internal/infrastructure/tracing"
	"github.com/nowly-app/nowly/internal/infrastructure/ws"
	"github.com/nowly-app/nowly/internal/presentation/api"
	"github.com/nowly-app/nowly/internal/presentation/handler/health"
	"github.com/nowly-app/nowly/internal/presentation/handler/locations"
	"github.com/nowly-app/nowly/internal/presentation/handler/rooms"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.Tracing.Enabled {
		traceCfg := tracing.NewDefaultConfig("nowly-http")
		traceCfg.Exporter = cfg.Tracing.Exporter
		traceCfg.Endpoint = cfg.Tracing.Endpoint

		shutdownTracer, err := tracing.InitTracer(traceCfg)
		if err != nil {
			logger.Fatalw("tracer init failed", "error", err)
		}
		defer shutdownTracer(context.Background())
	}

	roomRepository := repository.NewRoomRepository(cfg.RoomStore.Capacity)
	locationStore := repository.NewLocationStore()

	reaper := repository.NewReaper(roomRepository, locationStore, cfg.RoomStore.ReapInterval, logger)
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go reaper.Run(reaperCtx)

	feed := ws.NewFeed(locationStore, logger)

	roomsHandler := rooms.NewHandler(roomRepository, cfg.HTTP.PublicURL, logger)
	locationsHandler := locations.NewHandler(roomRepository, locationStore, feed, logger)
	healthHandler := health.NewHandler()

	rateLimiter := ratelimiter.NewFixedWindowRateLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	defer rateLimiter.Close()

	app := api.NewApplication(*cfg, roomsHandler, locationsHandler, healthHandler, logger, rateLimiter)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
