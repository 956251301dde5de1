package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nowly-app/nowly/internal/infrastructure/configs"
	"github.com/nowly-app/nowly/internal/infrastructure/ratelimiter"
	healthHandler "github.com/nowly-app/nowly/internal/presentation/handler/health"
	locationsHandler "github.com/nowly-app/nowly/internal/presentation/handler/locations"
	roomsHandler "github.com/nowly-app/nowly/internal/presentation/handler/rooms"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Application struct {
	config           configs.Config
	roomsHandler     *roomsHandler.Handler
	locationsHandler *locationsHandler.Handler
	healthHandler    *healthHandler.Handler
	logger           *zap.SugaredLogger
	ratelimiter      ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	roomsHandler *roomsHandler.Handler,
	locationsHandler *locationsHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:           config,
		roomsHandler:     roomsHandler,
		locationsHandler: locationsHandler,
		healthHandler:    healthHandler,
		logger:           logger,
		ratelimiter:      ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Post("/", app.roomsHandler.CreateRoomHandler)
			r.Get("/{roomId}", app.roomsHandler.GetRoomHandler)

			r.Get("/{roomId}/locations", app.locationsHandler.SnapshotHandler)
			r.Put("/{roomId}/locations/{userId}", app.locationsHandler.UpsertHandler)
			r.Delete("/{roomId}/locations/{userId}", app.locationsHandler.DeleteHandler)
			r.Get("/{roomId}/feed", app.locationsHandler.FeedHandler)
		})

		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	return otelhttp.NewHandler(r, "nowly-http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
