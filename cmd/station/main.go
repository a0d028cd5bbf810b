// Command station runs one check-in scanner station: it gates the operator
// by role, drives the QR decoder into the check-in orchestrator and serves
// health, metrics and live session stats over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"symposium/internal/api"
	"symposium/internal/checkin"
	"symposium/internal/config"
	"symposium/internal/model"
	"symposium/internal/rolegate"
	"symposium/internal/scanner"
	"symposium/internal/session"
	"symposium/internal/station"
)

func main() {
	cfg := config.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Str("component", "station").Logger()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("station stopped")
	}
}

func run(cfg config.App, log zerolog.Logger) error {
	mode := model.CheckInType(cfg.StationMode)
	route := rolegate.RouteBuildingScanner
	if mode == model.CheckInSession {
		route = rolegate.RouteSessionScanner
	} else if mode != model.CheckInBuilding {
		return fmt.Errorf("unknown station mode %q", cfg.StationMode)
	}

	store, err := session.Open(cfg.SessionDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.StationToken != "" {
		if err := store.SetToken(cfg.StationToken); err != nil {
			return err
		}
	}

	client := api.New(cfg.BackendURL, func() string {
		tok, _ := store.Token()
		return tok
	}, cfg.EventsCacheTTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	profile, err := station.Authorize(ctx, route, store, client, log)
	if err != nil {
		return err
	}
	log.Info().Str("operator", profile.Name).Str("role", string(profile.Role)).
		Str("mode", string(mode)).Msg("operator authorized")

	reg := prometheus.NewRegistry()
	orch := checkin.New(mode, client, checkin.NewMetrics(reg))
	defer orch.Close()

	srv := serveHTTP(cfg.StationHTTPPort, reg, orch, log)
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = srv.Shutdown(shutdownCtx)
	}()

	ctrl := station.NewController(mode, orch, client, os.Stdout, log)
	if err := ctrl.Init(ctx); err != nil {
		return err
	}

	scans := make(chan string, 8)
	dec := scanner.NewWedge(scanSource(cfg.ScanSource), cfg.ScanDebounce,
		scanner.WithOnError(func(err error) {
			log.Error().Err(err).Msg("scan source failed")
		}))
	if err := dec.Start(ctx, func(code string) {
		select {
		case scans <- code:
		case <-ctx.Done():
		}
	}); err != nil {
		return fmt.Errorf("start decoder: %w", err)
	}
	defer dec.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			log.Info().Msg("shutting down")
			snap := orch.Snapshot()
			fmt.Println(checkin.RenderStats(snap.Stats))
			return nil
		case code := <-scans:
			ctrl.HandleLine(ctx, code)
		}
	}
}

// scanSource opens the configured scan stream; "-" (or empty) reads stdin.
// Stdin is wrapped so a decoder stop never closes the process's fd 0.
func scanSource(path string) scanner.Source {
	if path == "-" || path == "" {
		return scanner.FixedSource(io.NopCloser(os.Stdin))
	}
	return func() (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open scan source: %w", err)
		}
		return f, nil
	}
}

// serveHTTP exposes the station's ops surface: health, prometheus metrics
// and the live session counters.
func serveHTTP(port string, reg *prometheus.Registry, orch *checkin.Orchestrator, log zerolog.Logger) *http.Server {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "state": orch.State().String()})
	})
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, orch.Snapshot())
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("ops surface listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("ops surface failed")
		}
	}()
	return srv
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
