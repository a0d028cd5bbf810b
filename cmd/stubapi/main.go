// Command stubapi serves a development emulation of the symposium backend
// REST API, seeded with a small fixture set so stations can be exercised
// without the real backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"symposium/internal/config"
	"symposium/internal/model"
	"symposium/internal/stubapi"
)

func main() {
	cfg := config.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Str("component", "stubapi").Logger()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := stubapi.OpenStore(cfg.StubDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open fixture store")
	}
	defer store.Close()

	if err := seed(store); err != nil {
		log.Warn().Err(err).Msg("seeding skipped (fixtures may already exist)")
	}

	srv := stubapi.NewServer(store, stubapi.Config{
		SigningKey: cfg.JWTSigningKey,
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  cfg.AccessTTL,
		TicketDir:  cfg.TicketDir,
	}, log)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.StubHTTPPort,
		Handler:      srv.Router(cfg.RateLimitPerMin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("stub backend listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

// seed loads a minimal fixture set: one operator per scanner role, a couple
// of attendees and a small event catalog.
func seed(store *stubapi.Store) error {
	ctx := context.Background()

	users := []struct {
		profile model.UserProfile
		qr      string
	}{
		{model.UserProfile{Name: "Door Staff", Email: "door@symposium.dev", Role: model.RoleRegistrationTeam}, "STAFF:door"},
		{model.UserProfile{Name: "Hall Manager", Email: "hall@symposium.dev", Role: model.RoleEventManager}, "STAFF:hall"},
		{model.UserProfile{Name: "Root", Email: "root@symposium.dev", Role: model.RoleSuperadmin}, "STAFF:root"},
		{model.UserProfile{Name: "Asha Iyer", Email: "asha@example.edu", Role: model.RoleUser}, "REG:asha-0001"},
		{model.UserProfile{Name: "Ben Varghese", Email: "ben@example.edu", Role: model.RoleUser}, "REG:ben-0002"},
	}
	for _, u := range users {
		if err := store.SeedUser(ctx, u.profile, u.qr); err != nil {
			return err
		}
	}

	events := []model.Event{
		{Title: "Intro to Distributed Systems", Date: "2026-02-20", StartTime: "10:00", EndTime: "11:30",
			Venue: "Hall A", Capacity: 120, EventType: model.EventTalk, Status: model.StatusUpcoming},
		{Title: "Embedded Hack Night", Date: "2026-02-20", StartTime: "18:00", EndTime: "22:00",
			Venue: "Lab 3", Capacity: 40, EventType: model.EventWorkshop, Status: model.StatusOngoing,
			IsTeamEvent: true, TeamSize: &model.TeamSize{Min: 2, Max: 4}},
		{Title: "Last Year's Keynote", Date: "2025-02-21", Venue: "Hall A", Capacity: 300,
			EventType: model.EventTalk, Status: model.StatusCompleted},
	}
	for _, e := range events {
		if err := store.SeedEvent(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
