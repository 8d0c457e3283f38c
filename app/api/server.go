// Package api exposes the HTTP surface: submissions, summaries, streaks,
// settings, and catalog import.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/Hearth-Ledger-Club/hearth-bot/app/eventbus"
	catalogservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/catalog/application"
	householddb "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/household/infrastructure/repositories"
	ledgerservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/ledger/application"
	pointsservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/points/application"
	streakservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/streak/application"
	summaryservice "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/application"
	summaryjobs "github.com/Hearth-Ledger-Club/hearth-bot/app/modules/summary/infrastructure/jobs"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/attr"
	"github.com/Hearth-Ledger-Club/hearth-bot/app/shared/utils"
	"github.com/Hearth-Ledger-Club/hearth-bot/config"
)

// Server is the hearth-bot HTTP API.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	tokens    *TokenProvider
	ledger    ledgerservice.Service
	summary   summaryservice.Service
	streaks   streakservice.Service
	points    pointsservice.Service
	catalog   catalogservice.Service
	household householddb.Repository
	queue     summaryjobs.QueueService
	eventBus  eventbus.EventBus
	helpers   utils.Helpers
	httpSrv   *http.Server
}

// NewServer wires the API routes.
func NewServer(
	cfg *config.Config,
	logger *slog.Logger,
	ledger ledgerservice.Service,
	summary summaryservice.Service,
	streaks streakservice.Service,
	points pointsservice.Service,
	catalog catalogservice.Service,
	household householddb.Repository,
	queue summaryjobs.QueueService,
	eventBus eventbus.EventBus,
	helpers utils.Helpers,
) *Server {
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		tokens:    NewTokenProvider(cfg.JWT.Secret, cfg.JWT.DefaultTTL),
		ledger:    ledger,
		summary:   summary,
		streaks:   streaks,
		points:    points,
		catalog:   catalog,
		household: household,
		queue:     queue,
		eventBus:  eventBus,
		helpers:   helpers,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	limiter := NewIdentityRateLimiter(
		rate.Limit(float64(cfg.HTTP.RateLimitPerMinute)/60.0),
		cfg.HTTP.RateLimitPerMinute,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.tokens))
		r.Use(RateLimitMiddleware(limiter))

		r.Post("/submissions", s.handleSubmit)
		r.Get("/summary/weekly", s.handleWeeklySummary)
		r.Get("/summary/previous", s.handlePreviousWeekSummary)
		r.Get("/summary/lifetime", s.handleLifetimeCounts)
		r.Get("/streaks", s.handleStreaks)
		r.Get("/settings/streaks", s.handleGetStreakSettings)

		r.Group(func(r chi.Router) {
			r.Use(AdminOnly)
			r.Put("/settings/streaks", s.handlePutStreakSettings)
			r.Post("/catalog/import", s.handleCatalogImport)
			r.Post("/digest", s.handleScheduleDigest)
			r.Delete("/ledger", s.handleClearLedger)
		})
	})

	s.httpSrv = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Tokens exposes the token provider so bootstrap code can mint service tokens.
func (s *Server) Tokens() *TokenProvider { return s.tokens }

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("API listening", attr.String("addr", s.cfg.HTTP.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
