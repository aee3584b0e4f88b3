package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tickerping/tickerping/internal/adapters/httpapi"
	"github.com/tickerping/tickerping/internal/adapters/memorybus"
	"github.com/tickerping/tickerping/internal/adapters/sqlite"
	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/buildinfo"
	"github.com/tickerping/tickerping/internal/config"
	"github.com/tickerping/tickerping/internal/domain"
)

func main() {
	def := config.Default()
	addr := flag.String("addr", def.Addr, "Adresse d'écoute (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", def.DBPath, "Chemin SQLite (ex: tickerping.db)")
	jwtSecret := flag.String("jwt-secret", def.JWTSecret, "Secret HS256 pour les tokens bearer")
	flag.Parse()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("app", "tickerping-server").Logger()
	log.Logger = logger

	if *jwtSecret == "" {
		logger.Fatal().Msg("jwt secret is required (flag -jwt-secret or TP_JWT_SECRET)")
	}

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	defer bus.Close()

	subsRepo := sqlite.NewSubscriptionsRepository(db.SQL)
	subsSvc := app.NewSubscriptionService(subsRepo, bus)
	dispatchRepo := sqlite.NewDispatchesRepository(db.SQL)
	dispatchSvc := app.NewDispatchService(dispatchRepo, bus)
	settingsRepo := sqlite.NewSettingsRepository(db.SQL)
	settingsSvc := app.NewSettingsService(settingsRepo)
	usersRepo := sqlite.NewUsersRepository(db.SQL)
	usersSvc := app.NewUserService(usersRepo)
	marketSvc := app.NewMarketDataService(settingsSvc.Get)

	// Limiteur global pour les vérifications concurrentes + hook côté API settings.
	checkLimiter := app.NewDynamicLimiter(domain.DefaultSettings().MaxConcurrentChecks)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scanner: détecte les checkpoints échus et alimente la file de dispatch.
	scanner := app.NewCheckpointScanner(logger.With().Str("component", "scanner").Logger(), subsRepo, dispatchSvc, checkLimiter)
	if s, err := settingsSvc.Get(ctx); err == nil {
		if s.ScanBatchSize > 0 {
			scanner.SetBatchSize(s.ScanBatchSize)
		}
		if s.MaxConcurrentChecks > 0 {
			checkLimiter.SetLimit(s.MaxConcurrentChecks)
		}
	}
	go scanner.Run(shutdownCtx)

	// Canceller: annule les dispatches en attente quand un abonné se retire.
	canceller := app.NewDispatchCanceller(logger.With().Str("component", "dispatch-canceller").Logger(), bus, dispatchSvc)
	go canceller.Run(shutdownCtx)

	srv := httpapi.NewServer(logger, subsSvc, dispatchSvc, settingsSvc, marketSvc, usersSvc, bus, []byte(*jwtSecret), checkLimiter, func(updated domain.Settings) {
		if updated.ScanBatchSize > 0 {
			scanner.SetBatchSize(updated.ScanBatchSize)
		}
	})
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}
