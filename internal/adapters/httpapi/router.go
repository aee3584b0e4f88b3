package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

type Server struct {
	logger     zerolog.Logger
	subs       *app.SubscriptionService
	dispatches *app.DispatchService
	settings   *app.SettingsService
	market     *app.MarketDataService
	users      *app.UserService
	bus        ports.EventBus
	jwtSecret  []byte
	// checkLimiter est optionnel et permet d'appliquer maxConcurrentChecks à chaud.
	checkLimiter *app.DynamicLimiter
	// onSettingsUpdated est optionnel (ex: ajuster la taille de batch du scanner).
	onSettingsUpdated func(domain.Settings)
}

func NewServer(
	logger zerolog.Logger,
	subs *app.SubscriptionService,
	dispatches *app.DispatchService,
	settings *app.SettingsService,
	market *app.MarketDataService,
	users *app.UserService,
	bus ports.EventBus,
	jwtSecret []byte,
	checkLimiter *app.DynamicLimiter,
	onSettingsUpdated func(domain.Settings),
) *Server {
	return &Server{
		logger:            logger,
		subs:              subs,
		dispatches:        dispatches,
		settings:          settings,
		market:            market,
		users:             users,
		bus:               bus,
		jwtSecret:         jwtSecret,
		checkLimiter:      checkLimiter,
		onSettingsUpdated: onSettingsUpdated,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Get("/events", s.handleEvents)

		if s.market != nil {
			r.Get("/stocks/search", s.handleSearchStocks)
		}

		if s.subs != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.requireUser)
				NewSubscriptionsHandler(s.subs).Routes(r)
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handlePutProfile)
			})
		}

		if s.dispatches != nil {
			NewDispatchesHandler(s.dispatches).Routes(r)
		}

		if s.settings != nil {
			NewSettingsHandler(s.settings, func(updated domain.Settings) {
				if s.checkLimiter != nil && updated.MaxConcurrentChecks > 0 {
					s.checkLimiter.SetLimit(updated.MaxConcurrentChecks)
				}
				if s.onSettingsUpdated != nil {
					s.onSettingsUpdated(updated)
				}
			}).Routes(r)
		}
	})

	return r
}
