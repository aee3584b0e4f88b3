package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/buildinfo"
	"github.com/tickerping/tickerping/internal/httpjson"
)

const defaultRequestTimeout = 30 * time.Second

// genericFailureMessage is what callers see for store-layer and unexpected
// failures; details go to the log, never to the response.
const genericFailureMessage = "Oops! Something went wrong on our end. Please try again later."

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}

// writeServiceError maps a service failure to the outcome vocabulary.
// Validation and not-found kinds carry their own message; everything else
// is logged with operation context and surfaced generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := app.Kind(err)
	switch kind {
	case app.KindInvalidInput, app.KindInvalidInterval, app.KindNoChanges:
		httpjson.WriteFailure(w, http.StatusBadRequest, kind, err.Error())
	case app.KindAlreadySubscribed:
		httpjson.WriteFailure(w, http.StatusConflict, kind, "You're already subscribed to this stock.")
	case app.KindSubscriberNotFound, app.KindNotFound:
		httpjson.WriteFailure(w, http.StatusNotFound, kind, err.Error())
	case app.KindAuthRequired:
		httpjson.WriteFailure(w, http.StatusUnauthorized, kind, err.Error())
	case app.KindUserNotFound:
		httpjson.WriteFailure(w, http.StatusNotFound, kind, "please login again")
	case app.KindTimeout:
		hlog.FromRequest(r).Error().Err(err).Str("op", op).Msg("operation timed out")
		httpjson.WriteFailure(w, http.StatusGatewayTimeout, kind, genericFailureMessage)
	case app.KindStoreUnavailable:
		hlog.FromRequest(r).Error().Err(err).Str("op", op).Msg("store unavailable")
		httpjson.WriteFailure(w, http.StatusServiceUnavailable, kind, genericFailureMessage)
	default:
		hlog.FromRequest(r).Error().Err(err).Str("op", op).Msg("operation failed")
		httpjson.WriteFailure(w, http.StatusInternalServerError, kind, genericFailureMessage)
	}
}
