package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/httpjson"
)

type contextKey string

const userContextKey contextKey = "tickerping.user"

// userFromContext returns the authenticated caller placed by requireUser.
func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userContextKey).(domain.User)
	return u, ok
}

// requireUser authenticates the bearer token (HS256, subject = subscriber
// uuid) and resolves it to a User before the handler runs. Identity
// failures never reach the registry.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
			return
		}

		subject, err := s.verifyToken(raw)
		if err != nil {
			httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "invalid or expired token")
			return
		}

		user, err := s.users.Resolve(r.Context(), subject)
		if err != nil {
			switch {
			case errors.Is(err, app.ErrAuthenticationRequired):
				httpjson.WriteFailure(w, http.StatusUnauthorized, app.KindAuthRequired, "authentication required")
			case errors.Is(err, app.ErrUserNotFound):
				httpjson.WriteFailure(w, http.StatusNotFound, app.KindUserNotFound, "please login again")
			default:
				hlog.FromRequest(r).Error().Err(err).Msg("user resolution failed")
				httpjson.WriteFailure(w, http.StatusInternalServerError, app.Kind(err), genericFailureMessage)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) verifyToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return subject, nil
}
