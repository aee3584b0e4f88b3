package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickerping/tickerping/internal/adapters/memorybus"
	"github.com/tickerping/tickerping/internal/adapters/sqlite"
	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/domain"
)

const (
	testSecret = "test-secret"
	testUUID   = "8a7b1c2d-0000-4000-8000-000000000001"
)

type testEnv struct {
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	bus := memorybus.New()
	t.Cleanup(bus.Close)

	subsSvc := app.NewSubscriptionService(sqlite.NewSubscriptionsRepository(db.SQL), bus)
	dispatchSvc := app.NewDispatchService(sqlite.NewDispatchesRepository(db.SQL), bus)
	settingsSvc := app.NewSettingsService(sqlite.NewSettingsRepository(db.SQL))
	usersSvc := app.NewUserService(sqlite.NewUsersRepository(db.SQL))
	marketSvc := app.NewMarketDataService(settingsSvc.Get)

	srv := NewServer(zerolog.Nop(), subsSvc, dispatchSvc, settingsSvc, marketSvc, usersSvc, bus, []byte(testSecret), nil, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	// Utilisateur connu du répertoire.
	_, err = usersSvc.SaveProfile(ctx, testUUID, "ada@example.com", "Ada", nil)
	require.NoError(t, err)

	return &testEnv{server: ts}
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/version", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSubscriptions_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/subscriptions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/subscriptions", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Token valide mais identité inconnue du répertoire.
	resp = env.do(t, http.MethodGet, "/api/v1/subscriptions", signToken(t, "8a7b1c2d-0000-4000-8000-00000000ffff"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscriptionLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, testUUID)

	create := map[string]any{
		"stock": map[string]string{
			"symbol":         "AAPL",
			"name":           "Apple Inc",
			"instrumentType": "Equity",
			"region":         "United States",
			"currency":       "USD",
		},
		"interval":          15,
		"firstNotification": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
	}

	resp := env.do(t, http.MethodPost, "/api/v1/subscriptions", token, create)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[subscriptionResponse](t, resp)
	require.NotEmpty(t, created.Subscription.ID)
	assert.Equal(t, domain.StatusPlaying, created.Subscription.Status)
	assert.Contains(t, created.Message, "Apple Inc")

	id := created.Subscription.ID

	// Doublon -> 409 avec message dédié.
	resp = env.do(t, http.MethodPost, "/api/v1/subscriptions", token, create)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	failure := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "already_subscribed", failure["kind"])
	assert.Equal(t, "You're already subscribed to this stock.", failure["error"])

	// Liste.
	resp = env.do(t, http.MethodGet, "/api/v1/subscriptions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	views := decodeBody[[]app.SubscriptionView](t, resp)
	require.Len(t, views, 1)

	// Pause.
	resp = env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/subscriptions/%s/pause", id), token, map[string]any{
		"resumeDate": time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		"interval":   60,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	paused := decodeBody[subscriptionResponse](t, resp)
	assert.Equal(t, domain.StatusPaused, paused.Subscription.Status)
	assert.Equal(t, 60, paused.Subscription.Interval)

	// Préférences de notification.
	resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/subscriptions/%s/notifications", id), token, map[string]any{
		"notifications": map[string][]string{"telegram": {"perso"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Re-sauvegarde identique -> 400 no_changes.
	resp = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/subscriptions/%s/notifications", id), token, map[string]any{
		"notifications": map[string][]string{"telegram": {"perso"}},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	failure = decodeBody[map[string]string](t, resp)
	assert.Equal(t, "no_changes", failure["kind"])

	// Désabonnement.
	resp = env.do(t, http.MethodDelete, "/api/v1/subscriptions/"+id, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Second désabonnement -> 404.
	resp = env.do(t, http.MethodDelete, "/api/v1/subscriptions/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubscriptions_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, testUUID)

	// Champs manquants.
	resp := env.do(t, http.MethodPost, "/api/v1/subscriptions", token, map[string]any{"interval": 15})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Intervalle invalide.
	resp = env.do(t, http.MethodPost, "/api/v1/subscriptions", token, map[string]any{
		"stock":             map[string]string{"symbol": "AAPL", "name": "Apple Inc"},
		"interval":          -5,
		"firstNotification": time.Now().UTC().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	failure := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "invalid_interval", failure["kind"])
}

func TestDispatchesOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	// File vide -> 204.
	resp := env.do(t, http.MethodPost, "/api/v1/dispatches/claim", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSettingsOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/settings", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[domain.Settings](t, resp)
	assert.Equal(t, domain.DefaultSettings().ScanBatchSize, got.ScanBatchSize)

	resp = env.do(t, http.MethodPut, "/api/v1/settings", "", domain.Settings{
		ScanBatchSize:       120,
		MaxConcurrentChecks: 6,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[domain.Settings](t, resp)
	assert.Equal(t, 120, updated.ScanBatchSize)
	assert.Equal(t, 6, updated.MaxConcurrentChecks)
}

func TestProfileOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, testUUID)

	resp := env.do(t, http.MethodPut, "/api/v1/profile", token, map[string]any{
		"email":    "ada@example.com",
		"name":     "Ada L.",
		"profiles": map[string][]string{"telegram": {"perso"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "Ada L.", user["Name"])
}

func TestStocksSearch_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/stocks/search?keywords=apple", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/v1/stocks/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
