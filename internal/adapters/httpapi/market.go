package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tickerping/tickerping/internal/app"
	"github.com/tickerping/tickerping/internal/httpjson"
)

// handleSearchStocks interroge le fournisseur de données de marché.
func (s *Server) handleSearchStocks(w http.ResponseWriter, r *http.Request) {
	keywords := strings.TrimSpace(r.URL.Query().Get("keywords"))
	if keywords == "" {
		httpjson.WriteFailure(w, http.StatusBadRequest, app.KindInvalidInput, "missing keywords")
		return
	}

	matches, err := s.market.SearchSymbols(r.Context(), keywords)
	if err != nil {
		if errors.Is(err, app.ErrMarketDataNotConfigured) {
			httpjson.WriteFailure(w, http.StatusServiceUnavailable, app.KindStoreUnavailable, "market data provider is not configured")
			return
		}
		writeServiceError(w, r, "search-stocks", err)
		return
	}
	httpjson.Write(w, http.StatusOK, matches)
}
