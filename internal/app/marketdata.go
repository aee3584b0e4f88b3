package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tickerping/tickerping/internal/domain"
)

var ErrMarketDataNotConfigured = errors.New("market data not configured")

// MarketDataService wraps the third-party symbol search API. The token
// comes from settings, so operators can rotate it without a restart.
type MarketDataService struct {
	settings func(ctx context.Context) (domain.Settings, error)
	endpoint string
	client   *http.Client
}

func NewMarketDataService(settingsGetter func(ctx context.Context) (domain.Settings, error)) *MarketDataService {
	return &MarketDataService{
		settings: settingsGetter,
		endpoint: "https://www.alphavantage.co/query",
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (s *MarketDataService) WithEndpoint(endpoint string) *MarketDataService {
	if strings.TrimSpace(endpoint) != "" {
		s.endpoint = strings.TrimSpace(endpoint)
	}
	return s
}

// SymbolMatch is one search suggestion, flattened from the provider's
// numbered field names.
type SymbolMatch struct {
	Symbol         string `json:"symbol"`
	Name           string `json:"name"`
	InstrumentType string `json:"instrumentType"`
	Region         string `json:"region"`
	Currency       string `json:"currency"`
	MatchScore     string `json:"matchScore"`
}

// rawSymbolMatch mirrors the provider's wire format ("1. symbol", ...).
type rawSymbolMatch struct {
	Symbol     string `json:"1. symbol"`
	Name       string `json:"2. name"`
	Type       string `json:"3. type"`
	Region     string `json:"4. region"`
	Currency   string `json:"8. currency"`
	MatchScore string `json:"9. matchScore"`
}

type symbolSearchResponse struct {
	BestMatches []rawSymbolMatch `json:"bestMatches"`
	Note        string           `json:"Note,omitempty"`
	ErrorMsg    string           `json:"Error Message,omitempty"`
}

// SearchSymbols queries the provider's SYMBOL_SEARCH endpoint.
func (s *MarketDataService) SearchSymbols(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	if s == nil || s.settings == nil {
		return nil, ErrMarketDataNotConfigured
	}
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, ErrMissingFields
	}

	st, err := s.settings(ctx)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(st.MarketDataToken)
	if token == "" {
		return nil, ErrMarketDataNotConfigured
	}
	endpoint := s.endpoint
	if strings.TrimSpace(st.MarketDataBaseURL) != "" {
		endpoint = strings.TrimSpace(st.MarketDataBaseURL)
	}

	q := url.Values{}
	q.Set("function", "SYMBOL_SEARCH")
	q.Set("keywords", keywords)
	q.Set("apikey", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("symbol search: unexpected status %d", resp.StatusCode)
	}

	var out symbolSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ErrorMsg != "" {
		return nil, errors.New(out.ErrorMsg)
	}
	if out.Note != "" && len(out.BestMatches) == 0 {
		// rate limited
		return nil, errors.New(out.Note)
	}

	matches := make([]SymbolMatch, 0, len(out.BestMatches))
	for _, m := range out.BestMatches {
		matches = append(matches, SymbolMatch{
			Symbol:         m.Symbol,
			Name:           m.Name,
			InstrumentType: m.Type,
			Region:         m.Region,
			Currency:       m.Currency,
			MatchScore:     m.MatchScore,
		})
	}
	return matches, nil
}
