package domain

type Settings struct {
	// Taille de batch pour le scan des checkpoints dus.
	ScanBatchSize int `json:"scanBatchSize"`

	// Concurrence max du fan-out du scanner (réglable à chaud).
	MaxConcurrentChecks int `json:"maxConcurrentChecks"`

	// Market data (optionnel): clé API pour la recherche de symboles.
	MarketDataToken   string `json:"marketDataToken"`
	MarketDataBaseURL string `json:"marketDataBaseUrl"`
}

func DefaultSettings() Settings {
	return Settings{
		ScanBatchSize:       50,
		MaxConcurrentChecks: 4,
	}
}
