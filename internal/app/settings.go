package app

import (
	"context"

	"github.com/tickerping/tickerping/internal/domain"
	"github.com/tickerping/tickerping/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	// Validation légère: les valeurs non positives retombent sur les défauts.
	if settings.ScanBatchSize <= 0 {
		settings.ScanBatchSize = domain.DefaultSettings().ScanBatchSize
	}
	if settings.MaxConcurrentChecks <= 0 {
		settings.MaxConcurrentChecks = domain.DefaultSettings().MaxConcurrentChecks
	}
	return s.repo.Put(ctx, settings)
}
