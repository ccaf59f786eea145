package usecase

import (
	"context"
	"errors"

	"suggest-combiner/internal/domain"
)

// HealthService reports the service's own liveness and whether the LLM path
// is configured. It never contacts the LLM.
type HealthService struct {
	config ConfigResolver
}

func NewHealthService(cfg ConfigResolver) (*HealthService, error) {
	if cfg == nil {
		return nil, errors.New("usecase: config resolver must not be nil")
	}
	return &HealthService{config: cfg}, nil
}

func (s *HealthService) Check(ctx context.Context) domain.HealthStatus {
	cfg := s.config.Resolve(ctx)
	return domain.HealthStatus{
		Status:       domain.HealthStatusOK,
		LLMAvailable: cfg.Usable(),
		Config:       cfg.Snapshot(),
	}
}
