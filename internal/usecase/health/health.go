// Package health reports service liveness and dependency connectivity.
package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/nordveil/shopsearch/internal/domain"
	"github.com/nordveil/shopsearch/internal/domain/search"
)

// pinger is the store connectivity probe.
type pinger interface {
	Ping(ctx context.Context) error
}

// Report is the health endpoint payload.
type Report struct {
	Status        string   `json:"status"`
	Database      string   `json:"database"`
	ModelProvider string   `json:"model_provider,omitempty"`
	SearchTypes   []string `json:"search_types"`
}

// Service checks dependencies for the health endpoint.
type Service struct {
	db     pinger
	model  domain.HealthChecker
	logger *zap.Logger
}

// NewService creates a health service. The model checker may be nil, in
// which case the provider probe is skipped.
func NewService(db pinger, model domain.HealthChecker, logger *zap.Logger) *Service {
	return &Service{db: db, model: model, logger: logger}
}

// Check probes the store and the model provider and reports the supported
// search types. A dependency outage degrades the report instead of failing
// the request.
func (s *Service) Check(ctx context.Context) Report {
	report := Report{
		Status:      "ok",
		Database:    "connected",
		SearchTypes: search.Types(),
	}

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Warn("health check: store unreachable", zap.Error(err))
		report.Status = "degraded"
		report.Database = "disconnected"
	}

	if s.model != nil {
		report.ModelProvider = "connected"
		if err := s.model.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check: model provider unreachable", zap.Error(err))
			report.Status = "degraded"
			report.ModelProvider = "disconnected"
		}
	}

	return report
}
