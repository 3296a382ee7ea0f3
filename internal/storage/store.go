// Package storage persists Endpoint records and Drift Alerts to Postgres.
// Health windows and the learning buffer are in-memory only per the data
// model's lifecycle rules; only endpoints and drift alerts survive a
// restart.
package storage

import (
	"context"

	"github.com/mimicgate/mimicgate/internal/domain"
)

// Store is the persistence boundary the Consolidator and admin API write
// through and read from.
type Store interface {
	SaveEndpoint(ctx context.Context, e *domain.Endpoint) error
	GetEndpoint(ctx context.Context, method, patternKey string) (*domain.Endpoint, error)
	ListEndpoints(ctx context.Context) ([]*domain.Endpoint, error)
	SaveDriftAlert(ctx context.Context, a *domain.DriftAlert) error
	ListDriftAlerts(ctx context.Context, unresolvedOnly bool) ([]*domain.DriftAlert, error)
	ResolveDriftAlert(ctx context.Context, id string) error
}
