package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mimicgate/mimicgate/internal/domain"
	"github.com/mimicgate/mimicgate/internal/schema"
)

// writeRetryDelay is the single backoff pause before a write is retried
// once, per the storage error-handling rule: retry once with backoff, then
// log and continue.
const writeRetryDelay = 250 * time.Millisecond

// PostgresStore persists endpoints and drift alerts through a pooled
// connection, tuned the way the audit repo tunes its database/sql pool but
// expressed through pgx/v5's native pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a tuned connection pool against connString and
// verifies connectivity before returning.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("storage: parse connection string: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MaxConnLifetime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// withWriteRetry runs fn once, and on failure waits writeRetryDelay and
// retries exactly once more before giving up, per the storage write
// failure handling rule.
func withWriteRetry(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err == nil {
		return nil
	}
	select {
	case <-time.After(writeRetryDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn(ctx)
}

func (s *PostgresStore) SaveEndpoint(ctx context.Context, e *domain.Endpoint) error {
	return withWriteRetry(ctx, func(ctx context.Context) error {
		reqSchema, err := json.Marshal(e.RequestSchema)
		if err != nil {
			return fmt.Errorf("storage: marshal request schema: %w", err)
		}
		respSchemas, err := json.Marshal(e.ResponseSchemas)
		if err != nil {
			return fmt.Errorf("storage: marshal response schemas: %w", err)
		}
		statusClasses, err := json.Marshal(e.StatusClassHistogram)
		if err != nil {
			return fmt.Errorf("storage: marshal status class histogram: %w", err)
		}
		statusCodes, err := json.Marshal(e.StatusCodeHistogram)
		if err != nil {
			return fmt.Errorf("storage: marshal status code histogram: %w", err)
		}

		_, err = s.pool.Exec(ctx, `
			INSERT INTO endpoints (
				id, method, pattern_key, first_seen, last_seen, sample_count,
				request_schema, response_schemas, latency_mean_ms, latency_mean_sq_ms,
				status_class_histogram, status_code_histogram,
				last_request_body, last_response_body
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (method, pattern_key) DO UPDATE SET
				last_seen = EXCLUDED.last_seen,
				sample_count = EXCLUDED.sample_count,
				request_schema = EXCLUDED.request_schema,
				response_schemas = EXCLUDED.response_schemas,
				latency_mean_ms = EXCLUDED.latency_mean_ms,
				latency_mean_sq_ms = EXCLUDED.latency_mean_sq_ms,
				status_class_histogram = EXCLUDED.status_class_histogram,
				status_code_histogram = EXCLUDED.status_code_histogram,
				last_request_body = EXCLUDED.last_request_body,
				last_response_body = EXCLUDED.last_response_body`,
			e.ID, e.Method, e.PatternKey, e.FirstSeen, e.LastSeen, e.SampleCount,
			reqSchema, respSchemas, e.LatencyMeanMs, e.LatencyMeanSquareMs(),
			statusClasses, statusCodes,
			e.LastRequestBody, e.LastResponseBody,
		)
		return err
	})
}

func (s *PostgresStore) GetEndpoint(ctx context.Context, method, patternKey string) (*domain.Endpoint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, method, pattern_key, first_seen, last_seen, sample_count,
			request_schema, response_schemas, latency_mean_ms, latency_mean_sq_ms,
			status_class_histogram, status_code_histogram,
			last_request_body, last_response_body
		FROM endpoints WHERE method = $1 AND pattern_key = $2`, method, patternKey)

	e, err := scanEndpoint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (s *PostgresStore) ListEndpoints(ctx context.Context) ([]*domain.Endpoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, method, pattern_key, first_seen, last_seen, sample_count,
			request_schema, response_schemas, latency_mean_ms, latency_mean_sq_ms,
			status_class_histogram, status_code_histogram,
			last_request_body, last_response_body
		FROM endpoints`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Endpoint
	for rows.Next() {
		e, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// rowScanner abstracts pgx.Row and pgx.Rows, which share a Scan method but
// no common interface in pgx/v5.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(row rowScanner) (*domain.Endpoint, error) {
	var (
		e                          domain.Endpoint
		reqSchema, respSchemas     []byte
		statusClasses, statusCodes []byte
		latencyMeanMs, latencyMeanSqMs float64
	)
	if err := row.Scan(
		&e.ID, &e.Method, &e.PatternKey, &e.FirstSeen, &e.LastSeen, &e.SampleCount,
		&reqSchema, &respSchemas, &latencyMeanMs, &latencyMeanSqMs,
		&statusClasses, &statusCodes,
		&e.LastRequestBody, &e.LastResponseBody,
	); err != nil {
		return nil, err
	}

	e.RestoreLatencyStats(latencyMeanMs, latencyMeanSqMs)

	if len(reqSchema) > 0 && string(reqSchema) != "null" {
		var d schema.Descriptor
		if err := json.Unmarshal(reqSchema, &d); err != nil {
			return nil, fmt.Errorf("storage: unmarshal request schema: %w", err)
		}
		e.RequestSchema = &d
	}
	e.ResponseSchemas = make(map[string]*schema.Descriptor)
	if len(respSchemas) > 0 && string(respSchemas) != "null" {
		if err := json.Unmarshal(respSchemas, &e.ResponseSchemas); err != nil {
			return nil, fmt.Errorf("storage: unmarshal response schemas: %w", err)
		}
	}
	e.StatusClassHistogram = make(map[string]int64)
	if len(statusClasses) > 0 {
		if err := json.Unmarshal(statusClasses, &e.StatusClassHistogram); err != nil {
			return nil, fmt.Errorf("storage: unmarshal status class histogram: %w", err)
		}
	}
	e.StatusCodeHistogram = make(map[int]int64)
	if len(statusCodes) > 0 {
		if err := json.Unmarshal(statusCodes, &e.StatusCodeHistogram); err != nil {
			return nil, fmt.Errorf("storage: unmarshal status code histogram: %w", err)
		}
	}
	return &e, nil
}

func (s *PostgresStore) SaveDriftAlert(ctx context.Context, a *domain.DriftAlert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return withWriteRetry(ctx, func(ctx context.Context) error {
		issues, err := json.Marshal(a.Issues)
		if err != nil {
			return fmt.Errorf("storage: marshal issues: %w", err)
		}
		_, err = s.pool.Exec(ctx, `
			INSERT INTO drift_alerts (id, endpoint_id, timestamp, score, issues, resolved, trace_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (id) DO UPDATE SET resolved = EXCLUDED.resolved`,
			a.ID, a.EndpointID, a.Timestamp, a.Score, issues, a.Resolved, a.TraceID,
		)
		return err
	})
}

func (s *PostgresStore) ListDriftAlerts(ctx context.Context, unresolvedOnly bool) ([]*domain.DriftAlert, error) {
	query := `SELECT id, endpoint_id, timestamp, score, issues, resolved, trace_id FROM drift_alerts`
	if unresolvedOnly {
		query += ` WHERE resolved = false`
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.DriftAlert
	for rows.Next() {
		var a domain.DriftAlert
		var issues []byte
		if err := rows.Scan(&a.ID, &a.EndpointID, &a.Timestamp, &a.Score, &issues, &a.Resolved, &a.TraceID); err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			if err := json.Unmarshal(issues, &a.Issues); err != nil {
				return nil, fmt.Errorf("storage: unmarshal issues: %w", err)
			}
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ResolveDriftAlert(ctx context.Context, id string) error {
	return withWriteRetry(ctx, func(ctx context.Context) error {
		ct, err := s.pool.Exec(ctx, `UPDATE drift_alerts SET resolved = true WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("storage: drift alert %s not found", id)
		}
		return nil
	})
}
