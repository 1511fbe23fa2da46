package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/justabill/internal/db"
	"github.com/jonathan/justabill/internal/ingestion"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const metricsPushTimeout = 10 * time.Second

// openDB connects to the configured database.
func (a *app) openDB(ctx context.Context) (*db.DB, error) {
	if err := a.cfg.RequireDatabase(); err != nil {
		return nil, err
	}
	return db.Connect(ctx, a.cfg.DatabaseURL)
}

// openRedis connects to the configured Redis server.
func (a *app) openRedis(ctx context.Context) (*redis.Client, error) {
	if err := a.cfg.RequireRedis(); err != nil {
		return nil, err
	}
	return queue.Connect(ctx, a.cfg.RedisURL)
}

// openNotifier returns the summarization queue when Redis is configured. Without Redis,
// ingestion still runs and sections are left for a later resummarize.
func (a *app) openNotifier(ctx context.Context) (ingestion.Notifier, func(), error) {
	if a.cfg.RedisURL == "" {
		a.logger.Warn("REDIS_URL not set; new sections will not be queued for summarization")
		return nil, func() {}, nil
	}
	client, err := queue.Connect(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	publisher := queue.NewPublisher(client, a.cfg.Summary.Stream)
	publisher.SetLogger(a.logger)
	return publisher, func() { _ = client.Close() }, nil
}

// openMetrics registers the counters of a one-shot command on a fresh registry. The
// returned flush pushes them to the configured Pushgateway under job and is a no-op
// without one. Push failures are logged, never returned.
func (a *app) openMetrics(job string) (*observability.Metrics, func(), error) {
	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		return nil, nil, err
	}
	flush := func() {
		if a.cfg.PushgatewayURL == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), metricsPushTimeout)
		defer cancel()
		if err := observability.PushMetrics(ctx, a.cfg.PushgatewayURL, job, registry); err != nil {
			a.logger.Warn("metrics push failed", slog.String("job", job), slog.Any("error", err))
		}
	}
	return metrics, flush, nil
}

func parseBillID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --bill-id %q: %w", s, err)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
