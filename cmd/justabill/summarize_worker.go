package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/justabill/internal/llm"
	"github.com/jonathan/justabill/internal/observability"
	"github.com/jonathan/justabill/internal/queue"
	"github.com/jonathan/justabill/internal/summarize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSummarizeWorkerCmd(a *app) *cobra.Command {
	var (
		metricsAddr  string
		consumerName string
	)

	cmd := &cobra.Command{
		Use:   "summarize-worker",
		Short: "Run the section summarization worker",
		Long:  "Consume section summarize requests from Redis, summarize each section with the configured LLM provider and store the result. Stops on SIGINT or SIGTERM.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireLLM(); err != nil {
				return err
			}
			if consumerName == "" {
				host, _ := os.Hostname()
				consumerName = fmt.Sprintf("%s-%d", host, os.Getpid())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			client, err := a.openRedis(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			summarizer, err := llm.NewSummarizer(ctx, a.cfg, nil)
			if err != nil {
				return err
			}
			defer func() { _ = summarizer.Close() }()

			registry := prometheus.NewRegistry()
			metrics, err := observability.NewMetrics(registry)
			if err != nil {
				return err
			}

			consumer := queue.NewConsumer(client, a.cfg.Summary.Stream, a.cfg.Summary.Group, consumerName)
			if err := consumer.EnsureGroup(ctx); err != nil {
				return err
			}
			publisher := queue.NewPublisher(client, a.cfg.Summary.Stream)
			publisher.SetLogger(a.logger)
			worker := summarize.NewWorker(store, consumer, publisher, summarizer, &a.cfg.Summary, metrics,
				a.logger.With(slog.String("consumer", consumerName)))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return worker.Run(ctx) })
			if metricsAddr != "" {
				srv := observability.NewMetricsServer(metricsAddr, registry)
				g.Go(func() error {
					a.logger.Info("serving metrics", slog.String("addr", metricsAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return fmt.Errorf("metrics server: %w", err)
					}
					return nil
				})
				g.Go(func() error {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Address for the Prometheus /metrics endpoint; empty disables it")
	cmd.Flags().StringVar(&consumerName, "consumer", "", "Consumer name within the group (default host-pid)")
	return cmd
}
