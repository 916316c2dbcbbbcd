// Package metrics centralizes Prometheus collectors for the pipeline.
// Grounded on Tsuchiya2-catchup-feed-backend's internal/observability/metrics
// registry (promauto var block) and cmd/worker/metrics_server.go (serving
// /metrics over a plain http.ServeMux with graceful shutdown).
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-news-pipeline/internal/logger"
)

var (
	// ItemsFetchedTotal counts raw items pulled per source, by outcome.
	ItemsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_items_fetched_total",
			Help: "Total number of raw items fetched, by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	// FetchDuration measures how long each source fetch took.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_fetch_duration_seconds",
			Help:    "Duration of a single source fetch.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source"},
	)

	// ItemsScored counts items admitted or rejected by the relevance filter.
	ItemsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_items_scored_total",
			Help: "Total number of items evaluated by the relevance filter.",
		},
		[]string{"admitted"},
	)

	// DuplicatesDropped counts items dropped by the deduplicator, by reason.
	DuplicatesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_duplicates_dropped_total",
			Help: "Total number of items dropped as duplicates.",
		},
		[]string{"reason"},
	)

	// ClustersBuilt tracks how many hot topic clusters survive retention.
	ClustersBuilt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pipeline_clusters_built",
			Help: "Number of topic clusters surviving retention in the last run.",
		},
	)

	// LLMRequestsTotal counts gateway calls by outcome (ok, timeout, exhausted).
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_llm_requests_total",
			Help: "Total number of LLM gateway calls, by outcome.",
		},
		[]string{"outcome"},
	)

	// LLMTokensTotal accumulates reported token usage.
	LLMTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_llm_tokens_total",
			Help: "Total tokens reported by the LLM gateway.",
		},
	)

	// LLMRequestDuration measures gateway call latency.
	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pipeline_llm_request_duration_seconds",
			Help:    "Duration of a single LLM gateway call.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	// PublishTotal counts downstream-publisher pushes by channel and outcome.
	PublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_publish_total",
			Help: "Total number of downstream publish attempts, by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	// RunDuration measures a full digest or column run end to end.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "Duration of a full orchestrator run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"mode"},
	)
)

// Serve starts the Prometheus /metrics and /health endpoints in the
// background and shuts them down when ctx is canceled.
func Serve(ctx context.Context, port int) *http.Server {
	log := logger.Stage("metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Int("port", port).Msg("metrics server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("metrics server shutdown error")
		}
	}()

	return server
}
