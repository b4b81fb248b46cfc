package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/wotclan/tanktrivia/internal/config"
	"github.com/wotclan/tanktrivia/internal/report"
)

// NewHTTPServer wires the ops routes: health, metrics and read-only report
// endpoints for dashboards.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, rdb *redis.Client, reports *report.Builder) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), pool, rdb); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/scoreboard", func(w http.ResponseWriter, r *http.Request) {
		rows, err := reports.Scoreboard(r.Context(), time.Now().UTC())
		if err != nil {
			logger.Error().Err(err).Msg("scoreboard endpoint failed")
			http.Error(w, "scoreboard unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, rows)
	})

	mux.HandleFunc("GET /v1/players/{name}/monthly", func(w http.ResponseWriter, r *http.Request) {
		stats, err := reports.MonthlyStatistics(r.Context(), r.PathValue("name"), time.Now().UTC())
		if err != nil {
			logger.Error().Err(err).Msg("monthly stats endpoint failed")
			http.Error(w, "stats unavailable", http.StatusInternalServerError)
			return
		}
		if stats == nil {
			http.Error(w, "unknown player", http.StatusNotFound)
			return
		}
		writeJSON(w, stats)
	})

	mux.HandleFunc("GET /v1/yesterday", func(w http.ResponseWriter, r *http.Request) {
		rep, err := reports.YesterdayResults(r.Context())
		if err != nil {
			logger.Error().Err(err).Msg("yesterday endpoint failed")
			http.Error(w, "report unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, rep)
	})

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}
