package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"oraconnect/internal/store/oracle"

	"github.com/rs/zerolog/log"
)

// PoolHealth is the slice of *oracle.Pool the handlers need.
type PoolHealth interface {
	Ping(ctx context.Context) error
	Stats() oracle.Stats
}

const pingTimeout = 5 * time.Second

func Health(pool PoolHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("health: ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "unavailable"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}
}

func Stats(pool PoolHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(pool.Stats())
	}
}
