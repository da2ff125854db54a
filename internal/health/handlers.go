// Package health exposes liveness and readiness probes. Readiness is gated
// both on optional backend pings (the catalog provider's redis or postgres,
// when configured) and on a process-level ready flag flipped off during
// graceful shutdown so load balancers drain before the listener closes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process readiness gate.
func SetReady(v bool) {
	ready.Store(v)
}

// Pinger probes one backing dependency.
type Pinger func(ctx context.Context, timeout time.Duration) error

// Handler exposes HTTP handlers for health endpoints. Nil pingers are
// skipped: a static-catalog deployment has no backends to probe.
type Handler struct {
	DB           Pinger
	Redis        Pinger
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on the shutdown gate and dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	ctx := r.Context()
	status := map[string]string{}
	healthy := true
	if h.DB != nil {
		status["db"] = "ok"
		if err := h.DB(ctx, h.dbTimeout()); err != nil {
			status["db"] = err.Error()
			healthy = false
		}
	}
	if h.Redis != nil {
		status["redis"] = "ok"
		if err := h.Redis(ctx, h.redisTimeout()); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (h Handler) dbTimeout() time.Duration {
	if h.DBTimeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.DBTimeout
}

func (h Handler) redisTimeout() time.Duration {
	if h.RedisTimeout <= 0 {
		return 300 * time.Millisecond
	}
	return h.RedisTimeout
}
