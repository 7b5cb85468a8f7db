package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/metrics"
	"github.com/hodei/pipelines/pkg/storage"
)

// probeInterval is how often the storage probe refreshes component health.
const probeInterval = 10 * time.Second

// HealthServer serves health, readiness and Prometheus metrics over HTTP.
type HealthServer struct {
	store  storage.Store
	hub    *Hub
	server *http.Server
	stopCh chan struct{}
	logger zerolog.Logger
}

// NewHealthServer creates the HTTP health endpoint server.
func NewHealthServer(store storage.Store, hub *Hub) *HealthServer {
	return &HealthServer{
		store:  store,
		hub:    hub,
		stopCh: make(chan struct{}),
		logger: log.WithComponent("health"),
	}
}

// Start serves until Stop is called.
func (h *HealthServer) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", metrics.HealthHandler())
	mux.HandleFunc("/ready", metrics.ReadyHandler())
	mux.HandleFunc("/live", metrics.LivenessHandler())
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/workers", h.handleWorkers)

	h.server = &http.Server{Addr: addr, Handler: mux}

	go h.probeLoop()

	h.logger.Info().Str("address", addr).Msg("health server listening")
	if err := h.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (h *HealthServer) Stop(ctx context.Context) error {
	close(h.stopCh)
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

// probeLoop keeps the storage component's health current.
func (h *HealthServer) probeLoop() {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	h.probe()
	for {
		select {
		case <-ticker.C:
			h.probe()
		case <-h.stopCh:
			return
		}
	}
}

func (h *HealthServer) probe() {
	if _, err := h.store.ListQueues(); err != nil {
		metrics.UpdateComponent("storage", false, err.Error())
		return
	}
	metrics.UpdateComponent("storage", true, "")
}

func (h *HealthServer) handleWorkers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"connected": h.hub.Len()})
}
