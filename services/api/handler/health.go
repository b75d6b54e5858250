package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
)

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz — probes Redis and Postgres with a lookup of a
// task id that cannot exist; NotFoundError means the backend answered.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var notFound *domain.NotFoundError
	if _, err := h.cache.GetTask(ctx, 0); err != nil && !errors.As(err, &notFound) {
		writeError(w, http.StatusServiceUnavailable, "redis not ready")
		return
	}
	if _, err := h.tasks.GetByID(ctx, 0); err != nil && !errors.As(err, &notFound) {
		writeError(w, http.StatusServiceUnavailable, "postgres not ready")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
