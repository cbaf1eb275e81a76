package handler

import (
	"context"
	"net/http"

	"github.com/yourorg/projectflow/internal/repository"
)

// Pinger is satisfied by the optional redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports gateway liveness and cache readiness.
type HealthHandler struct {
	projects *repository.ProjectRepository
	redis    Pinger
}

func NewHealthHandler(projects *repository.ProjectRepository, redis Pinger) *HealthHandler {
	return &HealthHandler{projects: projects, redis: redis}
}

// ServeHTTP handles GET /health requests.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":         "ok",
		"cacheLoaded":    h.projects.Loaded(),
		"cachedProjects": len(h.projects.Projects()),
	}
	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			resp["redis"] = "unreachable"
		} else {
			resp["redis"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
