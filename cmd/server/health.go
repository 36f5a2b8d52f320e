package main

import (
	"context"
	"net/http"
	"time"

	"github.com/kiranshivaraju/brandguard/internal/api/response"
	"github.com/kiranshivaraju/brandguard/internal/audit"
)

// pingTimeout bounds all dependency checks of one health request together.
const pingTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

type namedPinger interface {
	pinger
	Name() string
}

type readiness interface {
	Ready(ctx context.Context) bool
}

type statsSource interface {
	Stats() audit.Stats
}

type healthBody struct {
	Status             string            `json:"status"`
	Service            string            `json:"service"`
	KnowledgeBaseReady bool              `json:"knowledgeBaseReady"`
	ModelReady         bool              `json:"modelReady"`
	Provider           string            `json:"provider"`
	Jobs               audit.Stats       `json:"jobs"`
	Services           map[string]string `json:"services"`
}

// healthHandler reports liveness plus readiness flags. It always answers 200.
func healthHandler(db, c pinger, model namedPinger, kb readiness, jobs statsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		services := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}
		if err := db.Ping(ctx); err != nil {
			services["database"] = "degraded"
		}
		if err := c.Ping(ctx); err != nil {
			services["cache"] = "degraded"
		}

		response.JSON(w, healthBody{
			Status:             "healthy",
			Service:            "brandguard",
			KnowledgeBaseReady: kb.Ready(ctx),
			ModelReady:         model.Ping(ctx) == nil,
			Provider:           model.Name(),
			Jobs:               jobs.Stats(),
			Services:           services,
		})
	}
}
