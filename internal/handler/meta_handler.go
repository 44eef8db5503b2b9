package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/belegpilot/extraction-service/internal/config"
	"github.com/belegpilot/extraction-service/internal/model"
)

// Pinger reports reachability of one service dependency
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// MetaHandler serves the unauthenticated service metadata endpoints
type MetaHandler struct {
	cfg        *config.Config
	components map[string]Pinger
}

// NewMetaHandler creates a new meta handler. components maps a dependency
// name to its health probe; nil probes are skipped.
func NewMetaHandler(cfg *config.Config, components map[string]Pinger) *MetaHandler {
	return &MetaHandler{cfg: cfg, components: components}
}

// GetModels handles the GET /models endpoint
// @Summary List configured models
// @Description List the models the service can route extraction requests to, with pricing
// @Tags meta
// @Produce json
// @Success 200 {object} model.ModelsResponse "Configured models"
// @Router /models [get]
func (h *MetaHandler) GetModels(c *gin.Context) {
	seen := map[string]bool{}
	models := make([]model.ModelInfo, 0, len(h.cfg.ModelPricing)+2)

	appendModel := func(name, role string) {
		if seen[name] {
			return
		}
		seen[name] = true
		pricing, ok := h.cfg.ModelPricing[name]
		if !ok {
			pricing = h.cfg.DefaultModelPrices
		}
		models = append(models, model.ModelInfo{
			Name:            name,
			Role:            role,
			InputPerMTokUSD: pricing.InputPerMTok,
			OutputPerMTok:   pricing.OutputPerMTok,
		})
	}

	appendModel(h.cfg.DefaultModel, "default")
	appendModel(h.cfg.FallbackModel, "fallback")

	priced := make([]string, 0, len(h.cfg.ModelPricing))
	for name := range h.cfg.ModelPricing {
		priced = append(priced, name)
	}
	sort.Strings(priced)
	for _, name := range priced {
		appendModel(name, "priced")
	}

	respondOK(c, model.ModelsResponse{Models: models})
}

// GetHealth handles the GET /health endpoint
// @Summary Health check
// @Description Report service health including dependency reachability
// @Tags meta
// @Produce json
// @Success 200 {object} model.HealthResponse "All dependencies reachable"
// @Failure 503 {object} model.HealthResponse "One or more dependencies down"
// @Router /health [get]
func (h *MetaHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	components := make(map[string]string, len(h.components))
	for name, pinger := range h.components {
		if pinger == nil {
			continue
		}
		if err := pinger.Ping(ctx); err != nil {
			components[name] = "down"
			status = "degraded"
		} else {
			components[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, model.HealthResponse{Status: status, Components: components})
}
