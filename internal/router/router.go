package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Brownie44l1/leaf-api/internal/api"
	"github.com/Brownie44l1/leaf-api/internal/handlers"
	"github.com/Brownie44l1/leaf-api/internal/logger"
	"github.com/Brownie44l1/leaf-api/internal/metrics"
)

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// SetupRoutes wires the middleware chain and every endpoint.
func SetupRoutes(h *handlers.Handler, m *metrics.Metrics, log logger.Logger, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(Recovery(log))
	r.Use(RequestID())
	r.Use(Logger(log))
	r.Use(m.Middleware())
	r.Use(corsMiddleware(opts.AllowedOrigins))

	r.GET(api.MetricsPath, m.Handler())

	r.GET(api.HealthPath, h.Health)
	r.GET(api.DiseasesPath, h.Diseases)
	r.POST(api.PredictPath, BodyLimit(opts.MaxUploadBytes), h.Predict)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	cfg.ExposeHeaders = []string{"X-Request-ID"}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
