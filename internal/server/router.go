package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"timesolver/internal/config"
	"timesolver/internal/logging"
)

// NewRouter assembles the gin engine: logging and recovery middleware, the
// operational endpoints at the root, and the API under the configured prefix.
func NewRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(logging.GinMiddleware(logger), gin.Recovery())

	router.GET("/healthz", handler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group(cfg.APIPrefix)
	{
		api.POST("/solve", handler.Solve)
		api.POST("/solve/async", handler.SolveAsync)
		api.GET("/solve/status/:id", handler.Status)
		api.GET("/solve/result/:id", handler.Result)
		api.DELETE("/solve/cancel/:id", handler.Cancel)
		api.POST("/validate", handler.Validate)
	}
	return router
}
