package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/jobscribe-backend/internal/http/handlers"
	httpMW "github.com/yungbote/jobscribe-backend/internal/http/middleware"
	"github.com/yungbote/jobscribe-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	CORSOrigins []string

	HealthHandler *httpH.HealthHandler
	IngestHandler *httpH.IngestHandler
	SchemaHandler *httpH.SchemaHandler
	ConfigHandler *httpH.ConfigHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestID())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.IngestHandler != nil {
			api.POST("/ingest/url", cfg.IngestHandler.IngestURL)
			api.POST("/ingest/batch", cfg.IngestHandler.IngestBatch)
		}

		if cfg.SchemaHandler != nil {
			api.GET("/schema", cfg.SchemaHandler.GetSchema)
			api.POST("/schema/invalidate", cfg.SchemaHandler.InvalidateCache)
		}

		if cfg.ConfigHandler != nil {
			api.GET("/config", cfg.ConfigHandler.GetConfig)
		}
	}

	return r
}
