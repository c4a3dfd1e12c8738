package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/miraverse/miraverse-backend/internal/http/handlers"
	httpMW "github.com/miraverse/miraverse-backend/internal/http/middleware"
	"github.com/miraverse/miraverse-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	// CORSOrigins extends the built-in local dev origin list.
	CORSOrigins []string

	GenerateHandler *httpH.GenerateHandler
	SourceHandler   *httpH.SourceHandler
	LabsHandler     *httpH.LabsHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestID())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		if cfg.GenerateHandler != nil {
			api.POST("/generate", cfg.GenerateHandler.Generate)
		}

		if cfg.SourceHandler != nil {
			sources := api.Group("/sources")
			sources.POST("/file", cfg.SourceHandler.UploadFile)
			sources.POST("/link", cfg.SourceHandler.AddLink)
			sources.POST("/youtube", cfg.SourceHandler.AddYouTube)
			sources.POST("/text", cfg.SourceHandler.AddText)
			sources.POST("/summarize", cfg.SourceHandler.Summarize)
		}

		if cfg.LabsHandler != nil {
			api.GET("/labs", cfg.LabsHandler.List)
			api.POST("/labs/synthesize", cfg.LabsHandler.Synthesize)
		}
	}

	return r
}
