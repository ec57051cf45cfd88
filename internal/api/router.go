package api

import (
	"github.com/Tandez/vectorflow/internal/api/handler"
	"github.com/Tandez/vectorflow/internal/api/middleware"
	"github.com/Tandez/vectorflow/internal/auth"
	"github.com/Tandez/vectorflow/internal/extract"
	"github.com/Tandez/vectorflow/internal/queue"
	"github.com/Tandez/vectorflow/internal/service"
	"github.com/gin-gonic/gin"
)

// RouterConfig bundles the collaborators and settings the router needs.
type RouterConfig struct {
	Mode      string
	CORS      middleware.CORSConfig
	Validator auth.Validator
	Embed     handler.EmbedConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	ingestService *service.IngestService,
	statusService *service.StatusService,
	transport queue.Queue,
	extractor extract.Extractor,
	cfg RouterConfig,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS))

	healthHandler := handler.NewHealthHandler(transport)
	embedHandler := handler.NewEmbedHandler(ingestService, extractor, cfg.Embed)
	jobHandler := handler.NewJobHandler(statusService)
	dequeueHandler := handler.NewDequeueHandler(transport)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Everything else requires a valid credential before any side effect
	authed := r.Group("/", middleware.Auth(cfg.Validator))
	{
		authed.POST("/embed", embedHandler.Embed)
		authed.GET("/jobs/:id/status", jobHandler.GetStatus)

		// Debug/testing only; not part of the ingestion contract
		authed.GET("/dequeue", dequeueHandler.Dequeue)
	}

	return r
}
