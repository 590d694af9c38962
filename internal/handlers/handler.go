package handlers

import (
	"time"

	"parking_spot/internal/logger"
	"parking_spot/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services   *service.Service
	log        *logger.Logger
	wsInterval time.Duration
}

// NewHandler constructs a new HTTP handler with dependencies. wsInterval is
// the default /ws push period; zero uses one second.
func NewHandler(services *service.Service, log *logger.Logger, wsInterval time.Duration) *Handler {
	if wsInterval <= 0 || wsInterval > maxInterval {
		wsInterval = defaultInterval
	}
	return &Handler{services: services, log: log, wsInterval: wsInterval}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)

	// Dashboard and the JSON feed it polls; open like the node-facing POST.
	router.GET("/vagas", h.dashboard)
	router.GET("/api/vagas", h.listSpots)
	router.POST("/api/vagas", h.postSpot)

	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.requireOperator)
	{
		h.registerSpotRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerSpotRoutes(api *gin.RouterGroup) {
	spots := api.Group("/spots")
	{
		spots.GET("/:id", h.getSpot)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
