package handlers

import (
	"solarwatch/internal/hub"
	"solarwatch/internal/logger"
	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services, the broadcast hub and logging.
type Handler struct {
	services *service.Service
	hub      *hub.Hub
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, h *hub.Hub, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: h, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health and metrics endpoints
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Live monitoring stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerMonitorRoutes(api)
		h.registerAlertRoutes(api)
		h.registerGatewayRoutes(api)
		h.registerCommandRoutes(api)
	}
}

func (h *Handler) registerMonitorRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.status)
	api.POST("/predict", h.predict)
	api.GET("/simulate", h.simulate)
	// Body example: {"fault_type":2}
	api.POST("/simulation-mode", h.setSimulationMode)
	api.GET("/fault-types", h.faultTypes)
	api.GET("/recommendations", h.recommendations)
	api.POST("/connect", h.connect)
	api.POST("/disconnect", h.disconnect)
	api.GET("/serial-ports", h.serialPorts)
}

func (h *Handler) registerAlertRoutes(api *gin.RouterGroup) {
	alerts := api.Group("/alerts")
	{
		alerts.POST("/configure", h.configureAlerts)
		alerts.GET("/status", h.alertStatus)
		alerts.POST("/test", h.testAlert)
		alerts.GET("/log", h.alertLog)
	}
}

func (h *Handler) registerGatewayRoutes(api *gin.RouterGroup) {
	api.POST("/gateway-data", h.gatewayData)
}

func (h *Handler) registerCommandRoutes(api *gin.RouterGroup) {
	api.POST("/command", h.enqueueCommand)
	api.GET("/command/:station_id", h.pollCommand)
}
