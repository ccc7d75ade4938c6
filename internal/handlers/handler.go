package handlers

import (
	"html/template"

	"water_tank/internal/display"
	"water_tank/internal/logger"
	"water_tank/internal/metrics"
	"water_tank/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// BoardWatcher is the server-side display the page and the stream read from.
type BoardWatcher interface {
	Rows() []display.RowState
	Watch() ([]display.RowState, chan display.Patch)
	Unwatch(ch chan display.Patch)
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	board    BoardWatcher
	log      *logger.Logger
	tpl      *template.Template
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, board BoardWatcher, log *logger.Logger) *Handler {
	return &Handler{services: services, board: board, log: log, tpl: parseTemplates()}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Dashboard page and its live stream
	router.GET("/", h.index)
	router.StaticFS("/static", staticFS())
	router.GET("/ws", h.wsBoard)

	h.registerLegacyRoutes(router)
	h.registerAPIRoutes(router)

	return router
}

// registerLegacyRoutes keeps the paths existing dashboard clients poll.
func (h *Handler) registerLegacyRoutes(r *gin.Engine) {
	r.GET("/water-tank-get-all", h.getAllTanks)
	r.GET("/water_tank_get_settings_json", h.getSettingsJSON)
	r.GET("/water-tank-get_mqtt_settings", h.getMQTTSettings)
	r.GET("/water_plugin_download_sensor_log", h.downloadSensorLogCSV)
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerTankRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerSensorLogRoutes(api)
	}
}

func (h *Handler) registerTankRoutes(api *gin.RouterGroup) {
	tanks := api.Group("/tanks")
	{
		tanks.GET("", h.listTanks)
		tanks.GET("/:id", h.getTank)
		tanks.PUT("", h.saveTank)
		tanks.DELETE("/:id", h.deleteTank)
		// Body example: {"ids":["roof","cellar"]}
		tanks.POST("/order", h.saveOrder)
		tanks.POST("/publish", h.publishSnapshot)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	settings := api.Group("/settings")
	{
		settings.GET("", h.getSettings)
		settings.PUT("", h.saveSettings)
		settings.GET("/mqtt", h.getMQTTSettings)
	}
}

func (h *Handler) registerSensorLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/sensor-log")
	{
		logs.GET("", h.listSensorLog)
		logs.DELETE("", h.clearSensorLog)
		logs.GET("/download", h.downloadSensorLog)
	}
}
