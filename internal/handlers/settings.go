package handlers

import (
	"net/http"

	"water_tank/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errGetSettings  = "failed to load settings"
	errSaveSettings = "failed to save settings"
)

// @Summary      Dashboard settings (legacy)
// @Description  Settings plus the broker topics, as read by the dashboard page.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /water_tank_get_settings_json [get]
func (h *Handler) getSettingsJSON(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.Settings.Get(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSettings, "settings_get_failed", err)
		return
	}
	mq := h.services.Settings.MQTT(ctx)
	c.JSON(http.StatusOK, gin.H{
		"max_sensor_no_signal_time":    st.MaxSensorNoSignalTime,
		"max_sensor_log_records":       st.MaxSensorLogRecords,
		"sensor_log_enabled":           st.SensorLogEnabled,
		"mqtt_broker_ws_port":          mq.BrokerWSPort,
		"data_publish_mqtt_topic":      mq.DataPublishTopic,
		"request_subscribe_mqtt_topic": mq.RequestTopic,
	})
}

// @Summary      Broker settings
// @Description  Loopback broker hosts are replaced by the server's outbound address.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.MQTTSettings
// @Router       /water-tank-get_mqtt_settings [get]
func (h *Handler) getMQTTSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Settings.MQTT(c.Request.Context()))
}

// @Summary      Get settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.Settings
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	st, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSettings, "settings_get_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Save settings
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body      models.Settings  true  "Settings"
// @Success      200   {object}  models.Settings
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/settings [put]
func (h *Handler) saveSettings(c *gin.Context) {
	var req models.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Settings.Save(c.Request.Context(), req); err != nil {
		h.respondServiceError(c, errSaveSettings, "settings_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, req)
}
