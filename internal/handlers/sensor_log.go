package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"water_tank/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errListSensorLog  = "failed to load sensor log"
	errClearSensorLog = "failed to clear sensor log"
	errExportLog      = "failed to export sensor log"
	errLimitInvalid   = "invalid 'limit'; use a positive integer"
)

// @Summary      List sensor log
// @Description  Raw sensor messages, newest first.
// @Tags         sensor-log
// @Produce      json
// @Param        limit  query     int  false  "Max entries"  example(100)
// @Success      200    {object}  map[string]interface{}  "count, entries"
// @Failure      400    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/sensor-log [get]
func (h *Handler) listSensorLog(c *gin.Context) {
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": errLimitInvalid})
			return
		}
		limit = v
	}
	entries, err := h.services.SensorLog.List(c.Request.Context(), limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSensorLog, "sensor_log_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

// @Summary      Clear sensor log
// @Tags         sensor-log
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sensor-log [delete]
func (h *Handler) clearSensorLog(c *gin.Context) {
	if err := h.services.SensorLog.Clear(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errClearSensorLog, "sensor_log_clear_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// @Summary      Download sensor log
// @Tags         sensor-log
// @Produce      octet-stream
// @Param        format  query  string  false  "File format"  Enums(csv,xlsx,pdf)
// @Success      200
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/sensor-log/download [get]
func (h *Handler) downloadSensorLog(c *gin.Context) {
	h.writeSensorLog(c, c.DefaultQuery("format", service.FormatCSV))
}

func (h *Handler) downloadSensorLogCSV(c *gin.Context) {
	h.writeSensorLog(c, service.FormatCSV)
}

// writeSensorLog renders into a buffer first so a failed export still gets a JSON error.
func (h *Handler) writeSensorLog(c *gin.Context, format string) {
	contentType, ext, ok := service.ExportContentType(format)
	if !ok {
		h.respondServiceError(c, errExportLog, "sensor_log_export_failed", service.ErrUnsupportedFormat, "format", format)
		return
	}

	var buf bytes.Buffer
	if err := h.services.SensorLog.Export(c.Request.Context(), ext, &buf); err != nil {
		h.respondServiceError(c, errExportLog, "sensor_log_export_failed", err, "format", ext)
		return
	}

	name := fmt.Sprintf("water_tank_sensor_log_%s.%s", time.Now().Format("20060102_150405"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
