package handlers

import (
	"net/http"

	"water_tank/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	errListTanks   = "failed to load tanks"
	errSaveTank    = "failed to save tank"
	errDeleteTank  = "failed to delete tank"
	errSaveOrder   = "failed to save tank order"
	errPublishTank = "failed to publish tanks"
)

// SaveOrderRequest is the body of POST /api/v1/tanks/order.
type SaveOrderRequest struct {
	// Tank ids in display order
	IDs []string `json:"ids" binding:"required" example:"roof,cellar"`
}

// @Summary      All tanks (legacy)
// @Description  Every tank ordered by display order, the same array the data topic carries.
// @Tags         dashboard
// @Produce      json
// @Success      200  {array}   models.Tank
// @Failure      500  {object}  map[string]string
// @Router       /water-tank-get-all [get]
func (h *Handler) getAllTanks(c *gin.Context) {
	snap, err := h.services.Tanks.Snapshot(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListTanks, "tanks_get_all_failed", err)
		return
	}
	c.JSON(http.StatusOK, snap.Ordered())
}

// @Summary      List tanks
// @Tags         tanks
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, tanks"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tanks [get]
func (h *Handler) listTanks(c *gin.Context) {
	tanks, err := h.services.Tanks.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListTanks, "tanks_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(tanks),
		"tanks": tanks,
	})
}

// @Summary      Get tank
// @Tags         tanks
// @Produce      json
// @Param        id   path      string  true  "Tank id"
// @Success      200  {object}  models.Tank
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/tanks/{id} [get]
func (h *Handler) getTank(c *gin.Context) {
	id := c.Param("id")
	t, err := h.services.Tanks.Get(c.Request.Context(), id)
	if err != nil {
		h.respondServiceError(c, errListTanks, "tank_get_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Create or update tank
// @Description  Upserts the tank definition. Reading fields of a stored tank are kept.
// @Tags         tanks
// @Accept       json
// @Produce      json
// @Param        body  body      models.Tank  true  "Tank definition"
// @Success      200   {object}  models.Tank
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/tanks [put]
func (h *Handler) saveTank(c *gin.Context) {
	var req models.Tank
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	saved, err := h.services.Tanks.Save(c.Request.Context(), req)
	if err != nil {
		h.respondServiceError(c, errSaveTank, "tank_save_failed", err, "id", req.ID)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// @Summary      Delete tank
// @Tags         tanks
// @Produce      json
// @Param        id   path      string  true  "Tank id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tanks/{id} [delete]
func (h *Handler) deleteTank(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.Tanks.Delete(c.Request.Context(), id); err != nil {
		h.respondServiceError(c, errDeleteTank, "tank_delete_failed", err, "id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

// @Summary      Save display order
// @Tags         tanks
// @Accept       json
// @Produce      json
// @Param        body  body      SaveOrderRequest  true  "Ids in order"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/tanks/order [post]
func (h *Handler) saveOrder(c *gin.Context) {
	var req SaveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Tanks.SaveOrder(c.Request.Context(), req.IDs); err != nil {
		h.respondServiceError(c, errSaveOrder, "tank_order_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Republish snapshot
// @Description  Publishes the full snapshot on the data topic, like a message on the request topic.
// @Tags         tanks
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tanks/publish [post]
func (h *Handler) publishSnapshot(c *gin.Context) {
	if err := h.services.Ingest.HandleDataRequest(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errPublishTank, "tanks_publish_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
