package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"parking_spot/internal/models"
	"parking_spot/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errListSpots = "failed to load spots"
	errSaveSpot  = "failed to save spot"
	errGetSpot   = "failed to load spot"
	errNoSpot    = "spot not found"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// SpotRequest is the snapshot a bridge or node posts. Telemetry fields are
// optional and stored as NULL when absent.
type SpotRequest struct {
	ID         string `json:"id" binding:"required" example:"Vaga-01"`
	Status     string `json:"status" binding:"required" example:"OCUPADA"`
	DistanceCm *int   `json:"distancia_cm,omitempty" example:"3"`
	NoiseRaw   *int   `json:"nivel_ruido_raw,omitempty" example:"40"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List spots
// @Description  Id and status of every spot, ordered by id.
// @Tags         spots
// @Produce      json
// @Success      200  {array}   models.SpotSummary
// @Failure      500  {object}  map[string]string
// @Router       /api/vagas [get]
func (h *Handler) listSpots(c *gin.Context) {
	spots, err := h.services.Spots.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListSpots, "spots_list_failed", err)
		return
	}

	out := make([]models.SpotSummary, 0, len(spots))
	for _, s := range spots {
		out = append(out, models.SpotSummary{ID: s.ID, Status: s.Status})
	}
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, out)
}

// @Summary      Upsert a spot snapshot
// @Tags         spots
// @Accept       json
// @Produce      json
// @Param        body  body      SpotRequest  true  "Spot snapshot"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/vagas [post]
func (h *Handler) postSpot(c *gin.Context) {
	var req SpotRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	err := h.services.Spots.Ingest(c.Request.Context(), models.SpotState{
		ID:         req.ID,
		Status:     req.Status,
		DistanceCm: req.DistanceCm,
		NoiseRaw:   req.NoiseRaw,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidSpot) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveSpot, "spot_ingest_failed", err, "spot_id", req.ID)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Vaga %s atualizada com status: %s", req.ID, req.Status),
	})
}

// @Summary      Get spot
// @Description  Full snapshot of one spot, including the last telemetry.
// @Tags         spots
// @Produce      json
// @Param        id   path      string  true  "Spot id"
// @Success      200  {object}  models.SpotState
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/spots/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSpot(c *gin.Context) {
	id := c.Param("id")
	st, err := h.services.Spots.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSpotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errNoSpot})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSpot, "spot_get_failed", err, "spot_id", id)
		return
	}
	c.JSON(http.StatusOK, st)
}
