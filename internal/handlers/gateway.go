package handlers

import (
	"errors"
	"net/http"

	"solarwatch/internal/models"
	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Ingest a gateway batch
// @Description  Body is a JSON array of gateway records. Invalid records are skipped; the count of processed records is returned.
// @Tags         gateway
// @Accept       json
// @Produce      json
// @Param        body  body   []models.GatewayRecord  true  "Batched records"
// @Success      200   {object}  map[string]interface{}  "status, processed"
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/gateway-data [post]
func (h *Handler) gatewayData(c *gin.Context) {
	var records []models.GatewayRecord
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPre + err.Error()})
		return
	}

	processed, err := h.services.Pipeline.ProcessBatch(c.Request.Context(), records)
	if err != nil {
		if errors.Is(err, service.ErrModelUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": errModelMissing, "processed": processed})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to process gateway batch", "gateway_batch_failed", err, "processed", processed)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    statusOK,
		"processed": processed,
	})
}
