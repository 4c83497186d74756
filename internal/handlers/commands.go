package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Request DTO for queueing a station command.
type commandRequest struct {
	StationID int    `json:"station_id"`
	Command   string `json:"command" binding:"required"`
}

// CommandRequest is an exported model for Swagger docs of the command payload.
type CommandRequest struct {
	// Station the command is addressed to
	StationID int `json:"station_id" example:"1"`
	// Command verb, e.g. TOGGLE_RELAY
	Command string `json:"command" example:"TOGGLE_RELAY"`
}

// @Summary      Queue a command for a station
// @Description  One pending command per station; a newer command overwrites the previous one.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        body  body   CommandRequest  true  "Command payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/command [post]
func (h *Handler) enqueueCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPre + err.Error()})
		return
	}
	h.services.Mailbox.Enqueue(req.StationID, req.Command)
	if h.log != nil {
		h.log.Infow("command_queued", "station_id", req.StationID, "command", req.Command)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     statusQueued,
		"station_id": req.StationID,
	})
}

// @Summary      Poll the pending command for a station
// @Description  Consumes the command: a second poll returns 204 until a new command is queued.
// @Tags         commands
// @Produce      json
// @Param        station_id  path  int  true  "Station identifier"
// @Success      200  {object}  map[string]interface{}
// @Success      204  "no pending command"
// @Failure      400  {object}  map[string]string
// @Router       /api/v1/command/{station_id} [get]
func (h *Handler) pollCommand(c *gin.Context) {
	stationID, err := strconv.Atoi(c.Param("station_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "station_id must be an integer"})
		return
	}
	command, ok := h.services.Mailbox.Dequeue(stationID)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	if h.log != nil {
		h.log.Infow("command_delivered", "station_id", stationID, "command", command)
	}
	c.JSON(http.StatusOK, gin.H{
		"station_id": stationID,
		"command":    command,
	})
}
