package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"solarwatch/internal/models"
	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusConnected = "connected"
	statusQueued    = "queued"

	errClassify       = "classification failed"
	errModelMissing   = "classifier model not loaded"
	errListPorts      = "failed to list serial ports"
	errInvalidBodyPre = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for classifying one caller-supplied sample.
type predictRequest struct {
	Voltage     float64  `json:"voltage"`
	Current     float64  `json:"current"`
	Temperature float64  `json:"temperature"`
	Illuminance float64  `json:"light_intensity"`
	Efficiency  *float64 `json:"efficiency,omitempty"` // derived when absent
}

// PredictRequest is an exported model for Swagger docs of the predict payload.
type PredictRequest struct {
	// Panel voltage in volts
	Voltage float64 `json:"voltage" example:"18.5"`
	// Panel current in amperes
	Current float64 `json:"current" example:"5.1"`
	// Panel temperature in Celsius
	Temperature float64 `json:"temperature" example:"34.2"`
	// Illuminance in lux
	Illuminance float64 `json:"light_intensity" example:"950"`
	// Efficiency percentage; derived from the other channels when omitted
	Efficiency *float64 `json:"efficiency,omitempty" example:"17.3"`
}

// Request DTO for selecting the simulated fault profile.
type simulationModeRequest struct {
	FaultType int `json:"fault_type"`
}

// Request DTO for switching the reading transport.
type connectRequest struct {
	Mode string `json:"mode" binding:"required"` // simulator | serial | gateway
	Port string `json:"port,omitempty"`          // required when mode=serial
	Baud int    `json:"baud,omitempty"`          // serial only, defaults to 115200
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

// @Summary      System status
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "model_loaded, mode, fault_type, alerts, subscribers"
// @Router       /api/v1/status [get]
func (h *Handler) status(c *gin.Context) {
	resp := gin.H{
		"status":          statusOK,
		"model_loaded":    h.services.Classifier.Loaded(),
		"mode":            h.services.Sources.Mode(),
		"fault_type":      h.services.Sources.FaultType(),
		"fault_type_name": models.FaultName(h.services.Sources.FaultType()),
		"alerts":          h.services.Alerts.Status(),
	}
	if h.hub != nil {
		resp["subscribers"] = h.hub.Count()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Classify one sample
// @Description  Efficiency is derived from the electrical channels when omitted
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        body  body   PredictRequest  true  "Sensor sample"
// @Success      200   {object}  models.Verdict
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/predict [post]
func (h *Handler) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPre + err.Error()})
		return
	}
	reading, err := models.NewReading(req.Voltage, req.Current, req.Temperature, req.Illuminance, req.Efficiency)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	verdict, err := h.services.Classifier.Classify(reading)
	if err != nil {
		if errors.Is(err, service.ErrModelUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": errModelMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errClassify, "predict_failed", err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

// @Summary      Generate and classify one simulated sample
// @Tags         monitor
// @Produce      json
// @Param        fault_type  query  int  false  "Fault profile ordinal (0..4); defaults to the active profile"
// @Success      200  {object}  map[string]interface{}  "sensor_data, prediction"
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/simulate [get]
func (h *Handler) simulate(c *gin.Context) {
	faultType := h.services.Sources.FaultType()
	if qs := c.Query("fault_type"); qs != "" {
		v, err := strconv.Atoi(qs)
		if err != nil || !models.ValidFaultType(v) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fault_type must be an integer in [0, 4]"})
			return
		}
		faultType = v
	}

	reading := h.services.Sources.Next(service.ModeSimulator, faultType)
	verdict, err := h.services.Classifier.Classify(reading)
	if err != nil {
		if errors.Is(err, service.ErrModelUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": errModelMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errClassify, "simulate_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sensor_data": reading,
		"prediction":  verdict,
	})
}

// @Summary      Select the simulated fault profile
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        body  body   simulationModeRequest  true  "Fault ordinal"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/simulation-mode [post]
func (h *Handler) setSimulationMode(c *gin.Context) {
	var req simulationModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPre + err.Error()})
		return
	}
	if err := h.services.Sources.SetFaultType(req.FaultType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// A profile change starts a fresh fault episode.
	h.services.Alerts.ResetCooldown()
	c.JSON(http.StatusOK, gin.H{
		"status":          statusOK,
		"fault_type":      req.FaultType,
		"fault_type_name": models.FaultName(req.FaultType),
	})
}

// @Summary      List fault types
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/fault-types [get]
func (h *Handler) faultTypes(c *gin.Context) {
	types := make([]gin.H, 0, models.FaultTypeCount)
	for i := 0; i < models.FaultTypeCount; i++ {
		types = append(types, gin.H{
			"fault_type": i,
			"name":       models.FaultName(i),
		})
	}
	c.JSON(http.StatusOK, gin.H{"fault_types": types})
}

// @Summary      List operator recommendations per fault
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  map[string]models.Recommendation
// @Router       /api/v1/recommendations [get]
func (h *Handler) recommendations(c *gin.Context) {
	c.JSON(http.StatusOK, models.FaultRecommendations)
}

// @Summary      Switch the reading transport
// @Description  serial requires port; simulator and gateway take no extra fields
// @Tags         monitor
// @Accept       json
// @Produce      json
// @Param        body  body   connectRequest  true  "Transport selection"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/connect [post]
func (h *Handler) connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPre + err.Error()})
		return
	}
	res, err := h.services.Sources.Connect(service.ConnectParams{
		Mode: req.Mode,
		Port: req.Port,
		Baud: req.Baud,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("connect_failed", "err", err, "mode", req.Mode, "port", req.Port)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusConnected,
		"mode":   res.Mode,
		"port":   res.Port,
	})
}

// @Summary      Fall back to the simulator transport
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/disconnect [post]
func (h *Handler) disconnect(c *gin.Context) {
	if err := h.services.Sources.Disconnect(); err != nil && h.log != nil {
		h.log.Warnw("disconnect_close_failed", "err", err)
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
		"mode":   h.services.Sources.Mode(),
	})
}

// @Summary      List serial ports
// @Tags         monitor
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/serial-ports [get]
func (h *Handler) serialPorts(c *gin.Context) {
	ports, err := h.services.Sources.SerialPorts()
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListPorts, "serial_ports_failed", err)
		return
	}
	if ports == nil {
		ports = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}
