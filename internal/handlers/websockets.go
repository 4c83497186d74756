package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	// Monitoring emits two samples per second.
	tickPeriod = 500 * time.Millisecond
)

// Envelope used for WebSocket data frames.
type wsEnvelope struct {
	Type       string      `json:"type"`
	SensorData interface{} `json:"sensor_data,omitempty"`
	Prediction interface{} `json:"prediction,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Control frame sent by the client.
type wsControl struct {
	Command     string `json:"command"` // start | stop | set_fault | configure_alerts
	FaultType   *int   `json:"fault_type,omitempty"`
	Destination string `json:"destination,omitempty"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origins for production
}

// wsClient serializes writes to one connection. Registered in the hub so
// gateway batches reach this observer between session ticks.
type wsClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsClient) Deliver(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsClient) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (h *Handler) wsConnect(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	client := &wsClient{conn: conn}
	defer func() { _ = conn.Close() }()

	if h.hub != nil {
		h.hub.Register(client)
		defer h.hub.Unregister(client)
	}

	// Configure read limits and pong handler to extend read deadline.
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine parses control frames and detects disconnects. stop is
	// closed when this loop returns so a full control buffer cannot wedge the
	// reader mid-send.
	controls := make(chan wsControl, 8)
	done := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go h.startReader(conn, controls, done, stop)

	sess := &service.Session{
		Mode:      h.services.Sources.Mode(),
		FaultType: h.services.Sources.FaultType(),
	}

	ticker := time.NewTicker(tickPeriod)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case ctrl := <-controls:
			h.applyControl(c, sess, ctrl)
		case <-ping.C:
			if err := client.ping(); err != nil {
				if h.log != nil {
					h.log.Infow("ws_ping_failed", "err", err)
				}
				return
			}
		case <-ticker.C:
			if !sess.Monitoring {
				continue
			}
			if err := h.sendSample(c, client, sess); err != nil {
				if h.log != nil {
					h.log.Infow("ws_write_failed", "err", err)
				}
				return
			}
		}
	}
}

// applyControl mutates the per-connection session from one control frame.
func (h *Handler) applyControl(c *gin.Context, sess *service.Session, ctrl wsControl) {
	switch ctrl.Command {
	case "start":
		sess.Monitoring = true
	case "stop":
		sess.Monitoring = false
	case "set_fault":
		if ctrl.FaultType == nil {
			return
		}
		if err := h.services.Sources.SetFaultType(*ctrl.FaultType); err != nil {
			if h.log != nil {
				h.log.Warnw("ws_set_fault_rejected", "fault_type", *ctrl.FaultType, "err", err)
			}
			return
		}
		// A new fault profile is a new episode; drop the cooldown memory.
		if *ctrl.FaultType != sess.FaultType {
			h.services.Alerts.ResetCooldown()
		}
		sess.FaultType = *ctrl.FaultType
	case "configure_alerts":
		enabled := true
		if ctrl.Enabled != nil {
			enabled = *ctrl.Enabled
		}
		if _, err := h.services.Alerts.Configure(c.Request.Context(), ctrl.Destination, enabled); err != nil && h.log != nil {
			h.log.Errorw("ws_configure_alerts_failed", "err", err)
		}
	default:
		if h.log != nil {
			h.log.Debugw("ws_unknown_command", "command", ctrl.Command)
		}
	}
}

// sendSample runs one pipeline tick and writes the result to this observer.
func (h *Handler) sendSample(c *gin.Context, client *wsClient, sess *service.Session) error {
	// Transport and alert config can change via REST mid-session.
	sess.Mode = h.services.Sources.Mode()
	sess.AlertDestination, sess.AlertsEnabled = h.services.Alerts.Snapshot()
	if sess.Mode == service.ModeSimulator {
		sess.FaultType = h.services.Sources.FaultType()
	}

	reading, verdict, err := h.services.Pipeline.Tick(c.Request.Context(), sess)
	if err != nil {
		// A missing model is reported once; the session keeps its connection.
		sess.Monitoring = false
		return client.Deliver(wsEnvelope{Type: "error", Error: err.Error()})
	}
	return client.Deliver(wsEnvelope{
		Type:       "data",
		SensorData: reading,
		Prediction: verdict,
	})
}

// startReader drains incoming frames, forwarding parsed control messages.
func (h *Handler) startReader(conn *websocket.Conn, controls chan<- wsControl, done chan<- struct{}, stop <-chan struct{}) {
	defer close(done)
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if h.log != nil {
				h.log.Infow("ws_read_closed", "err", err)
			}
			return
		}
		var ctrl wsControl
		if err := json.Unmarshal(raw, &ctrl); err != nil {
			if h.log != nil {
				h.log.Debugw("ws_bad_control_frame", "err", err)
			}
			continue
		}
		if !forwardControl(controls, ctrl, stop) {
			return
		}
	}
}

// forwardControl hands one parsed frame to the session loop. It reports false
// once the loop has exited, so the reader never blocks on a dead receiver.
func forwardControl(controls chan<- wsControl, ctrl wsControl, stop <-chan struct{}) bool {
	select {
	case controls <- ctrl:
		return true
	case <-stop:
		return false
	}
}
