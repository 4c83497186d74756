package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"solarwatch/internal/hub"
	"solarwatch/internal/models"
	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type wsTestEnv struct {
	srv  *httptest.Server
	conn *websocket.Conn
	hub  *hub.Hub
}

func dialWS(t *testing.T, s *service.Service) *wsTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := hub.New(nil)
	h := NewHandler(s, b, nil)
	r := gin.New()
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return &wsTestEnv{srv: srv, conn: conn, hub: b}
}

type testEnvelope struct {
	Type       string          `json:"type"`
	SensorData json.RawMessage `json:"sensor_data"`
	Prediction json.RawMessage `json:"prediction"`
	Error      string          `json:"error"`
}

func wsWaitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestWebSocket_StartStreamsSamples(t *testing.T) {
	pipe := &mockPipeline{reading: sampleReading(), verdict: sampleFaultVerdict()}
	s := &service.Service{
		Sources:  &mockSources{},
		Alerts:   &mockAlerts{},
		Pipeline: pipe,
	}
	env := dialWS(t, s)

	if err := env.conn.WriteJSON(map[string]any{"command": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}

	// Two consecutive samples at the 2 Hz cadence.
	for i := 0; i < 2; i++ {
		_ = env.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var out testEnvelope
		if err := env.conn.ReadJSON(&out); err != nil {
			t.Fatalf("read sample %d: %v", i, err)
		}
		if out.Type != "data" || len(out.SensorData) == 0 || len(out.Prediction) == 0 {
			t.Fatalf("bad envelope: %+v", out)
		}
		var v models.Verdict
		if err := json.Unmarshal(out.Prediction, &v); err != nil {
			t.Fatalf("unmarshal prediction: %v", err)
		}
		if v.FaultType != "Partial_Shading" {
			t.Fatalf("unexpected prediction: %+v", v)
		}
	}
	if got := pipe.tickCount(); got < 2 {
		t.Fatalf("expected at least 2 ticks, got %d", got)
	}
}

func TestWebSocket_SilentUntilStarted(t *testing.T) {
	pipe := &mockPipeline{reading: sampleReading(), verdict: sampleFaultVerdict()}
	s := &service.Service{
		Sources:  &mockSources{},
		Alerts:   &mockAlerts{},
		Pipeline: pipe,
	}
	dialWS(t, s)

	// More than two tick periods pass without a start command: no data frames.
	time.Sleep(3 * tickPeriod / 2)
	if got := pipe.tickCount(); got != 0 {
		t.Fatalf("pipeline must not run before start, got %d ticks", got)
	}
}

func TestWebSocket_SetFaultResetsCooldown(t *testing.T) {
	src := &mockSources{}
	al := &mockAlerts{}
	s := &service.Service{
		Sources:  src,
		Alerts:   al,
		Pipeline: &mockPipeline{reading: sampleReading(), verdict: sampleFaultVerdict()},
	}
	env := dialWS(t, s)

	if err := env.conn.WriteJSON(map[string]any{"command": "set_fault", "fault_type": models.FaultDustAccumulation}); err != nil {
		t.Fatalf("write set_fault: %v", err)
	}
	wsWaitFor(t, func() bool { return src.FaultType() == models.FaultDustAccumulation })
	wsWaitFor(t, func() bool { return al.resetCount() == 1 })

	// An out-of-range ordinal is rejected without touching the cooldown.
	if err := env.conn.WriteJSON(map[string]any{"command": "set_fault", "fault_type": 9}); err != nil {
		t.Fatalf("write bad set_fault: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if src.FaultType() != models.FaultDustAccumulation || al.resetCount() != 1 {
		t.Fatalf("rejected frame changed state: fault=%d resets=%d", src.FaultType(), al.resetCount())
	}
}

func TestWebSocket_ConfigureAlerts(t *testing.T) {
	al := &mockAlerts{}
	s := &service.Service{
		Sources:  &mockSources{},
		Alerts:   al,
		Pipeline: &mockPipeline{},
	}
	env := dialWS(t, s)

	if err := env.conn.WriteJSON(map[string]any{
		"command":     "configure_alerts",
		"destination": "+15551234567",
		"enabled":     true,
	}); err != nil {
		t.Fatalf("write configure_alerts: %v", err)
	}
	wsWaitFor(t, func() bool {
		dest, enabled := al.lastConfigure()
		return dest == "+15551234567" && enabled
	})
}

func TestWebSocket_TickErrorReportsAndPauses(t *testing.T) {
	pipe := &mockPipeline{tickErr: service.ErrModelUnavailable}
	s := &service.Service{
		Sources:  &mockSources{},
		Alerts:   &mockAlerts{},
		Pipeline: pipe,
	}
	env := dialWS(t, s)

	if err := env.conn.WriteJSON(map[string]any{"command": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}

	_ = env.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out testEnvelope
	if err := env.conn.ReadJSON(&out); err != nil {
		t.Fatalf("read error frame: %v", err)
	}
	if out.Type != "error" || out.Error == "" {
		t.Fatalf("expected error envelope, got %+v", out)
	}

	// Monitoring pauses after the report: the failing tick runs exactly once.
	calls := pipe.tickCount()
	time.Sleep(3 * tickPeriod / 2)
	if got := pipe.tickCount(); got != calls {
		t.Fatalf("pipeline kept ticking after error: %d -> %d", calls, got)
	}
}

func TestWebSocket_HubRegistration(t *testing.T) {
	s := &service.Service{
		Sources:  &mockSources{},
		Alerts:   &mockAlerts{},
		Pipeline: &mockPipeline{},
	}
	env := dialWS(t, s)

	wsWaitFor(t, func() bool { return env.hub.Count() == 1 })

	// A gateway broadcast reaches the live observer between session ticks.
	env.hub.Broadcast(service.GatewayMessage{Type: "gateway_data", SenderID: 7})
	_ = env.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out struct {
		Type     string `json:"type"`
		SenderID int    `json:"sender_id"`
	}
	if err := env.conn.ReadJSON(&out); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if out.Type != "gateway_data" || out.SenderID != 7 {
		t.Fatalf("unexpected broadcast: %+v", out)
	}

	_ = env.conn.Close()
	wsWaitFor(t, func() bool { return env.hub.Count() == 0 })
}

func TestForwardControl(t *testing.T) {
	t.Parallel()

	t.Run("delivers while the loop is live", func(t *testing.T) {
		t.Parallel()
		controls := make(chan wsControl, 1)
		stop := make(chan struct{})
		if !forwardControl(controls, wsControl{Command: "start"}, stop) {
			t.Fatal("forward rejected with a live receiver")
		}
		if got := <-controls; got.Command != "start" {
			t.Fatalf("unexpected frame: %+v", got)
		}
	})

	// The session loop may exit with the buffer full; the pending send must
	// give up instead of wedging the reader goroutine forever.
	t.Run("gives up once the loop exits", func(t *testing.T) {
		t.Parallel()
		controls := make(chan wsControl, 1)
		controls <- wsControl{Command: "start"} // buffer full, nobody draining
		stop := make(chan struct{})
		close(stop)

		res := make(chan bool, 1)
		go func() { res <- forwardControl(controls, wsControl{Command: "stop"}, stop) }()
		select {
		case ok := <-res:
			if ok {
				t.Fatal("forward claimed delivery after loop exit")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("forward blocked on a dead receiver")
		}
	})
}
