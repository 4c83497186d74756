package handlers

import (
	"context"
	"sync"
	"time"

	"solarwatch/internal/models"
	"solarwatch/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockSources struct {
	mu         sync.Mutex
	reading    models.Reading
	mode       string
	faultType  int
	ports      []string
	portsErr   error
	connectErr error

	lastConnect  service.ConnectParams
	nextCalls    int
	disconnects  int
	setFaultErrs bool
}

func (m *mockSources) Next(mode string, faultType int) models.Reading {
	m.mu.Lock()
	m.nextCalls++
	m.mu.Unlock()
	return m.reading
}

func (m *mockSources) Connect(p service.ConnectParams) (service.ConnectResult, error) {
	m.lastConnect = p
	if m.connectErr != nil {
		return service.ConnectResult{}, m.connectErr
	}
	m.mode = p.Mode
	return service.ConnectResult{Mode: p.Mode, Port: p.Port}, nil
}

func (m *mockSources) Disconnect() error {
	m.disconnects++
	m.mode = service.ModeSimulator
	return nil
}

func (m *mockSources) Mode() string {
	if m.mode == "" {
		return service.ModeSimulator
	}
	return m.mode
}

func (m *mockSources) FaultType() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faultType
}

func (m *mockSources) SetFaultType(faultType int) error {
	if m.setFaultErrs || !models.ValidFaultType(faultType) {
		return service.ErrInvalidFaultType
	}
	m.mu.Lock()
	m.faultType = faultType
	m.mu.Unlock()
	return nil
}

func (m *mockSources) SerialPorts() ([]string, error) { return m.ports, m.portsErr }

type mockClassifier struct {
	verdict models.Verdict
	err     error
	loaded  bool

	lastReading models.Reading
}

func (m *mockClassifier) Classify(r models.Reading) (models.Verdict, error) {
	m.lastReading = r
	if m.err != nil {
		return models.Verdict{}, m.err
	}
	return m.verdict, nil
}

func (m *mockClassifier) Loaded() bool { return m.loaded }

type mockPipeline struct {
	mu        sync.Mutex
	reading   models.Reading
	verdict   models.Verdict
	tickErr   error
	processed int
	batchErr  error

	tickCalls int
	lastBatch []models.GatewayRecord
}

func (m *mockPipeline) Tick(ctx context.Context, sess *service.Session) (models.Reading, models.Verdict, error) {
	m.mu.Lock()
	m.tickCalls++
	m.mu.Unlock()
	if m.tickErr != nil {
		return models.Reading{}, models.Verdict{}, m.tickErr
	}
	return m.reading, m.verdict, nil
}

func (m *mockPipeline) tickCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickCalls
}

func (m *mockPipeline) ProcessBatch(ctx context.Context, recs []models.GatewayRecord) (int, error) {
	m.lastBatch = recs
	return m.processed, m.batchErr
}

type mockMailbox struct {
	pending map[int]string
}

func (m *mockMailbox) Enqueue(stationID int, command string) {
	if m.pending == nil {
		m.pending = map[int]string{}
	}
	m.pending[stationID] = command
}

func (m *mockMailbox) Dequeue(stationID int) (string, bool) {
	cmd, ok := m.pending[stationID]
	if ok {
		delete(m.pending, stationID)
	}
	return cmd, ok
}

type mockAlerts struct {
	mu           sync.Mutex
	status       service.AlertStatus
	configureErr error
	testErr      error
	destination  string
	enabled      bool

	lastDestination string
	lastEnabled     bool
	resets          int
	testCalls       int
}

func (m *mockAlerts) LoadPersisted(ctx context.Context) error { return nil }

func (m *mockAlerts) Configure(ctx context.Context, destination string, enabled bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDestination = destination
	m.lastEnabled = enabled
	if m.configureErr != nil {
		return "", m.configureErr
	}
	m.destination = destination
	m.enabled = enabled
	return destination, nil
}

func (m *mockAlerts) Snapshot() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destination, m.enabled
}

func (m *mockAlerts) Status() service.AlertStatus { return m.status }

func (m *mockAlerts) SendTest() error {
	m.testCalls++
	return m.testErr
}

func (m *mockAlerts) ResetCooldown() {
	m.mu.Lock()
	m.resets++
	m.mu.Unlock()
}

func (m *mockAlerts) resetCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

func (m *mockAlerts) lastConfigure() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDestination, m.lastEnabled
}

type mockAlertLog struct {
	resp       []models.AlertEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockAlertLog) List(ctx context.Context, f service.LogFilter) ([]models.AlertEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func sampleReading() models.Reading {
	r, _ := models.NewReading(18.5, 5.1, 34.2, 950, nil)
	return r
}

func sampleFaultVerdict() models.Verdict {
	return models.Verdict{
		FaultType:      "Partial_Shading",
		FaultIndex:     models.FaultPartialShading,
		Confidence:     92.5,
		IsFault:        true,
		Power:          94.35,
		Efficiency:     8.4,
		Timestamp:      time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		Recommendation: models.RecommendationFor("Partial_Shading").Action,
	}
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
