package service

import (
	"context"
	"errors"
	"time"

	"solarwatch/internal/forest"
	"solarwatch/internal/logger"
	"solarwatch/internal/models"
	"solarwatch/internal/notifier"
	"solarwatch/internal/repository"
)

// Transport modes for reading sources.
const (
	ModeSimulator = "simulator"
	ModeSerial    = "serial"
	ModeGateway   = "gateway"
)

// Caller-visible errors. Everything else degrades locally.
var (
	ErrModelUnavailable    = errors.New("classifier model not loaded")
	ErrDispatchInProgress  = errors.New("alert transmission already in progress")
	ErrAlertsNotConfigured = errors.New("alert destination not configured")
	ErrInvalidFaultType    = errors.New("fault type out of range")
	ErrInvalidMode         = errors.New("unknown connection mode")
)

// Session is the per-observer context threaded through the pipeline. It is
// owned by a single connection goroutine; the process-wide pieces (suppressor,
// dispatcher) are reached only through injected handles.
type Session struct {
	Mode             string
	Monitoring       bool
	FaultType        int
	AlertsEnabled    bool
	AlertDestination string
}

// ConnectParams selects the active reading transport.
type ConnectParams struct {
	Mode string
	Port string // serial only
	Baud int    // serial only, defaults to 115200
}

// ConnectResult reports the transport that became active.
type ConnectResult struct {
	Mode string `json:"mode"`
	Port string `json:"port,omitempty"`
}

// AlertStatus is the observable state of the alert channel.
type AlertStatus struct {
	Enabled           bool       `json:"enabled"`
	Configured        bool       `json:"configured"`
	Destination       string     `json:"destination,omitempty"` // masked
	LastNotifiedFault string     `json:"last_notified_fault,omitempty"`
	LastNotifiedAt    *time.Time `json:"last_notified_at,omitempty"`
	Busy              bool       `json:"busy"`
}

// LogFilter narrows the alert dispatch log.
type LogFilter struct {
	From      time.Time // inclusive; zero means no lower bound
	To        time.Time // inclusive; zero means no upper bound
	FaultType string
}

// Sources normalizes readings from whichever transport is active.
type Sources interface {
	Next(mode string, faultType int) models.Reading
	Connect(p ConnectParams) (ConnectResult, error)
	Disconnect() error
	Mode() string
	FaultType() int
	SetFaultType(faultType int) error
	SerialPorts() ([]string, error)
}

// Classifier is the gateway to the offline-trained model.
type Classifier interface {
	Classify(r models.Reading) (models.Verdict, error)
	Loaded() bool
}

// Pipeline drives classify→suppress→dispatch→broadcast for one reading.
type Pipeline interface {
	Tick(ctx context.Context, sess *Session) (models.Reading, models.Verdict, error)
	ProcessBatch(ctx context.Context, recs []models.GatewayRecord) (int, error)
}

// Mailbox is the per-station, single-slot command outbox.
type Mailbox interface {
	Enqueue(stationID int, command string)
	Dequeue(stationID int) (string, bool)
}

// Alerts owns the alert-channel configuration and the suppression memory.
type Alerts interface {
	LoadPersisted(ctx context.Context) error
	Configure(ctx context.Context, destination string, enabled bool) (string, error)
	Snapshot() (destination string, enabled bool)
	Status() AlertStatus
	SendTest() error
	ResetCooldown()
}

// AlertLog exposes the persisted dispatch-attempt history.
type AlertLog interface {
	List(ctx context.Context, f LogFilter) ([]models.AlertEvent, error)
}

// Broadcaster fans a message out to all live observers.
type Broadcaster interface {
	Broadcast(msg any)
}

// Service aggregates all sub-services.
type Service struct {
	Sources
	Classifier
	Pipeline
	Mailbox
	Alerts
	AlertLog
}

// Deps carries everything NewService needs to wire the pipeline.
type Deps struct {
	Repos    *repository.Repository
	Bus      Broadcaster
	Notifier notifier.Notifier
	Model    *forest.Model // nil when the offline model is absent
	Cooldown time.Duration
	SimSeed  int64
	Log      *logger.Logger
}

// NewService wires the component graph: sources and classifier feed the
// pipeline; suppressor and dispatcher are shared process-wide handles.
func NewService(d Deps) *Service {
	if d.Cooldown <= 0 {
		d.Cooldown = defaultCooldown
	}

	var alertRepo repository.AlertRepo
	var cfgRepo repository.ConfigRepo
	if d.Repos != nil {
		alertRepo = d.Repos.Alerts
		cfgRepo = d.Repos.Config
	}

	sim := NewSimulator(d.SimSeed)
	sources := NewSourceService(sim, d.Log)
	classifier := NewClassifierService(d.Model)
	supp := NewSuppressor(d.Cooldown)
	disp := NewDispatcher(d.Notifier, alertRepo, d.Log)
	alerts := NewAlertService(supp, disp, cfgRepo, d.Log)

	return &Service{
		Sources:    sources,
		Classifier: classifier,
		Pipeline:   NewPipelineService(sources, classifier, supp, disp, alerts, d.Bus, d.Log),
		Mailbox:    NewMailboxService(),
		Alerts:     alerts,
		AlertLog:   NewAlertLogService(alertRepo),
	}
}
