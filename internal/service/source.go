package service

import (
	"sync"

	"solarwatch/internal/logger"
	"solarwatch/internal/models"
)

// SourceService is the reading source adapter: it normalizes data from the
// simulator, an attached serial station, or gateway push into canonical
// readings, and tracks the active transport plus the simulated fault profile.
type SourceService struct {
	mu        sync.Mutex
	mode      string
	faultType int
	link      serialLink

	sim *Simulator
	log *logger.Logger

	// injection points for tests
	openLink  func(port string, baud int) (serialLink, error)
	listPorts func() ([]string, error)
}

func NewSourceService(sim *Simulator, log *logger.Logger) *SourceService {
	return &SourceService{
		mode:      ModeSimulator,
		sim:       sim,
		log:       log,
		openLink:  openSerialLink,
		listPorts: listSerialPorts,
	}
}

// Next produces one reading for the given transport mode. Serial read or
// parse failures fail open: the pipeline receives a simulated Normal reading
// instead of an error, keeping the loop alive.
func (s *SourceService) Next(mode string, faultType int) models.Reading {
	if mode == ModeSerial {
		s.mu.Lock()
		link := s.link
		s.mu.Unlock()

		if link != nil {
			r, err := s.readSerial(link)
			if err == nil {
				return r
			}
			if s.log != nil {
				s.log.Debugw("serial_read_failed_open", "err", err)
			}
			return s.sim.Generate(models.FaultNormal)
		}
	}
	return s.sim.Generate(faultType)
}

func (s *SourceService) readSerial(link serialLink) (models.Reading, error) {
	line, err := link.Exchange(serialRequest)
	if err != nil {
		return models.Reading{}, err
	}
	return parseSerialFrame(line)
}

// Connect switches the active transport. Serial mode opens the named port,
// replacing any previous connection.
func (s *SourceService) Connect(p ConnectParams) (ConnectResult, error) {
	switch p.Mode {
	case ModeSimulator, ModeGateway:
		s.mu.Lock()
		s.closeLinkLocked()
		s.mode = p.Mode
		s.mu.Unlock()
		return ConnectResult{Mode: p.Mode}, nil

	case ModeSerial:
		if p.Port == "" {
			return ConnectResult{}, ErrInvalidMode
		}
		link, err := s.openLink(p.Port, p.Baud)
		if err != nil {
			return ConnectResult{}, err
		}
		s.mu.Lock()
		s.closeLinkLocked()
		s.link = link
		s.mode = ModeSerial
		s.mu.Unlock()
		return ConnectResult{Mode: ModeSerial, Port: p.Port}, nil

	default:
		return ConnectResult{}, ErrInvalidMode
	}
}

// Disconnect closes any serial link and falls back to the simulator.
func (s *SourceService) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLinkLocked()
	s.mode = ModeSimulator
	return nil
}

func (s *SourceService) closeLinkLocked() {
	if s.link != nil {
		if err := s.link.Close(); err != nil && s.log != nil {
			s.log.Debugw("serial_close_failed", "err", err)
		}
		s.link = nil
	}
}

// Mode returns the active transport.
func (s *SourceService) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// FaultType returns the active simulated fault profile.
func (s *SourceService) FaultType() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faultType
}

// SetFaultType selects the simulated fault profile for new readings.
func (s *SourceService) SetFaultType(faultType int) error {
	if !models.ValidFaultType(faultType) {
		return ErrInvalidFaultType
	}
	s.mu.Lock()
	s.faultType = faultType
	s.mu.Unlock()
	return nil
}

// SerialPorts lists attachable serial devices.
func (s *SourceService) SerialPorts() ([]string, error) {
	return s.listPorts()
}
