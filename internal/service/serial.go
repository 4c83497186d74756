package service

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"solarwatch/internal/models"

	"go.bug.st/serial"
)

// Station wire protocol: one request line, one CSV response line.
const (
	serialRequest     = "GET_DATA"
	serialFramePrefix = "DATA:"
	serialReadTimeout = 1 * time.Second
	defaultBaudRate   = 115200
)

var errSerialTimeout = errors.New("serial read timed out")

// serialLink is one request/response exchange with an attached station.
// Stubbed in tests; backed by a real port in production.
type serialLink interface {
	Exchange(request string) (string, error)
	Close() error
}

type serialPortLink struct {
	port serial.Port
}

// openSerialLink opens the named port at the given baud rate.
func openSerialLink(portName string, baud int) (serialLink, error) {
	if baud <= 0 {
		baud = defaultBaudRate
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %q: %w", portName, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %q: %w", portName, err)
	}
	return &serialPortLink{port: port}, nil
}

// Exchange writes the request line and collects one newline-terminated
// response within the read timeout.
func (l *serialPortLink) Exchange(request string) (string, error) {
	if _, err := l.port.Write([]byte(request + "\n")); err != nil {
		return "", err
	}

	deadline := time.Now().Add(serialReadTimeout)
	buf := make([]byte, 0, 128)
	chunk := make([]byte, 128)
	for time.Now().Before(deadline) {
		n, err := l.port.Read(chunk)
		if err != nil {
			return "", err
		}
		if n == 0 {
			// A zero-length read signals the port-level timeout.
			break
		}
		buf = append(buf, chunk[:n]...)
		if i := bytes.IndexByte(buf, '\n'); i >= 0 {
			return strings.TrimSpace(string(buf[:i])), nil
		}
	}
	return "", errSerialTimeout
}

func (l *serialPortLink) Close() error {
	return l.port.Close()
}

// listSerialPorts enumerates device names for the discovery endpoint.
func listSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// parseSerialFrame decodes "DATA:voltage,current,temperature,light[,efficiency]".
// Efficiency is derived when the station omits the fifth field.
func parseSerialFrame(line string) (models.Reading, error) {
	if !strings.HasPrefix(line, serialFramePrefix) {
		return models.Reading{}, fmt.Errorf("unexpected serial frame %q", line)
	}
	parts := strings.Split(strings.TrimPrefix(line, serialFramePrefix), ",")
	if len(parts) < 4 {
		return models.Reading{}, fmt.Errorf("serial frame has %d fields, want at least 4", len(parts))
	}

	vals := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.Reading{}, fmt.Errorf("serial frame field %q: %w", p, err)
		}
		vals = append(vals, v)
	}

	var eff *float64
	if len(vals) > 4 {
		eff = &vals[4]
	}
	return models.NewReading(vals[0], vals[1], vals[2], vals[3], eff)
}
