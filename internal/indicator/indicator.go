// Package indicator drives the three-lamp (green/yellow/red) spot indicator.
package indicator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"parking_spot/internal/logger"
	"parking_spot/internal/spot"

	"github.com/goburrow/modbus"
)

// lampCount is the number of consecutive coils driven, green first.
const lampCount = 3

// CoilWriter is the subset of modbus.Client the indicator needs.
type CoilWriter interface {
	WriteMultipleCoils(address, quantity uint16, value []byte) (results []byte, err error)
}

// ModbusConfig addresses the lamp coils on a Modbus TCP slave.
type ModbusConfig struct {
	Endpoint  string
	SlaveID   uint8
	Timeout   time.Duration
	FirstCoil uint16
}

// Modbus writes green, yellow and red as coils FirstCoil..FirstCoil+2 in a
// single request so the lamps never show two colours at once.
type Modbus struct {
	mu        sync.Mutex
	handler   *modbus.TCPClientHandler
	client    CoilWriter
	firstCoil uint16
}

// NewModbus connects to the coil slave.
func NewModbus(cfg ModbusConfig) (*Modbus, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("indicator modbus: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.SlaveID
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("indicator modbus: connect %s: %w", cfg.Endpoint, err)
	}
	m := newModbus(modbus.NewClient(h), cfg.FirstCoil)
	m.handler = h
	return m, nil
}

func newModbus(client CoilWriter, firstCoil uint16) *Modbus {
	return &Modbus{client: client, firstCoil: firstCoil}
}

// Set drives exactly one lamp for level, or none for IndicatorOff.
func (m *Modbus) Set(ctx context.Context, level spot.IndicatorLevel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.client.WriteMultipleCoils(m.firstCoil, lampCount, []byte{coilBits(level)}); err != nil {
		return fmt.Errorf("write coils %d..%d: %w", m.firstCoil, m.firstCoil+lampCount-1, err)
	}
	return nil
}

// Close releases the TCP connection.
func (m *Modbus) Close() error {
	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}

// coilBits packs the lamp outputs LSB first, as Modbus expects.
func coilBits(level spot.IndicatorLevel) byte {
	green, yellow, red := level.Outputs()
	var b byte
	if green {
		b |= 1 << 0
	}
	if yellow {
		b |= 1 << 1
	}
	if red {
		b |= 1 << 2
	}
	return b
}

// Log reports indicator changes to the log instead of hardware.
type Log struct {
	mu      sync.Mutex
	log     *logger.Logger
	current spot.IndicatorLevel
	set     bool
}

// NewLog returns a log-only indicator.
func NewLog(log *logger.Logger) *Log {
	if log == nil {
		log = logger.Nop()
	}
	return &Log{log: log}
}

// Set logs only when the level differs from the last one.
func (l *Log) Set(_ context.Context, level spot.IndicatorLevel) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set && l.current == level {
		return nil
	}
	l.log.Infow("indicator_changed", "from", l.current.String(), "to", level.String())
	l.current = level
	l.set = true
	return nil
}

// Level returns the last level set.
func (l *Log) Level() spot.IndicatorLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
