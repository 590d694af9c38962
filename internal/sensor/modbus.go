// Package sensor provides spot.SensorSource implementations: a Modbus TCP
// source for field hardware and a simulator for bench runs.
package sensor

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// RegisterReader is the subset of modbus.Client the source needs.
type RegisterReader interface {
	ReadHoldingRegisters(address, quantity uint16) (results []byte, err error)
}

// ModbusConfig addresses the slave that exposes the ranging and sound
// readings as holding registers. Distance is in whole centimetres with 0
// meaning no echo; noise is the raw ADC count.
type ModbusConfig struct {
	Endpoint         string
	SlaveID          uint8
	Timeout          time.Duration
	DistanceRegister uint16
	NoiseRegister    uint16
}

// ModbusSource reads one register per measurement.
type ModbusSource struct {
	mu       sync.Mutex
	handler  *modbus.TCPClientHandler
	client   RegisterReader
	distReg  uint16
	noiseReg uint16
}

// NewModbusSource connects to the slave.
func NewModbusSource(cfg ModbusConfig) (*ModbusSource, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("sensor modbus: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.SlaveID
	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("sensor modbus: connect %s: %w", cfg.Endpoint, err)
	}
	s := newModbusSource(modbus.NewClient(h), cfg.DistanceRegister, cfg.NoiseRegister)
	s.handler = h
	return s, nil
}

func newModbusSource(client RegisterReader, distReg, noiseReg uint16) *ModbusSource {
	return &ModbusSource{client: client, distReg: distReg, noiseReg: noiseReg}
}

// ReadDistanceCm returns the ranging register; 0 means no echo.
func (s *ModbusSource) ReadDistanceCm(ctx context.Context) (int, error) {
	return s.readRegister(ctx, s.distReg)
}

// ReadNoiseLevel returns the sound-level register.
func (s *ModbusSource) ReadNoiseLevel(ctx context.Context) (int, error) {
	return s.readRegister(ctx, s.noiseReg)
}

// Close releases the TCP connection.
func (s *ModbusSource) Close() error {
	if s.handler == nil {
		return nil
	}
	return s.handler.Close()
}

func (s *ModbusSource) readRegister(ctx context.Context, addr uint16) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.client.ReadHoldingRegisters(addr, 1)
	if err != nil {
		return 0, fmt.Errorf("read holding register %d: %w", addr, err)
	}
	if len(b) < 2 {
		return 0, fmt.Errorf("read holding register %d: short response (%d bytes)", addr, len(b))
	}
	return int(binary.BigEndian.Uint16(b[:2])), nil
}
