package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateNode checks the sections the sensor node uses.
func (c *Config) ValidateNode() error {
	var errs []error

	if strings.TrimSpace(c.Spot.ID) == "" {
		errs = append(errs, errors.New("spot.id is required"))
	}
	errs = append(errs, c.validateMQTT()...)

	t := c.MQTT.Topics
	if t.Distance == "" || t.Noise == "" || t.Status == "" {
		errs = append(errs, errors.New("mqtt.topics: distance, noise and status are required"))
	}

	th := c.Thresholds
	if th.OccupiedCm < 0 || th.NoiseRaw < 0 || th.MotionDeltaCm < 0 {
		errs = append(errs, fmt.Errorf("thresholds must be >= 0 (occupied_cm=%d noise_raw=%d motion_delta_cm=%d)",
			th.OccupiedCm, th.NoiseRaw, th.MotionDeltaCm))
	}

	tm := c.Timing
	if tm.TelemetryPeriodMs <= 0 {
		errs = append(errs, errors.New("timing.telemetry_period_ms must be > 0"))
	}
	if tm.TickDelayMs <= 0 {
		errs = append(errs, errors.New("timing.tick_delay_ms must be > 0"))
	}
	if tm.ReconnectBackoffMs <= 0 {
		errs = append(errs, errors.New("timing.reconnect_backoff_ms must be > 0"))
	}

	if c.Sensor.NoEchoDistanceCm <= c.Thresholds.OccupiedCm {
		errs = append(errs, fmt.Errorf("sensor.no_echo_distance_cm (%d) must exceed thresholds.occupied_cm (%d)",
			c.Sensor.NoEchoDistanceCm, c.Thresholds.OccupiedCm))
	}
	switch c.Sensor.Driver {
	case DriverModbus:
		errs = append(errs, validateModbus("sensor.modbus", c.Sensor.Modbus)...)
	case DriverSimulator:
	default:
		errs = append(errs, fmt.Errorf("sensor.driver %q: want %q or %q", c.Sensor.Driver, DriverModbus, DriverSimulator))
	}
	switch c.Indicator.Driver {
	case DriverModbus:
		errs = append(errs, validateModbus("indicator.modbus", c.Indicator.Modbus)...)
	case DriverLog:
	default:
		errs = append(errs, fmt.Errorf("indicator.driver %q: want %q or %q", c.Indicator.Driver, DriverModbus, DriverLog))
	}

	return errors.Join(errs...)
}

// ValidateServer checks the sections the garage server uses.
func (c *Config) ValidateServer() error {
	errs := c.validateMQTT()
	if strings.TrimSpace(c.DB.Path) == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if c.Bridge.TopicFilter == "" {
		errs = append(errs, errors.New("bridge.topic_filter is required"))
	}
	if len(c.Auth.SigningKey) < 16 {
		errs = append(errs, errors.New("auth.signing_key must be at least 16 characters"))
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("auth.token_ttl_minutes must be > 0"))
	}
	if c.WS.IntervalMs <= 0 {
		errs = append(errs, errors.New("ws.interval_ms must be > 0"))
	}
	return errors.Join(errs...)
}

func (c *Config) validateMQTT() []error {
	var errs []error
	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required"))
	}
	if c.MQTT.ConnectTimeoutMs <= 0 {
		errs = append(errs, errors.New("mqtt.connect_timeout_ms must be > 0"))
	}
	return errs
}

func validateModbus(prefix string, m ModbusConfig) []error {
	var errs []error
	if m.Endpoint == "" {
		errs = append(errs, fmt.Errorf("%s.endpoint is required", prefix))
	}
	if m.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("%s.timeout_ms must be > 0", prefix))
	}
	return errs
}
