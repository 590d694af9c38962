// Package config loads node and server settings from configs/<name>.yml,
// VAGAS_* environment variables and defaults, in that order of precedence
// (env over file over default).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	ps "parking_spot"
)

const envPrefix = "VAGAS"

// Config is shared by both binaries; each validates the sections it uses.
type Config struct {
	Spot       SpotConfig       `mapstructure:"spot" yaml:"spot"`
	MQTT       MQTTConfig       `mapstructure:"mqtt" yaml:"mqtt"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds" yaml:"thresholds"`
	Timing     TimingConfig     `mapstructure:"timing" yaml:"timing"`
	Sensor     SensorConfig     `mapstructure:"sensor" yaml:"sensor"`
	Indicator  IndicatorConfig  `mapstructure:"indicator" yaml:"indicator"`

	Port      string          `mapstructure:"port" yaml:"port"`
	DB        DBConfig        `mapstructure:"db" yaml:"db"`
	Bridge    BridgeConfig    `mapstructure:"bridge" yaml:"bridge"`
	Auth      AuthConfig      `mapstructure:"auth" yaml:"auth"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	WS        WSConfig        `mapstructure:"ws" yaml:"ws"`

	Log LogConfig `mapstructure:"log" yaml:"log"`
}

type SpotConfig struct {
	ID string `mapstructure:"id" yaml:"id"`
}

type MQTTConfig struct {
	Broker           string       `mapstructure:"broker" yaml:"broker"`
	Username         string       `mapstructure:"username" yaml:"username"`
	Password         string       `mapstructure:"password" yaml:"password"`
	ClientIDPrefix   string       `mapstructure:"client_id_prefix" yaml:"client_id_prefix"`
	ConnectTimeoutMs int          `mapstructure:"connect_timeout_ms" yaml:"connect_timeout_ms"`
	Topics           TopicsConfig `mapstructure:"topics" yaml:"topics"`
}

type TopicsConfig struct {
	Distance string `mapstructure:"distance" yaml:"distance"`
	Noise    string `mapstructure:"noise" yaml:"noise"`
	Status   string `mapstructure:"status" yaml:"status"`
}

type ThresholdsConfig struct {
	OccupiedCm    int `mapstructure:"occupied_cm" yaml:"occupied_cm"`
	NoiseRaw      int `mapstructure:"noise_raw" yaml:"noise_raw"`
	MotionDeltaCm int `mapstructure:"motion_delta_cm" yaml:"motion_delta_cm"`
}

type TimingConfig struct {
	TelemetryPeriodMs  int `mapstructure:"telemetry_period_ms" yaml:"telemetry_period_ms"`
	TickDelayMs        int `mapstructure:"tick_delay_ms" yaml:"tick_delay_ms"`
	ReconnectBackoffMs int `mapstructure:"reconnect_backoff_ms" yaml:"reconnect_backoff_ms"`
}

type SensorConfig struct {
	Driver           string          `mapstructure:"driver" yaml:"driver"`
	NoEchoDistanceCm int             `mapstructure:"no_echo_distance_cm" yaml:"no_echo_distance_cm"`
	Modbus           ModbusConfig    `mapstructure:"modbus" yaml:"modbus"`
	Simulator        SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
}

type IndicatorConfig struct {
	Driver string       `mapstructure:"driver" yaml:"driver"`
	Modbus ModbusConfig `mapstructure:"modbus" yaml:"modbus"`
}

// ModbusConfig addresses one Modbus TCP slave. Register fields are used by
// the sensor source, FirstCoil by the indicator.
type ModbusConfig struct {
	Endpoint         string `mapstructure:"endpoint" yaml:"endpoint"`
	SlaveID          uint8  `mapstructure:"slave_id" yaml:"slave_id"`
	TimeoutMs        int    `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	DistanceRegister uint16 `mapstructure:"distance_register" yaml:"distance_register"`
	NoiseRegister    uint16 `mapstructure:"noise_register" yaml:"noise_register"`
	FirstCoil        uint16 `mapstructure:"first_coil" yaml:"first_coil"`
}

type SimulatorConfig struct {
	Seed          int64 `mapstructure:"seed" yaml:"seed"`
	AmbientNoise  int   `mapstructure:"ambient_noise" yaml:"ambient_noise"`
	EngineNoise   int   `mapstructure:"engine_noise" yaml:"engine_noise"`
	ParkedCm      int   `mapstructure:"parked_cm" yaml:"parked_cm"`
	EmptyCm       int   `mapstructure:"empty_cm" yaml:"empty_cm"`
	MeanDwellSec  int   `mapstructure:"mean_dwell_sec" yaml:"mean_dwell_sec"`
	ApproachCmSec int   `mapstructure:"approach_cm_per_sec" yaml:"approach_cm_per_sec"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type BridgeConfig struct {
	TopicFilter string `mapstructure:"topic_filter" yaml:"topic_filter"`
}

type AuthConfig struct {
	SigningKey      string `mapstructure:"signing_key" yaml:"signing_key"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes" yaml:"token_ttl_minutes"`
}

type DiscoveryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Instance string `mapstructure:"instance" yaml:"instance"`
}

type WSConfig struct {
	IntervalMs int `mapstructure:"interval_ms" yaml:"interval_ms"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Sensor and indicator drivers.
const (
	DriverModbus    = "modbus"
	DriverSimulator = "simulator"
	DriverLog       = "log"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("spot.id", "Vaga-01")

	v.SetDefault("mqtt.broker", "tcp://test.mosquitto.org:1883")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id_prefix", "ESP32-Garagem-")
	v.SetDefault("mqtt.connect_timeout_ms", 5000)
	v.SetDefault("mqtt.topics.distance", ps.TopicDistance)
	v.SetDefault("mqtt.topics.noise", ps.TopicNoise)
	v.SetDefault("mqtt.topics.status", ps.TopicStatus)

	v.SetDefault("thresholds.occupied_cm", 5)
	v.SetDefault("thresholds.noise_raw", 100)
	v.SetDefault("thresholds.motion_delta_cm", 10)

	v.SetDefault("timing.telemetry_period_ms", 5000)
	v.SetDefault("timing.tick_delay_ms", 200)
	v.SetDefault("timing.reconnect_backoff_ms", 5000)

	v.SetDefault("sensor.driver", DriverSimulator)
	v.SetDefault("sensor.no_echo_distance_cm", 200)
	v.SetDefault("sensor.modbus.endpoint", "127.0.0.1:502")
	v.SetDefault("sensor.modbus.slave_id", 1)
	v.SetDefault("sensor.modbus.timeout_ms", 1000)
	v.SetDefault("sensor.modbus.distance_register", 0)
	v.SetDefault("sensor.modbus.noise_register", 1)
	v.SetDefault("sensor.simulator.seed", 0)
	v.SetDefault("sensor.simulator.ambient_noise", 40)
	v.SetDefault("sensor.simulator.engine_noise", 900)
	v.SetDefault("sensor.simulator.parked_cm", 3)
	v.SetDefault("sensor.simulator.empty_cm", 0)
	v.SetDefault("sensor.simulator.mean_dwell_sec", 30)
	v.SetDefault("sensor.simulator.approach_cm_per_sec", 60)

	v.SetDefault("indicator.driver", DriverLog)
	v.SetDefault("indicator.modbus.endpoint", "127.0.0.1:502")
	v.SetDefault("indicator.modbus.slave_id", 1)
	v.SetDefault("indicator.modbus.timeout_ms", 1000)
	v.SetDefault("indicator.modbus.first_coil", 0)

	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "vagas.db")
	v.SetDefault("bridge.topic_filter", ps.TopicWildcard)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl_minutes", 60)
	v.SetDefault("discovery.enabled", true)
	v.SetDefault("discovery.instance", "garagem")
	v.SetDefault("ws.interval_ms", 1000)

	v.SetDefault("log.level", "info")
}

// Load reads configs/<name>.yml, or path when non-empty. A missing default
// file is not an error; a missing explicit file is.
func Load(name, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName(name)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %q: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (t TimingConfig) TelemetryPeriod() time.Duration  { return ms(t.TelemetryPeriodMs) }
func (t TimingConfig) TickDelay() time.Duration        { return ms(t.TickDelayMs) }
func (t TimingConfig) ReconnectBackoff() time.Duration { return ms(t.ReconnectBackoffMs) }
func (m MQTTConfig) ConnectTimeout() time.Duration     { return ms(m.ConnectTimeoutMs) }
func (m ModbusConfig) Timeout() time.Duration          { return ms(m.TimeoutMs) }
func (w WSConfig) Interval() time.Duration             { return ms(w.IntervalMs) }

// TokenTTL is the lifetime of issued operator tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// ClientID is the MQTT client identifier for a spot node.
func (c *Config) ClientID() string {
	return c.MQTT.ClientIDPrefix + c.Spot.ID
}
