package main

import (
	"context"
	"os"
	"time"

	"parking_spot/internal/config"
	"parking_spot/internal/indicator"
	"parking_spot/internal/logger"
	"parking_spot/internal/sensor"
	"parking_spot/internal/spot"
	"parking_spot/internal/transport/mqtt"
)

func main() {
	flags, err := config.ParseFlags("spot-node", os.Args[1:])
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("invalid flags", "err", err)
	}

	cfg, err := config.Load("node", flags.ConfigPath)
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.Log.Level)

	if flags.PrintConfig {
		if err := config.WriteYAML(os.Stdout, cfg); err != nil {
			log.Fatalw("failed to print config", "err", err)
		}
		return
	}
	if err := cfg.ValidateNode(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}

	sensors, err := newSensors(cfg)
	if err != nil {
		log.Fatalw("failed to init sensors", "driver", cfg.Sensor.Driver, "err", err)
	}
	lamps, err := newIndicator(cfg, log)
	if err != nil {
		log.Fatalw("failed to init indicator", "driver", cfg.Indicator.Driver, "err", err)
	}

	// The node runs until power-off; nothing cancels this context.
	ctx := context.Background()

	client := mqtt.New(mqtt.Config{
		Broker:           cfg.MQTT.Broker,
		Username:         cfg.MQTT.Username,
		Password:         cfg.MQTT.Password,
		ClientID:         cfg.ClientID(),
		ConnectTimeout:   cfg.MQTT.ConnectTimeout(),
		ReconnectBackoff: cfg.Timing.ReconnectBackoff(),
	}, log)
	if err := client.Start(ctx); err != nil {
		log.Fatalw("failed to init mqtt", "broker", cfg.MQTT.Broker, "err", err)
	}

	scheduler := spot.NewScheduler(spot.SchedulerConfig{
		SpotID: cfg.Spot.ID,
		Topics: spot.Topics{
			Distance: cfg.MQTT.Topics.Distance,
			Noise:    cfg.MQTT.Topics.Noise,
			Status:   cfg.MQTT.Topics.Status,
		},
		TelemetryPeriod: cfg.Timing.TelemetryPeriod(),
	}, client, log.Named("scheduler"))

	controller := spot.NewController(spot.Settings{
		Thresholds: spot.Thresholds{
			OccupiedCm:    cfg.Thresholds.OccupiedCm,
			NoiseRaw:      cfg.Thresholds.NoiseRaw,
			MotionDeltaCm: cfg.Thresholds.MotionDeltaCm,
		},
		NoEchoDistanceCm: cfg.Sensor.NoEchoDistanceCm,
		TickDelay:        cfg.Timing.TickDelay(),
		ReconnectBackoff: cfg.Timing.ReconnectBackoff(),
	}, sensors, lamps, client, scheduler, spot.SystemClock{}, log.Named("controller"))

	log.Infow("node_starting", "spot_id", cfg.Spot.ID, "client_id", cfg.ClientID(),
		"sensor", cfg.Sensor.Driver, "indicator", cfg.Indicator.Driver)

	if err := controller.Run(ctx); err != nil {
		log.Fatalw("control loop stopped", "err", err)
	}
}

func newSensors(cfg *config.Config) (spot.SensorSource, error) {
	switch cfg.Sensor.Driver {
	case config.DriverModbus:
		m := cfg.Sensor.Modbus
		return sensor.NewModbusSource(sensor.ModbusConfig{
			Endpoint:         m.Endpoint,
			SlaveID:          m.SlaveID,
			Timeout:          m.Timeout(),
			DistanceRegister: m.DistanceRegister,
			NoiseRegister:    m.NoiseRegister,
		})
	default:
		s := cfg.Sensor.Simulator
		return sensor.NewSimulator(sensor.SimulatorConfig{
			Seed:          s.Seed,
			AmbientNoise:  s.AmbientNoise,
			EngineNoise:   s.EngineNoise,
			ParkedCm:      s.ParkedCm,
			EmptyCm:       s.EmptyCm,
			MeanDwell:     time.Duration(s.MeanDwellSec) * time.Second,
			ApproachCmSec: s.ApproachCmSec,
		}, nil), nil
	}
}

func newIndicator(cfg *config.Config, log *logger.Logger) (spot.Indicator, error) {
	switch cfg.Indicator.Driver {
	case config.DriverModbus:
		m := cfg.Indicator.Modbus
		return indicator.NewModbus(indicator.ModbusConfig{
			Endpoint:  m.Endpoint,
			SlaveID:   m.SlaveID,
			Timeout:   m.Timeout(),
			FirstCoil: m.FirstCoil,
		})
	default:
		return indicator.NewLog(log.Named("indicator")), nil
	}
}
