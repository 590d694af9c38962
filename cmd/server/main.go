package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking_spot/internal/bridge"
	"parking_spot/internal/config"
	"parking_spot/internal/discovery"
	"parking_spot/internal/handlers"
	"parking_spot/internal/logger"
	"parking_spot/internal/repository"
	"parking_spot/internal/repository/db"
	"parking_spot/internal/server"
	"parking_spot/internal/service"
	"parking_spot/internal/transport/mqtt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	flags, err := config.ParseFlags("garage-server", os.Args[1:])
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("invalid flags", "err", err)
	}

	cfg, err := config.Load("server", flags.ConfigPath)
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
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalw("invalid config", "err", err)
	}

	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.AuthConfig{
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL(),
	}, log)
	apiHandler := handlers.NewHandler(services, log.Named("api"), cfg.WS.Interval())

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := startBridge(ctx, cfg, services, log)

	srv := server.New(log)
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	advertiser := advertise(cfg, log)

	waitForShutdown(cancel, srv, client, advertiser, log)
}

// openDB initializes the SQLite spot store.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	log.Infow("opening spot store", "path", cfg.DB.Path)
	return db.InitDB(cfg.DB.Path)
}

// startBridge connects to the broker and forwards complete snapshots into
// the spot service. The MQTT client keeps reconnecting in the background.
func startBridge(ctx context.Context, cfg *config.Config, services *service.Service, log *logger.Logger) *mqtt.Client {
	client := mqtt.New(mqtt.Config{
		Broker:           cfg.MQTT.Broker,
		Username:         cfg.MQTT.Username,
		Password:         cfg.MQTT.Password,
		ClientID:         cfg.MQTT.ClientIDPrefix + "bridge",
		ConnectTimeout:   cfg.MQTT.ConnectTimeout(),
		ReconnectBackoff: cfg.Timing.ReconnectBackoff(),
	}, log)

	b := bridge.New(cfg.Bridge.TopicFilter, services.Spots, log)
	if err := b.Start(ctx, client); err != nil {
		log.Fatalw("failed to subscribe bridge", "err", err)
	}
	if err := client.Start(ctx); err != nil {
		log.Fatalw("failed to init mqtt", "broker", cfg.MQTT.Broker, "err", err)
	}
	return client
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// advertise publishes the dashboard over mDNS when enabled. Failure is not
// fatal: the dashboard is still reachable by address.
func advertise(cfg *config.Config, log *logger.Logger) *discovery.Advertiser {
	if !cfg.Discovery.Enabled {
		return nil
	}
	port, err := server.PortNumber(cfg.Port)
	if err != nil {
		log.Warnw("mdns_skipped", "port", cfg.Port, "err", err)
		return nil
	}
	a := discovery.NewAdvertiser(log)
	if err := a.Advertise(discovery.Info{Instance: cfg.Discovery.Instance, Port: port}); err != nil {
		log.Warnw("mdns_failed", "err", err)
		return nil
	}
	return a
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, client *mqtt.Client,
	advertiser *discovery.Advertiser, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	if advertiser != nil {
		advertiser.Stop()
	}

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := client.Disconnect(ctx); err != nil {
		log.Warnw("mqtt disconnect failed", "err", err)
	}

	// stop background goroutines
	cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
