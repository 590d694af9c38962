// Package discovery advertises the garage dashboard over mDNS so it can be
// found on the local network without knowing the server address.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"parking_spot/internal/logger"

	"github.com/enbility/zeroconf/v3"
)

const (
	ServiceType   = "_http._tcp"
	Domain        = "local."
	DashboardPath = "/vagas"
)

// Info describes the advertised dashboard.
type Info struct {
	Instance string
	Port     int
	Path     string
}

// TXT returns the TXT records for the service.
func (i Info) TXT() []string {
	path := i.Path
	if path == "" {
		path = DashboardPath
	}
	return []string{"path=" + path}
}

type registration interface {
	Shutdown()
}

type registerFunc func(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (registration, error)

func zeroconfRegister(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (registration, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// Advertiser keeps at most one registration alive.
type Advertiser struct {
	log      *logger.Logger
	register registerFunc

	mu     sync.Mutex
	server registration
}

// NewAdvertiser returns an advertiser on all interfaces.
func NewAdvertiser(log *logger.Logger) *Advertiser {
	if log == nil {
		log = logger.Nop()
	}
	return &Advertiser{log: log.Named("mdns"), register: zeroconfRegister}
}

// Advertise replaces any previous registration with info.
func (a *Advertiser) Advertise(info Info) error {
	if info.Instance == "" {
		return errors.New("discovery: instance name required")
	}
	if info.Port <= 0 {
		return fmt.Errorf("discovery: invalid port %d", info.Port)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := a.register(info.Instance, ServiceType, Domain, info.Port, info.TXT(), nil)
	if err != nil {
		return fmt.Errorf("register mdns service: %w", err)
	}
	a.server = server
	a.log.Infow("mdns_advertised", "instance", info.Instance, "service", ServiceType, "port", info.Port)
	return nil
}

// Stop withdraws the registration.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
