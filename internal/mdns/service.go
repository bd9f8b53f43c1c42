// Package mdns advertises the kanban server on the local network.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service type for kanban servers.
	ServiceType = "_kanban._tcp"

	// APIVersion is the current API version advertised in TXT records.
	APIVersion = "v1"
)

// Advert is what the server announces about itself.
type Advert struct {
	// InstanceID distinguishes servers sharing a name. The realtime relay
	// identity is used so peers can match adverts to relay traffic.
	InstanceID string
	Name       string
	Version    string
	Port       int
}

// TXTRecords returns the TXT records for a.
func (a Advert) TXTRecords() []string {
	records := []string{
		"id=" + a.InstanceID,
		"name=" + a.Name,
		"api=" + APIVersion,
	}
	if a.Version != "" {
		records = append(records, "version="+a.Version)
	}
	return records
}

// Service manages mDNS advertisement for the server.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// Start begins advertising. It should be called after the HTTP server is
// listening. Errors are typically non-fatal (multicast is often unavailable
// in containers).
func (s *Service) Start(advert Advert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "kanban-server"
	}

	service, err := mdns.NewMDNSService(
		host,        // Instance name (hostname)
		ServiceType, // Service type
		"",          // Domain (empty = .local)
		"",          // Host (empty = use system hostname)
		advert.Port,
		nil, // IPs (nil = all interfaces)
		advert.TXTRecords(),
	)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", advert.Port,
		"name", advert.Name,
		"id", advert.InstanceID,
	)
	return nil
}

// Running reports whether the service is currently advertising.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server != nil
}

// Stop stops mDNS advertising.
// Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
