package providers

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/samber/do/v2"
	"golang.org/x/net/netutil"

	"github.com/listenupapp/kanban-server/internal/api"
	"github.com/listenupapp/kanban-server/internal/auth"
	"github.com/listenupapp/kanban-server/internal/config"
	"github.com/listenupapp/kanban-server/internal/logger"
	"github.com/listenupapp/kanban-server/internal/mdns"
	"github.com/listenupapp/kanban-server/internal/ratelimit"
	"github.com/listenupapp/kanban-server/internal/service"
)

// Version is reported by /health and the OpenAPI document. Set at build time.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	Port int
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := shutdownContext()
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	rt := do.MustInvoke[*RealtimeHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Access:    do.MustInvoke[*service.AccessService](i),
		Activity:  do.MustInvoke[*service.ActivityService](i),
		User:      do.MustInvoke[*service.UserService](i),
		Workspace: do.MustInvoke[*service.WorkspaceService](i),
		List:      do.MustInvoke[*service.ListService](i),
		Card:      do.MustInvoke[*service.CardService](i),
		Presence:  do.MustInvoke[*service.PresenceService](i),
	}

	limiter := ratelimit.NewPerInterval(cfg.RateLimit.Requests, cfg.RateLimit.Interval, cfg.RateLimit.Burst)

	handler := api.NewServer(storeHandle.Store, services, rt.Hub, rt.Tracker, tokens, api.Options{
		Version:        Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    limiter,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}, log.Logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	listener, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, err
	}
	if cfg.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConnections)
	}

	port := cfg.Server.Port
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = strconv.Itoa(addr.Port)
	}
	portNum, _ := strconv.Atoi(port)

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", listener.Addr().String(), "max_connections", cfg.Server.MaxConnections)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server error")
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, Port: portNum}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService advertises the server on the local network when enabled.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	httpHandle := do.MustInvoke[*HTTPServerHandle](i)
	rt := do.MustInvoke[*RealtimeHandle](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{}, nil
	}

	advert := mdns.Advert{
		Name:    cfg.Server.Name,
		Version: Version,
		Port:    httpHandle.Port,
	}
	if rt.Relay != nil {
		advert.InstanceID = rt.Relay.InstanceID()
	}

	svc := mdns.NewService(log.Logger)
	if err := svc.Start(advert); err != nil {
		// Non-fatal: the server works without mDNS (e.g., Docker, cloud).
		log.WithError(err).Warn("mDNS advertisement unavailable")
	}

	return &MDNSServiceHandle{Service: svc}, nil
}
