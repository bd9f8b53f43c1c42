// Package di provides dependency injection configuration for the kanban server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/kanban-server/internal/auth"
	"github.com/listenupapp/kanban-server/internal/config"
	"github.com/listenupapp/kanban-server/internal/di/providers"
	"github.com/listenupapp/kanban-server/internal/logger"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Realtime layer
	do.Provide(injector, providers.ProvideRealtime)

	// Ordering core
	do.Provide(injector, providers.ProvideScopeLocks)
	do.Provide(injector, providers.ProvideReconciler)
	do.Provide(injector, providers.ProvideMover)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideAccessService)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideWorkspaceService)
	do.Provide(injector, providers.ProvideListService)
	do.Provide(injector, providers.ProvideCardService)
	do.Provide(injector, providers.ProvidePresenceService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.RealtimeHandle](injector)
	_ = do.MustInvoke[*ordering.Reconciler](injector)
	_ = do.MustInvoke[*ordering.Mover](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.WorkspaceService](injector)
	_ = do.MustInvoke[*service.ListService](injector)
	_ = do.MustInvoke[*service.CardService](injector)
	_ = do.MustInvoke[*service.PresenceService](injector)

	// Server
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	return nil
}
