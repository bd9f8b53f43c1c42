package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/kanban-server/internal/logger"
	"github.com/listenupapp/kanban-server/internal/ordering"
	"github.com/listenupapp/kanban-server/internal/service"
)

// ProvideScopeLocks provides the per-scope locks shared by the reconciler,
// the mover and the services.
func ProvideScopeLocks(i do.Injector) (*ordering.ScopeLocks, error) {
	return ordering.NewScopeLocks(), nil
}

// ProvideReconciler provides the order reconciler.
func ProvideReconciler(i do.Injector) (*ordering.Reconciler, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	locks := do.MustInvoke[*ordering.ScopeLocks](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ordering.NewReconciler(storeHandle.Store, locks, log.Logger), nil
}

// ProvideMover provides the card move engine.
func ProvideMover(i do.Injector) (*ordering.Mover, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	locks := do.MustInvoke[*ordering.ScopeLocks](i)
	log := do.MustInvoke[*logger.Logger](i)

	return ordering.NewMover(storeHandle.Store, locks, log.Logger), nil
}

// ProvideAccessService provides workspace permission checks.
func ProvideAccessService(i do.Injector) (*service.AccessService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAccessService(storeHandle.Store, log.Logger), nil
}

// ProvideActivityService provides the activity feed service.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityService(storeHandle.Store, access, log.Logger), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideWorkspaceService provides the workspace service.
func ProvideWorkspaceService(i do.Injector) (*service.WorkspaceService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	activity := do.MustInvoke[*service.ActivityService](i)
	reconciler := do.MustInvoke[*ordering.Reconciler](i)
	locks := do.MustInvoke[*ordering.ScopeLocks](i)
	rt := do.MustInvoke[*RealtimeHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewWorkspaceService(storeHandle.Store, access, activity, reconciler, locks, rt.Hub, rt.Tracker, log.Logger), nil
}

// ProvideListService provides the list service.
func ProvideListService(i do.Injector) (*service.ListService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	activity := do.MustInvoke[*service.ActivityService](i)
	reconciler := do.MustInvoke[*ordering.Reconciler](i)
	locks := do.MustInvoke[*ordering.ScopeLocks](i)
	rt := do.MustInvoke[*RealtimeHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewListService(storeHandle.Store, access, activity, reconciler, locks, rt.Hub, log.Logger), nil
}

// ProvideCardService provides the card service.
func ProvideCardService(i do.Injector) (*service.CardService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	access := do.MustInvoke[*service.AccessService](i)
	activity := do.MustInvoke[*service.ActivityService](i)
	mover := do.MustInvoke[*ordering.Mover](i)
	locks := do.MustInvoke[*ordering.ScopeLocks](i)
	rt := do.MustInvoke[*RealtimeHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCardService(storeHandle.Store, access, activity, mover, locks, rt.Hub, log.Logger), nil
}

// ProvidePresenceService provides presence queries and REST cursor updates.
func ProvidePresenceService(i do.Injector) (*service.PresenceService, error) {
	rt := do.MustInvoke[*RealtimeHandle](i)
	access := do.MustInvoke[*service.AccessService](i)

	return service.NewPresenceService(rt.Tracker, access), nil
}
