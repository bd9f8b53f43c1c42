package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/kanban-server/internal/config"
	"github.com/listenupapp/kanban-server/internal/logger"
	"github.com/listenupapp/kanban-server/internal/store"
	"github.com/listenupapp/kanban-server/internal/store/kv"
	"github.com/listenupapp/kanban-server/internal/store/sqlite"
)

// StoreHandle wraps the position store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured position store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, path, err := OpenStore(cfg.Storage, log)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "driver", cfg.Storage.Driver, "path", path)

	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the backend named by cfg.Driver under cfg.DataPath. It is
// shared with the operator CLI.
func OpenStore(cfg config.StorageConfig, log *logger.Logger) (store.Store, string, error) {
	if err := os.MkdirAll(cfg.DataPath, 0o750); err != nil {
		return nil, "", fmt.Errorf("create data path: %w", err)
	}

	switch cfg.Driver {
	case config.DriverBadger:
		path := filepath.Join(cfg.DataPath, "kv")
		st, err := kv.Open(path, log.Logger)
		if err != nil {
			return nil, "", err
		}
		return st, path, nil
	default:
		path := filepath.Join(cfg.DataPath, "kanban.db")
		st, err := sqlite.Open(path, log.Logger)
		if err != nil {
			return nil, "", err
		}
		return st, path, nil
	}
}
