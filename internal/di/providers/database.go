package providers

import (
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite-backed store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.Storage.DataPath, "lectern.db")
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)
	return &StoreHandle{Store: db}, nil
}
