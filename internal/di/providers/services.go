package providers

import (
	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
	"github.com/lecternapp/lectern-server/internal/service"
)

// ProvideLessonService provides the lesson service.
func ProvideLessonService(i do.Injector) (*service.LessonService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLessonService(storeHandle.Store, log.Logger), nil
}

// ProvideProgressService provides the watch-progress service.
func ProvideProgressService(i do.Injector) (*service.ProgressService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewProgressService(storeHandle.Store, cfg.Sync.CompletionThreshold, log.Logger), nil
}
