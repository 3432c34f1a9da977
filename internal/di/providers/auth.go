package providers

import (
	"github.com/samber/do/v2"

	"github.com/lecternapp/lectern-server/internal/auth"
	"github.com/lecternapp/lectern-server/internal/config"
	"github.com/lecternapp/lectern-server/internal/logger"
)

// AuthKey is the symmetric key used for playback credentials.
type AuthKey []byte

// ProvideAuthKey loads or generates the credential signing key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return nil, err
	}

	log.Info("Auth key ready", "path", cfg.Storage.DataPath)
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
}
