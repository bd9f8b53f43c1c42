package providers

import (
	"encoding/hex"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/kanban-server/internal/auth"
	"github.com/listenupapp/kanban-server/internal/config"
	"github.com/listenupapp/kanban-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey uses the configured key, or loads or generates one in the
// data path.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := LoadAuthKey(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"from_config", cfg.Auth.AccessTokenKey != "",
		"data_path", cfg.Storage.DataPath,
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// LoadAuthKey returns ACCESS_TOKEN_KEY when set and otherwise the key file in
// the data path, creating it on first use. The operator CLI signs tokens with
// the same key as the server.
func LoadAuthKey(cfg *config.Config) ([]byte, error) {
	if cfg.Auth.AccessTokenKey != "" {
		key, err := hex.DecodeString(cfg.Auth.AccessTokenKey)
		if err != nil {
			return nil, fmt.Errorf("invalid ACCESS_TOKEN_KEY: %w", err)
		}
		return key, nil
	}
	return auth.LoadOrGenerateKey(cfg.Storage.DataPath)
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenServiceFromKey([]byte(authKey), cfg.Auth.AccessTokenDuration)
}
