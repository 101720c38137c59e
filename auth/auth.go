// Package auth holds the credential verification collaborators consumed by
// the connection handshake. The hub itself never mints credentials, it only
// exchanges a bearer token for an identity or fails closed.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
)

// Verifier turns a bearer token into an authenticated user. Any failure
// (missing, malformed, expired, bad signature, unknown identity) is reported
// as types.ErrAuth.
type Verifier interface {
	Verify(ctx context.Context, token string) (*types.User, error)
}

// NewVerifier selects the verifier backend from the configuration: a shared
// HS256 secret when auth.jwt_secret is set, otherwise the configured OIDC
// providers.
func NewVerifier(cfg *config.Config, st store.Store) (Verifier, error) {
	if cfg.AuthConfig.JWTSecret != "" {
		return NewJWTVerifier(cfg.AuthConfig.JWTSecret, st), nil
	}
	if len(cfg.OIDCConfigs) > 0 {
		return NewOIDCVerifier(cfg.OIDCConfigs, st), nil
	}
	return nil, fmt.Errorf("no auth backend configured")
}

func stripBearer(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
}
