package auth

import (
	"context"
	"fmt"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/globals"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier verifies ID tokens against the configured OpenID Connect
// providers. The user is resolved by the e-mail claim, which must be unique
// across the user base.
type OIDCVerifier struct {
	configs []config.OIDCConfig
	store   store.Store
}

func NewOIDCVerifier(configs []config.OIDCConfig, st store.Store) *OIDCVerifier {
	return &OIDCVerifier{configs: configs, store: st}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*types.User, error) {
	raw := stripBearer(token)
	if raw == "" {
		return nil, fmt.Errorf("missing token: %w", types.ErrAuth)
	}
	for _, oidcConf := range v.configs {
		provider, err := oidc.NewProvider(ctx, oidcConf.ProviderUrl)
		if err != nil {
			globals.AppLogger.Error("could not set up oidc provider", "provider", oidcConf.Name, "error", err)
			continue
		}
		conf := oidc.Config{}
		if oidcConf.ClientId == "" {
			conf.SkipClientIDCheck = true
		} else {
			conf.ClientID = oidcConf.ClientId
		}
		verifiedIdToken, err := provider.Verifier(&conf).Verify(ctx, raw)
		if err != nil {
			globals.AppLogger.Debug("token not valid for provider", "provider", oidcConf.Name, "error", err)
			continue
		}
		claims := struct {
			Email string `json:"email"`
		}{}
		if err := verifiedIdToken.Claims(&claims); err != nil || claims.Email == "" {
			continue
		}
		user, err := v.store.GetUserByEmail(ctx, claims.Email)
		if err != nil {
			return nil, fmt.Errorf("no user for %s: %w", claims.Email, types.ErrAuth)
		}
		return user, nil
	}
	return nil, fmt.Errorf("token not accepted by any provider: %w", types.ErrAuth)
}
