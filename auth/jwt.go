package auth

import (
	"context"
	"fmt"

	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies HS256-signed bearer tokens whose subject claim is the
// user id. Tokens are minted by an external identity service sharing the
// secret.
type JWTVerifier struct {
	secret []byte
	store  store.Store
}

func NewJWTVerifier(secret string, st store.Store) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), store: st}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*types.User, error) {
	raw := stripBearer(token)
	if raw == "" {
		return nil, fmt.Errorf("missing token: %w", types.ErrAuth)
	}
	claims := jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("token verification: %v: %w", err, types.ErrAuth)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", types.ErrAuth)
	}
	user, err := v.store.GetUser(ctx, claims.Subject)
	if err != nil {
		// the referenced identity no longer exists: fail closed
		return nil, fmt.Errorf("subject %s: %w", claims.Subject, types.ErrAuth)
	}
	return user, nil
}
