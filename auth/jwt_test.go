package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	cfg := &config.Config{
		PersistenceConfig: config.PersistenceConfig{
			Type: "sqlite",
			DSN:  fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
	}
	st, err := store.NewGormStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.StoreUser(context.Background(), &types.User{
		Id:    "alice",
		Email: "alice@example.com",
		Role:  types.RoleTeacher,
	}))
	return st
}

func signToken(t *testing.T, secret, subject string, expiry time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTVerify(t *testing.T) {
	v := NewJWTVerifier(testSecret, newTestStore(t))

	user, err := v.Verify(context.Background(), signToken(t, testSecret, "alice", time.Minute))
	require.NoError(t, err)
	require.Equal(t, "alice", user.Id)
	require.Equal(t, types.RoleTeacher, user.Role)
}

func TestJWTVerifyBearerPrefix(t *testing.T) {
	v := NewJWTVerifier(testSecret, newTestStore(t))

	user, err := v.Verify(context.Background(), "Bearer "+signToken(t, testSecret, "alice", time.Minute))
	require.NoError(t, err)
	require.Equal(t, "alice", user.Id)
}

func TestJWTVerifyFailures(t *testing.T) {
	v := NewJWTVerifier(testSecret, newTestStore(t))

	cases := map[string]string{
		"missing":       "",
		"garbage":       "not-a-token",
		"wrong secret":  signToken(t, "other-secret", "alice", time.Minute),
		"expired":       signToken(t, testSecret, "alice", -time.Minute),
		"unknown user":  signToken(t, testSecret, "mallory", time.Minute),
		"empty subject": signToken(t, testSecret, "", time.Minute),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), token)
			require.ErrorIs(t, err, types.ErrAuth)
		})
	}
}

func TestNewVerifierRequiresBackend(t *testing.T) {
	st := newTestStore(t)

	_, err := NewVerifier(&config.Config{}, st)
	require.Error(t, err)

	v, err := NewVerifier(&config.Config{AuthConfig: config.AuthConfig{JWTSecret: testSecret}}, st)
	require.NoError(t, err)
	require.IsType(t, &JWTVerifier{}, v)
}
