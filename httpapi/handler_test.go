package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/classchat/classchat/auth"
	"github.com/classchat/classchat/config"
	"github.com/classchat/classchat/store"
	"github.com/classchat/classchat/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "httpapi-test-secret"

type fixture struct {
	srv    *httptest.Server
	store  store.Store
	roomId string
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		HistoryConfig: config.HistoryConfig{PageSize: 50, SearchPageSize: 20},
		AuthConfig:    config.AuthConfig{JWTSecret: testSecret},
		PersistenceConfig: config.PersistenceConfig{
			Type: "sqlite",
			DSN:  fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		},
	}
	st, err := store.NewGormStore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	name := "Alice"
	require.NoError(t, st.StoreUser(context.Background(), &types.User{
		Id: "alice", Email: "alice@example.com", Name: &name, Role: types.RoleStudent,
	}))
	room, err := st.GetOrCreateRoom(context.Background(), types.GeneralRoomName, types.RoomKindGroup)
	require.NoError(t, err)

	router := mux.NewRouter()
	NewHandler(cfg, st, auth.NewJWTVerifier(testSecret, st)).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	claims := jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &fixture{srv: srv, store: st, roomId: room.Id, token: token}
}

func (f *fixture) seedMessages(t *testing.T, contents ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(contents))
	for _, content := range contents {
		msg, err := f.store.CreateMessage(context.Background(), "alice", f.roomId, content)
		require.NoError(t, err)
		ids = append(ids, msg.Id)
	}
	return ids
}

func (f *fixture) get(t *testing.T, path string, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodePage(t *testing.T, resp *http.Response) store.Page {
	t.Helper()
	var page store.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	return page
}

func TestMessagesRequiresCredentials(t *testing.T) {
	f := newFixture(t)
	for _, token := range []string{"", "garbage"} {
		resp := f.get(t, "/chat/messages/"+f.roomId, token)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestMessagesReturnsChronologicalPage(t *testing.T) {
	f := newFixture(t)
	f.seedMessages(t, "first", "second", "third")

	resp := f.get(t, "/chat/messages/"+f.roomId, f.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	require.Len(t, page.Messages, 3)
	assert.Equal(t, "first", page.Messages[0].Content)
	assert.Equal(t, "third", page.Messages[2].Content)
	assert.Equal(t, "alice", page.Messages[0].User.Id)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestMessagesPaginatesWithCursor(t *testing.T) {
	f := newFixture(t)
	contents := make([]string, 12)
	for i := range contents {
		contents[i] = fmt.Sprintf("message %d", i+1)
	}
	f.seedMessages(t, contents...)

	resp := f.get(t, "/chat/messages/"+f.roomId+"?take=5", f.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	require.Len(t, page.Messages, 5)
	assert.Equal(t, "message 8", page.Messages[0].Content)
	assert.Equal(t, "message 12", page.Messages[4].Content)
	require.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, page.Messages[0].Id, *page.NextCursor)

	resp = f.get(t, fmt.Sprintf("/chat/messages/%s?take=5&cursor=%d", f.roomId, *page.NextCursor), f.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	next := decodePage(t, resp)
	require.Len(t, next.Messages, 5)
	assert.Equal(t, "message 3", next.Messages[0].Content)
	assert.Equal(t, "message 7", next.Messages[4].Content)
	assert.True(t, next.HasMore)
}

func TestMessagesSearchReturnsTotal(t *testing.T) {
	f := newFixture(t)
	f.seedMessages(t, "deadline tomorrow", "lunch break", "Deadline moved", "see you")

	resp := f.get(t, "/chat/messages/"+f.roomId+"?search=deadline", f.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page store.SearchPage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page.Messages, 2)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "deadline tomorrow", page.Messages[0].Content)
	assert.Equal(t, "Deadline moved", page.Messages[1].Content)
}

func TestMessagesRejectsMalformedParams(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{
		"/chat/messages/" + f.roomId + "?cursor=abc",
		"/chat/messages/" + f.roomId + "?take=abc",
		"/chat/messages/" + f.roomId + "?take=0",
		"/chat/messages/" + f.roomId + "?take=-3",
	} {
		resp := f.get(t, path, f.token)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestMessagesUnknownRoomIsEmpty(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/chat/messages/no-such-room", f.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodePage(t, resp)
	assert.Empty(t, page.Messages)
	assert.False(t, page.HasMore)
}
