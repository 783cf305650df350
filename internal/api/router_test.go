package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/rl-arena/dice-backend/internal/api/handlers"
	"github.com/rl-arena/dice-backend/internal/config"
	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/rl-arena/dice-backend/internal/service"
	"github.com/rl-arena/dice-backend/internal/websocket"
	jwtutil "github.com/rl-arena/dice-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	core   *service.Core
	server *httptest.Server
	jwt    *jwtutil.JWTManager
}

type fakeHistory struct {
	records []models.MatchRecord
}

func (f *fakeHistory) FindByArenaID(_ context.Context, arenaID string) (*models.MatchRecord, error) {
	for i := range f.records {
		if f.records[i].ArenaID == arenaID {
			return &f.records[i], nil
		}
	}
	return nil, nil
}

func (f *fakeHistory) ListByPlayer(_ context.Context, playerID string, limit int) ([]models.MatchRecord, error) {
	var out []models.MatchRecord
	for _, r := range f.records {
		if (r.Player1ID == playerID || r.Player2ID == playerID) && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithHistory(t, nil)
}

func newTestAPIWithHistory(t *testing.T, history handlers.MatchHistoryReader) *testAPI {
	t.Helper()

	cfg := &config.Config{
		Env:           "test",
		JWTSecret:     "test-secret",
		JWTExpiration: time.Hour,
	}

	core := service.NewCore(service.CoreConfig{Interval: time.Hour})
	hub := websocket.NewHub(core.Dispatcher, websocket.Options{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(SetupRouter(cfg, core.Dispatcher, hub, history))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testAPI{
		core:   core,
		server: server,
		jwt:    jwtutil.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
	}
}

func (a *testAPI) token(t *testing.T, identity string) string {
	t.Helper()
	token, err := a.jwt.Generate(identity, identity)
	require.NoError(t, err)
	return token
}

func (a *testAPI) get(t *testing.T, path, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestRouter_Health(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_MatchmakingStats(t *testing.T) {
	a := newTestAPI(t)

	resp, body := a.get(t, "/api/v1/matchmaking/stats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "queues")
	assert.Contains(t, body, "sessions")
	assert.Contains(t, body, "websocket")
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
}

func TestRouter_GetArena(t *testing.T) {
	a := newTestAPI(t)
	token := a.token(t, "alice")

	resp, _ := a.get(t, "/api/v1/arenas/1234567890123456", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = a.get(t, "/api/v1/arenas/1234567890123456", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	id, err := a.core.Arenas.CreateArena(models.GameModeOneVOneNormal)
	require.NoError(t, err)

	resp, body := a.get(t, "/api/v1/arenas/"+id, token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["id"])
	assert.Equal(t, string(models.ArenaStatusPending), body["status"])
}

func TestRouter_WebSocketRequiresToken(t *testing.T) {
	a := newTestAPI(t)
	wsURL := "ws" + strings.TrimPrefix(a.server.URL, "http") + "/api/v1/ws"

	_, resp, err := gorilla.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := gorilla.DefaultDialer.Dial(wsURL+"?token="+a.token(t, "alice"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"action":0,"gameMode":"one_v_one_normal"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

	var ack models.Packet
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, models.ActionResponse, ack.Action)
	assert.Nil(t, ack.Error)

	session, ok := a.core.Sessions.Get("alice")
	require.True(t, ok)
	assert.Equal(t, models.StateQueued, session.State)
}

func TestRouter_MatchHistory(t *testing.T) {
	history := &fakeHistory{records: []models.MatchRecord{
		{ArenaID: "1111111111111111", GameMode: models.GameModeOneVOneNormal, Player1ID: "alice", Player2ID: "bob", Status: models.ArenaStatusStarted},
		{ArenaID: "2222222222222222", GameMode: models.GameModeOneVOneNormal, Player1ID: "carol", Player2ID: "alice", Status: models.ArenaStatusVoided},
		{ArenaID: "3333333333333333", GameMode: models.GameModeOneVOneNormal, Player1ID: "bob", Player2ID: "carol", Status: models.ArenaStatusStarted},
	}}
	a := newTestAPIWithHistory(t, history)
	token := a.token(t, "alice")

	resp, _ := a.get(t, "/api/v1/matches/history", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// player 없으면 토큰의 identity
	resp, body := a.get(t, "/api/v1/matches/history", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice", body["player"])
	assert.EqualValues(t, 2, body["total"])

	resp, body = a.get(t, "/api/v1/matches/history?player=bob&limit=1", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["total"])

	resp, _ = a.get(t, "/api/v1/matches/history?limit=abc", token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = a.get(t, "/api/v1/matches/2222222222222222", token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(models.ArenaStatusVoided), body["status"])

	resp, _ = a.get(t, "/api/v1/matches/9999999999999999", token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_MatchHistoryDisabled(t *testing.T) {
	a := newTestAPI(t)

	resp, _ := a.get(t, "/api/v1/matches/history", a.token(t, "alice"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
