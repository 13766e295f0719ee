package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/models"
	"github.com/jason-s-yu/picturepoker/internal/transport"
)

type frame struct {
	Type   string          `json:"type"`
	Player string          `json:"player"`
	ID     string          `json:"id"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hub := transport.NewHub(transport.DefaultSendBuffer, logger)
	registry := lobby.NewRegistry(lobby.Options{Transport: hub, Logger: logger})
	s := NewServer(registry, lobby.NewQueue(registry), hub, logger)

	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts, s
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	c, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func write(t *testing.T, c *websocket.Conn, msg any) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

func readRaw(t *testing.T, c *websocket.Conn) []byte {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	return data
}

// readUntil reads frames until one of the given type arrives.
func readUntil(t *testing.T, c *websocket.Conn, kind string) frame {
	t.Helper()
	for i := 0; i < 20; i++ {
		var f frame
		require.NoError(t, json.Unmarshal(readRaw(t, c), &f))
		if f.Type == kind {
			return f
		}
	}
	t.Fatalf("no %s frame received", kind)
	return frame{}
}

func snapshotOf(t *testing.T, f frame) models.LobbyView {
	t.Helper()
	var view models.LobbyView
	require.NoError(t, json.Unmarshal(f.Data, &view))
	return view
}

func textOf(t *testing.T, f frame) string {
	t.Helper()
	var text string
	require.NoError(t, json.Unmarshal(f.Data, &text))
	return text
}

func TestGetUnknownLobbyReturnsEmptyObject(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/lobby/FFFF")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{}`, string(body))
}

func TestCreateLobbyThenFetch(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/createlobby/")
	require.NoError(t, err)
	var found models.PlayerFound
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&found))
	resp.Body.Close()
	assert.Len(t, found.LobbyToUse, 4)
	assert.Zero(t, found.OpponentsInLobby)

	resp, err = http.Get(ts.URL + "/api/lobby/" + found.LobbyToUse)
	require.NoError(t, err)
	var view models.LobbyView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, view.IsPrivate)

	resp, err = http.Get(ts.URL + "/api/lobbies")
	require.NoError(t, err)
	var views []models.LobbyView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&views))
	resp.Body.Close()
	require.Len(t, views, 1)
	assert.Equal(t, found.LobbyToUse, views[0].ID)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLobbySocketJoinAndRelay(t *testing.T) {
	ts, _ := newTestServer(t)

	ann := dial(t, ts, "/lobbies/ABCD")
	view := snapshotOf(t, readUntil(t, ann, models.KindLobbyUpdated))
	assert.Equal(t, "ABCD", view.ID)
	require.Len(t, view.Players, 1)
	assert.False(t, view.Players[0].Registered)

	// garbage is dropped without killing the connection
	require.NoError(t, ann.Write(context.Background(), websocket.MessageText, []byte("not json")))

	write(t, ann, map[string]any{"type": models.KindHello, "id": "ann-1", "name": "Ann"})
	assert.Equal(t, "Ann joined the lobby", textOf(t, readUntil(t, ann, models.KindChatMessage)))
	view = snapshotOf(t, readUntil(t, ann, models.KindLobbyUpdated))
	assert.True(t, view.Players[0].Registered)

	bo := dial(t, ts, "/lobbies/ABCD")
	assert.Len(t, snapshotOf(t, readUntil(t, bo, models.KindLobbyUpdated)).Players, 2)
	write(t, bo, map[string]any{"type": models.KindHello, "id": "bo-2", "name": "Bo"})

	assert.Equal(t, "Bo joined the lobby", textOf(t, readUntil(t, ann, models.KindChatMessage)))
	view = snapshotOf(t, readUntil(t, ann, models.KindLobbyUpdated))
	assert.Equal(t, 1, view.Players[1].PlayerNumber)
	relayed := readUntil(t, ann, models.KindHello)
	assert.Equal(t, "bo-2", relayed.ID)

	require.NoError(t, bo.Close(websocket.StatusNormalClosure, ""))
	assert.Equal(t, "Bo left the lobby", textOf(t, readUntil(t, ann, models.KindChatMessage)))
}

func TestLobbySocketRejectsFifthClient(t *testing.T) {
	ts, _ := newTestServer(t)
	for i := 0; i < lobby.MaxSeats; i++ {
		c := dial(t, ts, "/lobbies/FULL")
		readUntil(t, c, models.KindLobbyUpdated)
	}

	extra := dial(t, ts, "/lobbies/FULL")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := extra.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, LobbyFullError, websocket.CloseStatus(err))
}

func TestLobbySocketRejectsBadCode(t *testing.T) {
	ts, _ := newTestServer(t)
	c := dial(t, ts, "/lobbies/no-dashes")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, InvalidLobbyIDError, websocket.CloseStatus(err))
}

func TestMatchmakingPairsTwoClients(t *testing.T) {
	ts, s := newTestServer(t)

	a := dial(t, ts, "/searchingforplayers")
	b := dial(t, ts, "/searchingforplayers")
	write(t, a, map[string]string{})
	require.Eventually(t, func() bool { return len(s.Queue.Waiting()) == 1 }, 5*time.Second, 10*time.Millisecond)
	write(t, b, map[string]string{})

	var foundA, foundB models.PlayerFound
	require.NoError(t, json.Unmarshal(readRaw(t, a), &foundA))
	require.NoError(t, json.Unmarshal(readRaw(t, b), &foundB))
	assert.Equal(t, foundA.LobbyToUse, foundB.LobbyToUse)
	assert.Equal(t, 1, foundA.OpponentsInLobby)

	_, err := s.Registry.Lookup(foundA.LobbyToUse)
	assert.NoError(t, err)
}

func TestMatchmakingLeaveOnClose(t *testing.T) {
	ts, s := newTestServer(t)

	a := dial(t, ts, "/searchingforplayers")
	write(t, a, map[string]string{})
	require.Eventually(t, func() bool { return len(s.Queue.Waiting()) == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close(websocket.StatusNormalClosure, ""))
	require.Eventually(t, func() bool { return len(s.Queue.Waiting()) == 0 }, 5*time.Second, 10*time.Millisecond)
}
