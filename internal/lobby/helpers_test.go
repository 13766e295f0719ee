package lobby

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jason-s-yu/picturepoker/internal/dependencies/mocks"
	"github.com/jason-s-yu/picturepoker/internal/models"
)

var errConnClosed = errors.New("connection closed")

// fakeTransport records every payload sent to a connection.
type fakeTransport struct {
	mu     sync.Mutex
	alive  map[ConnID]bool
	closed map[ConnID]bool
	sent   map[ConnID][][]byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		alive:  make(map[ConnID]bool),
		closed: make(map[ConnID]bool),
		sent:   make(map[ConnID][][]byte),
	}
}

func (f *fakeTransport) connect() ConnID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := NewConnID()
	f.alive[id] = true
	return id
}

// drop simulates the peer going away without the server closing it.
func (f *fakeTransport) drop(id ConnID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[id] = false
}

func (f *fakeTransport) IsAlive(id ConnID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[id]
}

func (f *fakeTransport) Send(id ConnID, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.alive[id] {
		return errConnClosed
	}
	f.sent[id] = append(f.sent[id], append([]byte(nil), payload...))
	return nil
}

func (f *fakeTransport) Close(id ConnID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[id] = false
	f.closed[id] = true
}

func (f *fakeTransport) wasClosed(id ConnID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed[id]
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = make(map[ConnID][][]byte)
}

func (f *fakeTransport) raw(id ConnID) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent[id]...)
}

type frame struct {
	Type   string          `json:"type"`
	Player string          `json:"player"`
	ID     string          `json:"id"`
	Data   json.RawMessage `json:"data"`
}

func (f *fakeTransport) frames(t *testing.T, id ConnID) []frame {
	t.Helper()
	var out []frame
	for _, payload := range f.raw(id) {
		var fr frame
		require.NoError(t, json.Unmarshal(payload, &fr))
		out = append(out, fr)
	}
	return out
}

func (f *fakeTransport) framesOfType(t *testing.T, id ConnID, kind string) []frame {
	t.Helper()
	var out []frame
	for _, fr := range f.frames(t, id) {
		if fr.Type == kind {
			out = append(out, fr)
		}
	}
	return out
}

// notices returns the text of every system chat line sent to id.
func (f *fakeTransport) notices(t *testing.T, id ConnID) []string {
	t.Helper()
	var out []string
	for _, fr := range f.framesOfType(t, id, models.KindChatMessage) {
		if fr.Player != models.SystemSender {
			continue
		}
		var text string
		require.NoError(t, json.Unmarshal(fr.Data, &text))
		out = append(out, text)
	}
	return out
}

// lastSnapshot decodes the most recent LobbyUpdated sent to id.
func (f *fakeTransport) lastSnapshot(t *testing.T, id ConnID) models.LobbyView {
	t.Helper()
	updates := f.framesOfType(t, id, models.KindLobbyUpdated)
	require.NotEmpty(t, updates, "no LobbyUpdated sent to %s", id)
	var view models.LobbyView
	require.NoError(t, json.Unmarshal(updates[len(updates)-1].Data, &view))
	return view
}

type fixture struct {
	registry  *Registry
	transport *fakeTransport
	clock     *mocks.MockClock
}

func newFixture(t *testing.T, mutate func(*Options)) *fixture {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tr := newFakeTransport()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	opts := Options{
		Transport: tr,
		Clock:     clk,
		Logger:    logger,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &fixture{registry: NewRegistry(opts), transport: tr, clock: clk}
}

// join connects a new client to the lobby bound to code.
func (fx *fixture) join(t *testing.T, code string) (*Lobby, ConnID) {
	t.Helper()
	id := fx.transport.connect()
	l, err := fx.registry.Join(code, id)
	require.NoError(t, err)
	return l, id
}

// send delivers a client frame to the lobby the way the read loop does.
func send(t *testing.T, l *Lobby, from ConnID, msg map[string]any) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	ev, err := models.ParseEnvelope(raw)
	require.NoError(t, err)
	l.ApplyEvent(ev, raw, from)
}

func hello(t *testing.T, l *Lobby, from ConnID, id, name string) {
	t.Helper()
	send(t, l, from, map[string]any{"type": models.KindHello, "id": id, "name": name})
}

func seatsByID(view models.LobbyView) map[string]int {
	seats := make(map[string]int)
	for _, p := range view.Players {
		if p.Registered {
			seats[p.ID] = p.PlayerNumber
		}
	}
	return seats
}
