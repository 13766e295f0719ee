package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event kinds. Any kind not listed here is relayed verbatim.
const (
	KindHello             = "Hello"
	KindStart             = "Start"
	KindGameReady         = "GameReady"
	KindReadyForNextRound = "ReadyForNextRound"
	KindBetChange         = "LobbyBetChange"
	KindRoundChange       = "LobbyRoundChange"
	KindCoins             = "MyCoins"
	KindDisconnect        = "Disconnect"
	KindCards             = "MyCards"
	KindDrawHold          = "DrawHoldPressed"
)

// Outbound message kinds.
const (
	KindLobbyUpdated = "LobbyUpdated"
	KindChatMessage  = "ChatMessage"
)

// SystemSender is the display name the server uses on its own messages.
const SystemSender = "System"

// ErrMissingType is returned when an envelope carries no "type" field.
var ErrMissingType = errors.New("envelope has no type")

// Envelope is the inbound message header every client frame carries.
type Envelope struct {
	Type  string          `json:"type"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Login string          `json:"login,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ParseEnvelope decodes a raw text frame.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, ErrMissingType
	}
	return env, nil
}

// IntData decodes the payload as an integer (bet, round count, coins).
func (e Envelope) IntData() (int, error) {
	if len(e.Data) == 0 {
		return 0, errors.New("missing data")
	}
	var v int
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return 0, fmt.Errorf("data is not an integer: %w", err)
	}
	return v, nil
}

// Message is the generic outbound frame, also used for stand-in events.
type Message struct {
	Type   string `json:"type"`
	Player string `json:"player"`
	ID     string `json:"id,omitempty"`
	Data   any    `json:"data"`
}

// NewLobbyUpdated wraps a lobby snapshot.
func NewLobbyUpdated(view LobbyView) Message {
	return Message{Type: KindLobbyUpdated, Player: SystemSender, Data: view}
}

// NewSystemNotice builds a chat line sent by the server.
func NewSystemNotice(text string) Message {
	return Message{Type: KindChatMessage, Player: SystemSender, Data: text}
}

// PlayerFound tells a searching client which lobby to join.
type PlayerFound struct {
	LobbyToUse       string `json:"lobbyToUse"`
	OpponentsInLobby int    `json:"opponentsInLobby"`
}
