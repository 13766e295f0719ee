// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the lobby and matchmaking handlers.
// These provide more specific reasons for closure than standard codes.
const (
	InvalidLobbyIDError  websocket.StatusCode = 3003 // Lobby code in the WS URL is malformed.
	LobbyInProgressError websocket.StatusCode = 3004 // Game started and every expected player is back.
	LobbyFullError       websocket.StatusCode = 3005 // All seats are taken.
)
