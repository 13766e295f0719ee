package models

import "time"

// LobbyView is the serialized snapshot of a lobby broadcast in LobbyUpdated
// and returned by the discovery routes.
type LobbyView struct {
	ID              string       `json:"id"`
	Players         []PlayerView `json:"players"`
	Host            string       `json:"host"`
	BetMultiplier   int          `json:"betMultiplier"`
	IsPrivate       bool         `json:"isPrivate"`
	InProgress      bool         `json:"inProgress"`
	CurrentRound    int          `json:"currentRound"`
	RoundCount      int          `json:"roundCount"`
	PlayersExpected int          `json:"playersExpected"`
	LastActivity    time.Time    `json:"lastActivity"`
}

// PlayerView is one member of a LobbyView.
type PlayerView struct {
	Name              string `json:"name"`
	ID                string `json:"id"`
	PlayerNumber      int    `json:"playerNumber"`
	Registered        bool   `json:"registered"`
	Color             Color  `json:"color"`
	InGame            bool   `json:"inGame"`
	IsServerBot       bool   `json:"isServerBot"`
	Coins             int    `json:"coins"`
	ReadyForNextRound bool   `json:"readyForNextRound"`
}
