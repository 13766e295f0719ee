package lobby

import "errors"

var (
	ErrLobbyNotFound   = errors.New("lobby not found")
	ErrLobbyInProgress = errors.New("lobby is in progress and its roster is final")
	ErrLobbyFull       = errors.New("lobby is full")
	// ErrLobbyEvicted is returned by AddClient when the sweeper removed the
	// lobby between lookup and join. Callers look the code up again.
	ErrLobbyEvicted = errors.New("lobby was evicted")
)
