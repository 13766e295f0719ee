package models

import "time"

// Activity kinds published to the activity queue.
const (
	ActivityLobbyCreated = "lobby_created"
	ActivityLobbyEvicted = "lobby_evicted"
	ActivityEvent        = "event_applied"
	ActivityMatchFound   = "match_found"
)

// ActivityRecord holds the minimal info an external consumer needs to follow
// lobby lifecycles.
type ActivityRecord struct {
	Kind       string    `json:"kind"`
	LobbyCode  string    `json:"lobby_code"`
	EventType  string    `json:"event_type,omitempty"`
	ExternalID string    `json:"external_id,omitempty"`
	Players    int       `json:"players"`
	Timestamp  time.Time `json:"timestamp"`
}
