package lobby

import "github.com/jason-s-yu/picturepoker/internal/models"

// Player is one member of a lobby. Fields are guarded by the owning lobby's lock.
type Player struct {
	Name       string
	ExternalID string
	LoginToken string
	Seat       int
	Registered bool
	Color      models.Color

	InRound           bool
	ReadyForNextRound bool
	Coins             int

	// StandIn players have no connection, are never send targets and are
	// never pruned by cleanup.
	StandIn bool
	Conn    ConnID
}

func (p *Player) view() models.PlayerView {
	return models.PlayerView{
		Name:              p.Name,
		ID:                p.ExternalID,
		PlayerNumber:      p.Seat,
		Registered:        p.Registered,
		Color:             p.Color,
		InGame:            p.InRound,
		IsServerBot:       p.StandIn,
		Coins:             p.Coins,
		ReadyForNextRound: p.ReadyForNextRound,
	}
}

// seatKey identifies the player's seat. Players without an id each get a
// seat of their own.
func (p *Player) seatKey() string {
	if p.ExternalID != "" {
		return p.ExternalID
	}
	return "conn:" + p.Conn.String()
}
