package lobby

import (
	"fmt"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// addStandInsUnsafe seats the configured bots next to the first human of the
// lobby. Bots only take seats that are still free.
func (l *Lobby) addStandInsUnsafe() {
	if l.env.standIns == 0 || len(l.standInsUnsafe()) > 0 {
		return
	}
	for i := 1; i <= l.env.standIns && len(l.players) < MaxSeats; i++ {
		l.players = append(l.players, &Player{
			Name:       fmt.Sprintf("Bot %d", i),
			ExternalID: fmt.Sprintf("Bot%d", i),
			LoginToken: fmt.Sprint(i),
			Seat:       len(l.players),
			Registered: true,
			Color:      models.DefaultColor,
			Coins:      StandInCoins,
			StandIn:    true,
		})
	}
}

func (l *Lobby) standInsUnsafe() []*Player {
	var bots []*Player
	for _, p := range l.players {
		if p.StandIn {
			bots = append(bots, p)
		}
	}
	return bots
}

// mirrorStandInsUnsafe makes every bot echo the human action of the given
// kind. The synthetic events go straight to the real players and never
// re-enter ApplyEvent.
func (l *Lobby) mirrorStandInsUnsafe(kind string) {
	for _, bot := range l.standInsUnsafe() {
		msg := models.Message{Type: kind, Player: bot.Name, ID: bot.ExternalID}
		switch kind {
		case models.KindCards:
			msg.Data = l.drawHand()
		case models.KindDrawHold, models.KindReadyForNextRound:
			msg.Data = ""
		default:
			return
		}
		l.broadcastJSONUnsafe(msg, NoConn)
	}
}

func (l *Lobby) drawHand() []models.CardType {
	hand := make([]models.CardType, models.HandSize)
	for i := range hand {
		hand[i] = models.CardType(l.env.random.IntRange(0, models.CardTypeCount))
	}
	return hand
}
