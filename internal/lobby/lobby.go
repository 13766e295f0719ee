// internal/lobby/lobby.go
package lobby

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// Lobby is a named group of connected players sharing one game session.
//
// Every exported method takes the lobby's mutex. Methods with the Unsafe
// suffix assume the caller already holds it.
type Lobby struct {
	Code string

	mu sync.Mutex

	// players is kept in join order.
	players []*Player
	// seats maps seat key -> seat and is threaded through AssignSeats.
	seats map[string]int

	host          string
	isPrivate     bool
	inProgress    bool
	currentRound  int
	roundCount    int
	betMultiplier int

	// expectedPlayers is the registered count captured at Start (0 = unset).
	// rosterFinal flips once that count is reached again; from then on joins
	// are refused and readiness ignores the expected size.
	expectedPlayers int
	rosterFinal     bool

	lastActivity time.Time
	createdAt    time.Time
	evicted      bool

	env    *env
	logger *logrus.Entry
}

func newLobby(code string, private bool, e *env) *Lobby {
	now := e.clock.Now()
	return &Lobby{
		Code:          code,
		seats:         make(map[string]int),
		isPrivate:     private,
		roundCount:    DefaultRoundCount,
		betMultiplier: DefaultBetMultiplier,
		lastActivity:  now,
		createdAt:     now,
		env:           e,
		logger:        e.logger.WithField("lobby", code),
	}
}

// AddClient admits a connection as a new, unregistered player and sends it a
// full snapshot. Adding a connection that is already a member is a no-op.
// A connection arriving after the roster was finalized, or to a full table,
// is closed and an error is returned.
func (l *Lobby) AddClient(id ConnID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.evicted {
		return ErrLobbyEvicted
	}
	if l.playerByConnUnsafe(id) != nil {
		return nil
	}
	if l.inProgress && l.rosterFinal {
		l.logger.WithField("conn", id).Info("rejecting join, game in progress")
		l.env.transport.Close(id)
		return ErrLobbyInProgress
	}
	if len(l.players) >= MaxSeats {
		l.logger.WithField("conn", id).Info("rejecting join, lobby full")
		l.env.transport.Close(id)
		return ErrLobbyFull
	}

	l.players = append(l.players, &Player{Conn: id, Color: models.DefaultColor})
	l.lastActivity = l.env.clock.Now()
	l.addStandInsUnsafe()
	l.logger.WithField("conn", id).Debug("client admitted")

	l.env.router.DeliverJSON(models.NewLobbyUpdated(l.snapshotUnsafe()), []ConnID{id})
	return nil
}

// ApplyEvent applies one inbound message from source. raw is the original
// frame, relayed verbatim to the other members once the lobby has reacted.
func (l *Lobby) ApplyEvent(ev models.Envelope, raw []byte, source ConnID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.playerByConnUnsafe(source)
	if p == nil {
		return
	}
	l.lastActivity = l.env.clock.Now()

	newJoin := ev.ID != "" && ev.ID != p.ExternalID
	if ev.Name != "" {
		p.Name = ev.Name
	}
	if ev.ID != "" {
		p.ExternalID = ev.ID
	}
	p.Registered = true
	if l.host == "" && p.ExternalID != "" {
		l.host = p.ExternalID
	}
	if ev.Login != "" {
		p.LoginToken = ev.Login
		p.Color = l.env.profiles.ResolveColor(ev.Login)
	}

	l.settleRosterUnsafe()
	l.dispatchUnsafe(ev, p)
	l.advanceRoundUnsafe()
	l.reseatUnsafe()

	l.env.activity.Publish(models.ActivityRecord{
		Kind:       models.ActivityEvent,
		LobbyCode:  l.Code,
		EventType:  ev.Type,
		ExternalID: p.ExternalID,
		Players:    len(l.players),
		Timestamp:  l.lastActivity,
	})

	if ev.Type == models.KindDisconnect {
		l.env.transport.Close(source)
		l.cleanUnsafe()
		return
	}

	if newJoin {
		l.broadcastJSONUnsafe(models.NewSystemNotice(p.Name+" joined the lobby"), NoConn)
	}
	l.mirrorStandInsUnsafe(ev.Type)
	l.broadcastJSONUnsafe(models.NewLobbyUpdated(l.snapshotUnsafe()), NoConn)
	if relay := relayFrame(ev, raw); len(relay) > 0 {
		l.broadcastUnsafe(relay, source)
	}
}

// relayFrame returns the frame forwarded to the other members. The login
// token is stripped from it.
func relayFrame(ev models.Envelope, raw []byte) []byte {
	if len(raw) == 0 || ev.Login == "" {
		return raw
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	delete(fields, "login")
	out, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return out
}

// isHostUnsafe reports whether p may change the lobby settings. Nobody is
// host until a player has registered with an id.
func (l *Lobby) isHostUnsafe(p *Player) bool {
	return l.host != "" && p.ExternalID == l.host
}

// dispatchUnsafe applies the per-kind effect of an event.
func (l *Lobby) dispatchUnsafe(ev models.Envelope, p *Player) {
	log := l.logger.WithFields(logrus.Fields{"type": ev.Type, "player": p.ExternalID})

	switch ev.Type {
	case models.KindStart:
		if l.inProgress {
			log.Debug("ignoring start, already in progress")
			return
		}
		l.inProgress = true
		l.expectedPlayers = l.registeredCountUnsafe()
		l.rosterFinal = false
		log.Infof("game started with %d players", l.expectedPlayers)
	case models.KindGameReady:
		p.InRound = true
		for _, bot := range l.standInsUnsafe() {
			bot.InRound = true
		}
	case models.KindReadyForNextRound:
		p.ReadyForNextRound = true
		for _, bot := range l.standInsUnsafe() {
			bot.ReadyForNextRound = true
		}
	case models.KindBetChange:
		if !l.isHostUnsafe(p) {
			return
		}
		bet, err := ev.IntData()
		if err != nil {
			log.Warnf("ignoring bet change: %v", err)
			return
		}
		l.betMultiplier = bet
	case models.KindRoundChange:
		if !l.isHostUnsafe(p) {
			return
		}
		rounds, err := ev.IntData()
		if err != nil {
			log.Warnf("ignoring round change: %v", err)
			return
		}
		l.roundCount = rounds
	case models.KindCoins:
		coins, err := ev.IntData()
		if err != nil {
			log.Warnf("ignoring coins report: %v", err)
			return
		}
		p.Coins = coins
	}
}

// settleRosterUnsafe finalizes the roster once every expected player is back.
func (l *Lobby) settleRosterUnsafe() {
	if l.inProgress && !l.rosterFinal && l.expectedPlayers > 0 &&
		l.registeredCountUnsafe() == l.expectedPlayers {
		l.rosterFinal = true
	}
}

// advanceRoundUnsafe moves to the next round when every registered player is
// ready and the roster is complete. It reports whether the round advanced.
func (l *Lobby) advanceRoundUnsafe() bool {
	registered := 0
	for _, p := range l.players {
		if !p.Registered {
			continue
		}
		if !p.ReadyForNextRound {
			return false
		}
		registered++
	}
	if registered == 0 {
		return false
	}
	if l.expectedPlayers > 0 && !l.rosterFinal && registered != l.expectedPlayers {
		return false
	}

	for _, p := range l.players {
		p.ReadyForNextRound = false
	}
	l.currentRound++
	if l.env.randomizeBet {
		l.betMultiplier = l.env.random.IntRange(1, l.env.maxBet+1)
	}
	l.logger.WithField("round", l.currentRound).Info("round advanced")
	return true
}

// Broadcast cleans the lobby, then sends payload to every member except
// exclude. Pass NoConn to exclude nobody.
func (l *Lobby) Broadcast(payload []byte, exclude ConnID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.broadcastUnsafe(payload, exclude)
}

func (l *Lobby) broadcastUnsafe(payload []byte, exclude ConnID) {
	l.cleanUnsafe()
	l.sendAllUnsafe(payload, exclude)
}

func (l *Lobby) broadcastJSONUnsafe(msg any, exclude ConnID) {
	data, err := json.Marshal(msg)
	if err != nil {
		l.logger.Warnf("failed to marshal broadcast: %v", err)
		return
	}
	l.broadcastUnsafe(data, exclude)
}

// sendAllUnsafe fans out without cleaning first.
func (l *Lobby) sendAllUnsafe(payload []byte, exclude ConnID) {
	recipients := make([]ConnID, 0, len(l.players))
	for _, p := range l.players {
		if p.StandIn || p.Conn == exclude {
			continue
		}
		recipients = append(recipients, p.Conn)
	}
	l.env.router.Deliver(payload, recipients)
}

// CleanLobby removes every player whose connection the transport reports
// closed, announcing each named departure to the remaining members.
func (l *Lobby) CleanLobby() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cleanUnsafe()
}

func (l *Lobby) cleanUnsafe() {
	for {
		var departed []string
		kept := make([]*Player, 0, len(l.players))
		for _, p := range l.players {
			if p.StandIn || l.env.transport.IsAlive(p.Conn) {
				kept = append(kept, p)
				continue
			}
			l.env.transport.Close(p.Conn)
			l.logger.WithFields(logrus.Fields{"conn": p.Conn, "player": p.ExternalID}).Info("player left")
			if p.Name != "" {
				departed = append(departed, p.Name)
			}
		}
		if len(kept) == len(l.players) {
			break
		}
		l.players = kept
		if l.humanCountUnsafe() == 0 {
			l.players = nil
		}
		l.reseatUnsafe()
		l.advanceRoundUnsafe()

		for _, name := range departed {
			l.sendAllJSONUnsafe(models.NewSystemNotice(name + " left the lobby"))
			l.sendAllJSONUnsafe(models.NewLobbyUpdated(l.snapshotUnsafe()))
		}
	}
	l.reseatUnsafe()
}

func (l *Lobby) sendAllJSONUnsafe(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		l.logger.Warnf("failed to marshal broadcast: %v", err)
		return
	}
	l.sendAllUnsafe(data, NoConn)
}

// reseatUnsafe recomputes seats after any membership or registration change.
// Stand-ins keep their provisional seat until a human has registered.
func (l *Lobby) reseatUnsafe() {
	registered := make([]string, 0, len(l.players))
	humans := 0
	for _, p := range l.players {
		if !p.Registered {
			continue
		}
		registered = append(registered, p.seatKey())
		if !p.StandIn {
			humans++
		}
	}
	if humans == 0 {
		l.seats = make(map[string]int)
		return
	}
	l.seats = AssignSeats(registered, l.seats)
	for _, p := range l.players {
		if seat, ok := l.seats[p.seatKey()]; ok && p.Registered {
			p.Seat = seat
		}
	}
}

func (l *Lobby) playerByConnUnsafe(id ConnID) *Player {
	for _, p := range l.players {
		if !p.StandIn && p.Conn == id {
			return p
		}
	}
	return nil
}

func (l *Lobby) registeredCountUnsafe() int {
	n := 0
	for _, p := range l.players {
		if p.Registered {
			n++
		}
	}
	return n
}

func (l *Lobby) humanCountUnsafe() int {
	n := 0
	for _, p := range l.players {
		if !p.StandIn {
			n++
		}
	}
	return n
}

func (l *Lobby) snapshotUnsafe() models.LobbyView {
	expected := l.expectedPlayers
	if l.rosterFinal {
		expected = -1
	}
	players := make([]models.PlayerView, 0, len(l.players))
	for _, p := range l.players {
		players = append(players, p.view())
	}
	return models.LobbyView{
		ID:              l.Code,
		Players:         players,
		Host:            l.host,
		BetMultiplier:   l.betMultiplier,
		IsPrivate:       l.isPrivate,
		InProgress:      l.inProgress,
		CurrentRound:    l.currentRound,
		RoundCount:      l.roundCount,
		PlayersExpected: expected,
		LastActivity:    l.lastActivity,
	}
}

// Snapshot returns the lobby's current state.
func (l *Lobby) Snapshot() models.LobbyView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotUnsafe()
}

// RegisteredCount returns the number of registered players, stand-ins included.
func (l *Lobby) RegisteredCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registeredCountUnsafe()
}

// MemberCount returns the size of the membership list.
func (l *Lobby) MemberCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.players)
}

// openForMatchmaking reports whether searching clients may be sent here and
// how many registered players they would meet.
func (l *Lobby) openForMatchmaking() (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.registeredCountUnsafe()
	return n, !l.evicted && !l.isPrivate && !l.inProgress && n > 1 && n < MaxSeats
}

// evictIfIdle marks the lobby evicted when it has no players and has been
// idle longer than timeout.
func (l *Lobby) evictIfIdle(now time.Time, timeout time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.players) > 0 || now.Sub(l.lastActivity) <= timeout {
		return false
	}
	l.evicted = true
	return true
}

func (l *Lobby) String() string {
	return fmt.Sprintf("Lobby(%s)", l.Code)
}
