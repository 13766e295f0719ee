package lobby

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// Outcome describes what Enter did with a searching connection.
type Outcome int

const (
	// AlreadyQueued means the connection was waiting already; nothing changed.
	AlreadyQueued Outcome = iota
	// Redirected means the connection was sent to an existing open lobby.
	Redirected
	// Queued means the connection is waiting for an opponent.
	Queued
	// Paired means the two longest-waiting connections got a new lobby.
	Paired
)

func (o Outcome) String() string {
	switch o {
	case AlreadyQueued:
		return "already_queued"
	case Redirected:
		return "redirected"
	case Queued:
		return "queued"
	case Paired:
		return "paired"
	}
	return "unknown"
}

// Queue is the FIFO list of connections searching for an opponent.
type Queue struct {
	mu      sync.Mutex
	waiting []ConnID

	registry *Registry
	logger   *logrus.Entry
}

// NewQueue creates a matchmaking queue that places players into registry lobbies.
func NewQueue(registry *Registry) *Queue {
	return &Queue{
		registry: registry,
		logger:   registry.env.logger.WithField("component", "matchmaking"),
	}
}

// Enter handles a search request from id. An open public lobby always wins
// over queueing; otherwise the connection waits and the two oldest entries
// are paired into a fresh lobby as soon as there are two.
func (q *Queue) Enter(id ConnID) Outcome {
	q.mu.Lock()
	q.pruneUnsafe()
	if q.indexUnsafe(id) >= 0 {
		q.mu.Unlock()
		return AlreadyQueued
	}
	q.mu.Unlock()

	if code, count, ok := q.registry.FindOpenPublic(); ok {
		q.reply(id, code, count)
		q.logger.WithFields(logrus.Fields{"conn": id, "lobby": code}).Info("redirected to open lobby")
		return Redirected
	}

	q.mu.Lock()
	if q.indexUnsafe(id) < 0 {
		q.waiting = append(q.waiting, id)
	}
	if len(q.waiting) < 2 {
		q.mu.Unlock()
		return Queued
	}
	pair := []ConnID{q.waiting[0], q.waiting[1]}
	q.waiting = append([]ConnID(nil), q.waiting[2:]...)
	stillQueued := q.indexUnsafe(id) >= 0
	q.mu.Unlock()

	code := q.registry.CreatePublic()
	for _, c := range pair {
		q.reply(c, code, 1)
	}
	q.registry.env.activity.Publish(models.ActivityRecord{
		Kind:      models.ActivityMatchFound,
		LobbyCode: code,
		Players:   len(pair),
		Timestamp: q.registry.env.clock.Now(),
	})
	q.logger.WithField("lobby", code).Info("paired searching players")
	if stillQueued {
		return Queued
	}
	return Paired
}

// Leave drops id from the queue, e.g. when its connection closes.
func (q *Queue) Leave(id ConnID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexUnsafe(id); i >= 0 {
		q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
	}
}

// Waiting returns the queued connections, oldest first.
func (q *Queue) Waiting() []ConnID {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]ConnID(nil), q.waiting...)
}

// pruneUnsafe drops queued connections that are no longer alive.
func (q *Queue) pruneUnsafe() {
	kept := q.waiting[:0]
	for _, id := range q.waiting {
		if q.registry.env.transport.IsAlive(id) {
			kept = append(kept, id)
		}
	}
	q.waiting = kept
}

func (q *Queue) indexUnsafe(id ConnID) int {
	for i, c := range q.waiting {
		if c == id {
			return i
		}
	}
	return -1
}

func (q *Queue) reply(id ConnID, code string, opponents int) {
	q.registry.env.router.DeliverJSON(models.PlayerFound{
		LobbyToUse:       code,
		OpponentsInLobby: opponents,
	}, []ConnID{id})
}
