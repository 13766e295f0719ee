package lobby

import (
	"github.com/google/uuid"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// ConnID is an opaque handle for one live transport connection. Two handles
// are equal only if they name the same connection.
type ConnID uuid.UUID

// NoConn excludes nobody when passed to Broadcast.
var NoConn ConnID

// NewConnID returns a fresh random handle.
func NewConnID() ConnID {
	return ConnID(uuid.New())
}

func (id ConnID) String() string {
	return uuid.UUID(id).String()
}

// Transport is the connection layer the core consumes. Send must not block
// on a slow peer.
type Transport interface {
	IsAlive(id ConnID) bool
	Send(id ConnID, payload []byte) error
	Close(id ConnID)
}

// ProfileResolver maps an opaque login token to a cosmetic color.
type ProfileResolver interface {
	ResolveColor(loginToken string) models.Color
}

// ActivitySink receives lobby lifecycle records. Publish must not block.
type ActivitySink interface {
	Publish(rec models.ActivityRecord)
}

type defaultProfiles struct{}

func (defaultProfiles) ResolveColor(string) models.Color { return models.DefaultColor }

type discardActivity struct{}

func (discardActivity) Publish(models.ActivityRecord) {}
