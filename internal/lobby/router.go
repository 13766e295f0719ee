package lobby

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Router fans a serialized event out to a set of connections. Recipients the
// transport no longer reports alive are skipped; failed sends are logged and
// absorbed, never retried. Reaping dead members is left to the owner's
// cleanup pass.
type Router struct {
	transport Transport
	logger    *logrus.Entry
}

// NewRouter creates a Router on top of the given transport.
func NewRouter(t Transport, logger *logrus.Entry) *Router {
	return &Router{transport: t, logger: logger}
}

// Deliver sends payload to every live recipient and returns how many sends succeeded.
func (r *Router) Deliver(payload []byte, recipients []ConnID) int {
	sent := 0
	for _, id := range recipients {
		if !r.transport.IsAlive(id) {
			r.logger.WithField("conn", id).Debug("skipping dead recipient")
			continue
		}
		if err := r.transport.Send(id, payload); err != nil {
			r.logger.WithField("conn", id).Warnf("send failed: %v", err)
			continue
		}
		sent++
	}
	return sent
}

// DeliverJSON marshals msg and delivers it.
func (r *Router) DeliverJSON(msg any, recipients []ConnID) int {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Warnf("failed to marshal outgoing message: %v", err)
		return 0
	}
	return r.Deliver(data, recipients)
}
