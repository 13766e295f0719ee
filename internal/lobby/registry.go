// internal/lobby/registry.go
package lobby

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/models"
)

// Registry owns every live lobby, keyed by its join code.
// Its lock is only held for lookups and inserts, never across a broadcast.
type Registry struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
	// retired remembers private codes evicted while idle so a rejoin through
	// an invite link does not surface the lobby in matchmaking.
	retired map[string]bool

	env    *env
	logger *logrus.Entry
}

// NewRegistry initializes and returns an empty Registry.
func NewRegistry(opts Options) *Registry {
	e := newEnv(opts)
	return &Registry{
		lobbies: make(map[string]*Lobby),
		retired: make(map[string]bool),
		env:     e,
		logger:  e.logger.WithField("component", "registry"),
	}
}

// GetOrCreate returns the lobby bound to code, creating a public one if the
// code is unused. A code whose private lobby was evicted comes back private.
func (r *Registry) GetOrCreate(code string) *Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.lobbies[code]; ok {
		return l
	}
	return r.createUnsafe(code, r.retired[code])
}

// Get retrieves a lobby by code.
func (r *Registry) Get(code string) (*Lobby, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lobbies[code]
	return l, ok
}

// Join admits a connection to the lobby bound to code, creating the lobby if
// needed. A lobby evicted between lookup and admission is looked up again.
func (r *Registry) Join(code string, id ConnID) (*Lobby, error) {
	for {
		l := r.GetOrCreate(code)
		err := l.AddClient(id)
		if errors.Is(err, ErrLobbyEvicted) {
			continue
		}
		return l, err
	}
}

// CreatePrivate creates a lobby under a fresh code, hidden from matchmaking.
func (r *Registry) CreatePrivate() string {
	return r.create(true)
}

// CreatePublic creates a matchmaking lobby under a fresh code.
func (r *Registry) CreatePublic() string {
	return r.create(false)
}

func (r *Registry) create(private bool) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	code := r.unusedCodeUnsafe()
	r.createUnsafe(code, private)
	return code
}

func (r *Registry) createUnsafe(code string, private bool) *Lobby {
	l := newLobby(code, private, r.env)
	r.lobbies[code] = l
	delete(r.retired, code)
	r.logger.WithFields(logrus.Fields{"lobby": code, "private": private}).Info("lobby created")
	r.env.activity.Publish(models.ActivityRecord{
		Kind:      models.ActivityLobbyCreated,
		LobbyCode: code,
		Timestamp: l.createdAt,
	})
	return l
}

// unusedCodeUnsafe draws four hex digits until it finds a free code.
func (r *Registry) unusedCodeUnsafe() string {
	for {
		code := fmt.Sprintf("%X", r.env.random.IntRange(0x1000, 0xFFFF))
		if _, taken := r.lobbies[code]; !taken {
			return code
		}
	}
}

// Sweep cleans every lobby, then evicts the ones that are empty and idle
// past the configured timeout. It returns the number of evicted lobbies.
func (r *Registry) Sweep() int {
	for _, l := range r.all() {
		l.CleanLobby()
	}

	now := r.env.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for code, l := range r.lobbies {
		if !l.evictIfIdle(now, r.env.idleTimeout) {
			continue
		}
		delete(r.lobbies, code)
		if l.isPrivate {
			r.retired[code] = true
		}
		evicted++
		r.logger.WithField("lobby", code).Info("idle lobby evicted")
		r.env.activity.Publish(models.ActivityRecord{
			Kind:      models.ActivityLobbyEvicted,
			LobbyCode: code,
			Timestamp: now,
		})
	}
	return evicted
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debugf("sweep evicted %d lobbies", n)
			}
		}
	}
}

// List sweeps, then returns a snapshot of every lobby ordered by code.
func (r *Registry) List() []models.LobbyView {
	r.Sweep()
	lobbies := r.all()
	views := make([]models.LobbyView, 0, len(lobbies))
	for _, l := range lobbies {
		views = append(views, l.Snapshot())
	}
	return views
}

// Lookup sweeps, then returns the snapshot of one lobby.
func (r *Registry) Lookup(code string) (models.LobbyView, error) {
	r.Sweep()
	l, ok := r.Get(code)
	if !ok {
		return models.LobbyView{}, ErrLobbyNotFound
	}
	return l.Snapshot(), nil
}

// FindOpenPublic returns a public lobby that has not started and seats two
// or three registered players. The fullest lobby wins; ties go to the oldest.
func (r *Registry) FindOpenPublic() (string, int, bool) {
	var (
		best      *Lobby
		bestCount int
	)
	for _, l := range r.all() {
		n, open := l.openForMatchmaking()
		if !open {
			continue
		}
		if best == nil || n > bestCount || (n == bestCount && l.createdAt.Before(best.createdAt)) {
			best, bestCount = l, n
		}
	}
	if best == nil {
		return "", 0, false
	}
	return best.Code, bestCount, true
}

// Len returns the number of live lobbies.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}

// all returns the lobbies ordered by code. Returning a copy lets callers
// take lobby locks without holding the registry lock.
func (r *Registry) all() []*Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()
	lobbies := make([]*Lobby, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		lobbies = append(lobbies, l)
	}
	sort.Slice(lobbies, func(i, j int) bool { return lobbies[i].Code < lobbies[j].Code })
	return lobbies
}
