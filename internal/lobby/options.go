package lobby

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/dependencies/clock"
	"github.com/jason-s-yu/picturepoker/internal/dependencies/random"
)

// Defaults mirror the values the game client was built against.
const (
	DefaultIdleTimeout   = 30 * time.Second
	DefaultRoundCount    = 5
	DefaultBetMultiplier = 1
	DefaultMaxBet        = 5
	StandInCoins         = 30
)

// Options configures a Registry and every lobby it creates.
type Options struct {
	Transport Transport
	Profiles  ProfileResolver
	Activity  ActivitySink
	Clock     clock.Clock
	Random    random.Random
	Logger    *logrus.Logger

	// IdleTimeout is how long an empty lobby survives before a sweep evicts it.
	IdleTimeout time.Duration
	// StandIns is the number of bots added next to the first human of a lobby.
	StandIns int
	// RandomizeBet re-rolls the bet multiplier in [1, MaxBet] whenever a round advances.
	RandomizeBet bool
	MaxBet       int
}

// env is the set of collaborators shared by a registry, its lobbies and the queue.
type env struct {
	transport Transport
	router    *Router
	profiles  ProfileResolver
	activity  ActivitySink
	clock     clock.Clock
	random    random.Random
	logger    *logrus.Logger

	idleTimeout  time.Duration
	standIns     int
	randomizeBet bool
	maxBet       int
}

func newEnv(opts Options) *env {
	e := &env{
		transport:    opts.Transport,
		profiles:     opts.Profiles,
		activity:     opts.Activity,
		clock:        opts.Clock,
		random:       opts.Random,
		logger:       opts.Logger,
		idleTimeout:  opts.IdleTimeout,
		standIns:     opts.StandIns,
		randomizeBet: opts.RandomizeBet,
		maxBet:       opts.MaxBet,
	}
	if e.profiles == nil {
		e.profiles = defaultProfiles{}
	}
	if e.activity == nil {
		e.activity = discardActivity{}
	}
	if e.clock == nil {
		e.clock = clock.System{}
	}
	if e.random == nil {
		e.random = random.New()
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	if e.idleTimeout <= 0 {
		e.idleTimeout = DefaultIdleTimeout
	}
	if e.maxBet < 1 {
		e.maxBet = DefaultMaxBet
	}
	if e.standIns < 0 {
		e.standIns = 0
	}
	e.router = NewRouter(e.transport, e.logger.WithField("component", "router"))
	return e
}
