// internal/handlers/server.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/middleware"
	"github.com/jason-s-yu/picturepoker/internal/transport"
)

// DefaultPingInterval is how often the write pump pings an idle client.
const DefaultPingInterval = 30 * time.Second

// Server holds the state shared by the HTTP and websocket handlers.
type Server struct {
	Registry *lobby.Registry
	Queue    *lobby.Queue
	Hub      *transport.Hub
	Logger   *logrus.Logger

	PingInterval time.Duration
}

// NewServer wires the handlers to a registry, its matchmaking queue and the
// connection hub that backs the registry's transport.
func NewServer(registry *lobby.Registry, queue *lobby.Queue, hub *transport.Hub, logger *logrus.Logger) *Server {
	return &Server{
		Registry:     registry,
		Queue:        queue,
		Hub:          hub,
		Logger:       logger,
		PingInterval: DefaultPingInterval,
	}
}

// Routes builds the route table.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(s.Logger))
	r.Use(middleware.LogMiddleware(s.Logger))

	// websocket endpoints
	r.HandleFunc("/lobbies/{code}", s.LobbyWSHandler)
	r.HandleFunc("/searchingforplayers", s.MatchmakingWSHandler)

	// discovery
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/lobbies", s.ListLobbiesHandler).Methods(http.MethodGet)
	api.HandleFunc("/lobby/{code}", s.GetLobbyHandler).Methods(http.MethodGet)
	api.HandleFunc("/createlobby", s.CreateLobbyHandler).Methods(http.MethodGet, http.MethodPost)
	api.HandleFunc("/createlobby/", s.CreateLobbyHandler).Methods(http.MethodGet, http.MethodPost)

	r.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)
	return r
}
