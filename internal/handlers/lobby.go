// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/models"
)

// ListLobbiesHandler returns every live lobby after a cleanup sweep.
func (s *Server) ListLobbiesHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.List())
}

// GetLobbyHandler returns one lobby, or 404 with an empty object.
func (s *Server) GetLobbyHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	view, err := s.Registry.Lookup(code)
	if errors.Is(err, lobby.ErrLobbyNotFound) {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	if err != nil {
		s.Logger.Warnf("lookup of lobby %s failed: %v", code, err)
		writeJSON(w, http.StatusInternalServerError, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateLobbyHandler creates a private lobby and answers with its code in
// the same shape matchmaking uses.
func (s *Server) CreateLobbyHandler(w http.ResponseWriter, r *http.Request) {
	code := s.Registry.CreatePrivate()
	writeJSON(w, http.StatusOK, models.PlayerFound{LobbyToUse: code})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
