// internal/handlers/matchmaking_ws.go
package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/middleware"
)

// MatchmakingWSHandler keeps a searching client's socket open. Every frame
// the client sends is a search request; the reply names the lobby to join.
func (s *Server) MatchmakingWSHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	conn := s.Hub.Register(r.Context(), r.RemoteAddr)
	defer s.Hub.Unregister(conn.ID)
	logger := s.Logger.WithFields(logrus.Fields{"conn": conn.ID, "component": "matchmaking"})
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	go s.writePump(c, conn, logger)
	err = readPump(conn.Context(), c, logger, func([]byte) {
		outcome := s.Queue.Enter(conn.ID)
		logger.WithField("outcome", outcome).Debug("search request handled")
	})

	s.Queue.Leave(conn.ID)
	s.Hub.Close(conn.ID)
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "")
}
