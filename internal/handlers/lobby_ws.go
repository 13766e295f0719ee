// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/picturepoker/internal/lobby"
	"github.com/jason-s-yu/picturepoker/internal/middleware"
	"github.com/jason-s-yu/picturepoker/internal/models"
	"github.com/jason-s-yu/picturepoker/internal/transport"
)

var lobbyCodePattern = regexp.MustCompile(`^[0-9A-Za-z]{1,16}$`)

// LobbyWSHandler joins the connecting client to the lobby named in the URL,
// creating the lobby on first use, then pumps frames until the socket closes.
func (s *Server) LobbyWSHandler(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // game clients are not browsers
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if !lobbyCodePattern.MatchString(code) {
		c.Close(InvalidLobbyIDError, "invalid lobby code")
		return
	}

	conn := s.Hub.Register(r.Context(), r.RemoteAddr)
	defer s.Hub.Unregister(conn.ID)
	logger := s.Logger.WithFields(logrus.Fields{"lobby": code, "conn": conn.ID})

	lob, err := s.Registry.Join(code, conn.ID)
	switch {
	case errors.Is(err, lobby.ErrLobbyInProgress):
		c.Close(LobbyInProgressError, "game already in progress")
		return
	case errors.Is(err, lobby.ErrLobbyFull):
		c.Close(LobbyFullError, "lobby is full")
		return
	case err != nil:
		logger.Warnf("join failed: %v", err)
		c.Close(websocket.StatusInternalError, "join failed")
		return
	}
	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path)

	go s.writePump(c, conn, logger)
	err = readPump(conn.Context(), c, logger, func(raw []byte) {
		ev, err := models.ParseEnvelope(raw)
		if err != nil {
			logger.Warnf("dropping malformed frame: %v", err)
			return
		}
		lob.ApplyEvent(ev, raw, conn.ID)
	})

	s.Hub.Close(conn.ID)
	lob.CleanLobby()
	middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
	c.Close(websocket.StatusNormalClosure, "")
}

// readPump hands every text frame to handle until the socket or ctx closes.
// A normal close returns nil.
func readPump(ctx context.Context, c *websocket.Conn, logger *logrus.Entry, handle func(raw []byte)) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.Warnf("ignoring non-text frame of type %d", typ)
			continue
		}
		handle(msg)
	}
}

// writePump drains the connection's queue onto the socket and pings on a
// ticker. Any write failure closes the connection through the hub.
func (s *Server) writePump(c *websocket.Conn, conn *transport.Conn, logger *logrus.Entry) {
	ticker := time.NewTicker(s.PingInterval)
	defer ticker.Stop()
	defer s.Hub.Close(conn.ID)

	ctx := conn.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-conn.OutChan:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				logger.Warnf("failed to write to websocket: %v", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("ping failed, assuming disconnect: %v", err)
				return
			}
		}
	}
}
