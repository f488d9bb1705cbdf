package server

import (
	"chat-dm/auth"
	"chat-dm/domain/event"
	"chat-dm/sink"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxInboundFrame = 512

// socket upgrades the authenticated request and keeps the user's connection
// registered until the peer goes away. The socket is push only: inbound frames
// are read to detect closure and answer pings, then discarded.
func (s *Server) socket(c *gin.Context) {
	userID := auth.UserID(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already answered the client.
		s.log.Info("WebSocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	connSink := sink.NewSocketSink(s.config.ConnectionBufferSize)
	s.chat.Connect(userID, connSink)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(conn, connSink, userID)
	}()

	s.readLoop(conn, userID)

	s.chat.Disconnect(userID, connSink)
	connSink.Close()
	<-done
	_ = conn.Close()
}

func (s *Server) readLoop(conn *websocket.Conn, userID string) {
	conn.SetReadLimit(maxInboundFrame)
	_ = conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived) {
				s.log.Info("WebSocket read failed", "user_id", userID, "error", err)
			}
			return
		}
	}
}

// writeLoop is the only writer of conn.
func (s *Server) writeLoop(conn *websocket.Conn, connSink *sink.SocketSink, userID string) {
	ticker := time.NewTicker(s.config.pingInterval())
	defer ticker.Stop()

	for {
		select {
		case evt := <-connSink.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteJSON(event.ToEnvelope(evt)); err != nil {
				s.log.Warn("Failed to push event", "user_id", userID, "event", evt.Name(), "error", err)
				// Unblocks the reader so the connection is released.
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				return
			}
		case <-connSink.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.config.WriteTimeout))
			return
		}
	}
}
