package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"gigchat/internal/app/dto"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 64 << 10
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy belongs to the deployment edge, not this service.
		return true
	},
}

// session is one live websocket connection. The read pump feeds events to
// the hub; the write pump drains the send buffer and keeps the peer alive
// with pings.
type session struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string

	closeOnce sync.Once
}

// Serve returns the gin handler that upgrades requests into hub sessions.
func Serve(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.logger.Warn("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
			return
		}
		s := &session{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, sendBufferSize),
			remote: c.ClientIP(),
		}
		select {
		case hub.register <- s:
		case <-hub.stopped:
			conn.Close()
			return
		}
		go s.writePump()
		go s.readPump()
	}
}

func (s *session) readPump() {
	defer func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.stopped:
		}
	}()

	s.conn.SetReadLimit(maxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.hub.logger.Warn("websocket read failed", "remote", s.remote, "error", err)
			}
			return
		}
		var event dto.Event
		if err := json.Unmarshal(raw, &event); err != nil {
			s.hub.logger.Warn("dropping undecodable frame", "remote", s.remote, "error", err)
			continue
		}
		select {
		case s.hub.inbound <- inboundEvent{from: s, event: event}:
		case <-s.hub.stopped:
			return
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}
