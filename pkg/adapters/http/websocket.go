package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 60 * time.Second
	wsWriteWait  = 10 * time.Second
	wsReadLimit  = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// socketError is sent back for a frame that could not be answered.
type socketError struct {
	Error string `json:"error"`
}

// ChatSocket handles GET /api/ws. Each text frame is a ChatBody and is
// answered with a ChatResult, in order, on the same connection.
func (s *Server) ChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	pongWait := s.pongWait
	if pongWait <= 0 {
		pongWait = wsPongWait
	}
	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	}

	conn.SetReadLimit(wsReadLimit)
	extend()
	conn.SetPongHandler(func(string) error { return extend() })

	done := make(chan struct{})
	defer close(done)
	go s.keepAlive(conn, pongWait*9/10, done)

	for {
		var body ChatBody
		if err := conn.ReadJSON(&body); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read failed", "err", err)
			}
			return
		}

		var reply any
		result, err := s.chat(r.Context(), body)
		if err != nil {
			reply = socketError{Error: err.Error()}
		} else {
			reply = result
		}
		// Pongs are only handled while reading, so a turn longer than
		// pongWait would otherwise leave an expired deadline behind.
		extend()

		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			s.logger.Warn("WebSocket write failed", "err", err)
			return
		}
	}
}

// keepAlive pings the peer until done is closed.
// WriteControl may run concurrently with the frame writer.
func (s *Server) keepAlive(conn *websocket.Conn, period time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
