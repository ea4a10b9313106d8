package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rachel-multiverse/rachel-web-sub001/events"
)

// handleWebSocket attaches an observer to a game. The session token carries
// which game and seat the observer belongs to; every broker envelope for the
// game is forwarded as JSON, and any inbound message counts as a heartbeat.
func (s *Server) handleWebSocket(c *gin.Context) {
	token := c.Query("token")
	sess, ok := s.sessions.Validate(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown or expired session"})
		return
	}

	e, err := s.sup.Lookup(sess.GameID)
	if err != nil {
		writeGameError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	envCh, cancelSub := s.broker.Subscribe(events.Topic(sess.GameID))
	gen := s.monitor.Attach(sess, func() { conn.Close() })
	observersConnected.Inc()

	// Opening snapshot so the observer does not have to wait for an event
	snapshot, merr := json.Marshal(events.Envelope{Name: "snapshot", State: e.GetState()})
	if merr == nil {
		conn.WriteMessage(websocket.TextMessage, snapshot)
	}

	go s.writePump(conn, envCh)
	s.readPump(conn, token, gen, cancelSub)
}

// readPump consumes inbound messages as heartbeats until the connection
// drops. Its generation lets the monitor tell a genuine disconnect from the
// teardown of a connection a reconnect has already replaced.
func (s *Server) readPump(conn *websocket.Conn, token string, gen uint64, cancelSub func()) {
	defer func() {
		cancelSub()
		conn.Close()
		observersConnected.Dec()
		s.monitor.Disconnect(token, gen)
	}()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Error: %v", err)
			}
			return
		}
		s.sessions.Heartbeat(token)
		s.monitor.Heartbeat(token)
	}
}

// writePump forwards broker envelopes to the connection until either side
// goes away
func (s *Server) writePump(conn *websocket.Conn, envCh <-chan events.Envelope) {
	for env := range envCh {
		data, err := json.Marshal(env)
		if err != nil {
			log.Printf("Failed to marshal event envelope: %v", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, []byte{})
}
