package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/HabariMedia/newsroom-go/internal/infrastructure/messaging"
	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// EventsHandler streams state-change events to frontend clients over a
// websocket. Each connection is one broadcaster subscription; a client
// that falls behind misses events and should re-read current state.
type EventsHandler struct {
	broadcaster *messaging.Broadcaster
	logger      *logging.ChanneledLogger
	upgrader    websocket.Upgrader
}

// NewEventsHandler creates an events handler.
func NewEventsHandler(broadcaster *messaging.Broadcaster, logger *logging.ChanneledLogger) *EventsHandler {
	return &EventsHandler{
		broadcaster: broadcaster,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The engine sits behind the frontend's own origin checks.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades the connection and forwards events until the client
// disconnects. Topics can be narrowed with repeated ?topic= parameters.
func (h *EventsHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.System().Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var topics []messaging.Topic
	for _, t := range c.QueryArray("topic") {
		topics = append(topics, messaging.Topic(t))
	}

	events, cancel := h.broadcaster.Subscribe(topics...)
	defer cancel()

	// Drain client frames so pong handling and close detection work.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
