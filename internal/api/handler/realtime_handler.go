package handler

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/infrastructure/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxInbound = 512
)

// Subscriber hands out realtime subscriptions. realtime.Hub implements it.
type Subscriber interface {
	Subscribe() *realtime.Subscription
}

// RealtimeHandler streams board events to websocket clients. Every connected
// client receives every event; the stream is push only.
type RealtimeHandler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewRealtimeHandler accepts connections from allowedOrigins. An empty list or
// "*" accepts any origin.
func NewRealtimeHandler(hub Subscriber, allowedOrigins []string, log zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

// Stream handles GET /ws.
//
// @Summary      Subscribe to board events
// @Description  Upgrades to a websocket. Each text frame is {"id","event","data","emittedAt"} where event is taskCreated, taskUpdated or taskDeleted.
// @Tags         realtime
// @Success      101  {string}  string  "Switching Protocols"
// @Router       /ws [get]
func (h *RealtimeHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	defer sub.Close()

	log := h.log.With().Stringer("subscriber", sub.ID()).Str("remote", c.RealIP()).Logger()
	log.Info().Msg("realtime client connected")
	defer log.Info().Msg("realtime client disconnected")

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case msg, ok := <-sub.Messages():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber dropped"))
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}

// readPump discards inbound frames and closes done when the peer goes away.
func (h *RealtimeHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
