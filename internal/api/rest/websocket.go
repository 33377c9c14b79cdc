package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingPeriod   = 54 * time.Second
)

// WebSocketHandler streams ride snapshots to subscribed clients
type WebSocketHandler struct {
	rides    bidding.Service
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates the snapshot streaming handler
func NewWebSocketHandler(rides bidding.Service, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		rides:  rides,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Subscribe handles GET /api/v1/rides/{id}/subscribe. Each message is a full
// snapshot; the first one reflects current state so late joiners converge
// immediately.
func (h *WebSocketHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	rideID, err := pathRideID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := h.rides.Subscribe(r.Context(), rideID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		h.logger.Warn("websocket upgrade failed", "ride_id", rideID, "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		sub:    sub,
		logger: h.logger.With("ride_id", rideID),
	}
	go client.readLoop()
	go client.writeLoop()
}

type wsClient struct {
	conn   *websocket.Conn
	sub    bidding.Subscription
	logger *slog.Logger
}

// readLoop drains client frames so pong handling works and detects closes
func (c *wsClient) readLoop() {
	defer c.sub.Close()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.sub.Updates():
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "subscription closed"))
				return
			}
			if err := c.conn.WriteJSON(snap); err != nil {
				c.logger.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
