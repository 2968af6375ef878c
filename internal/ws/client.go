package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/marketlens/optionchain/internal/chain"
	"github.com/marketlens/optionchain/internal/engine"
	"github.com/marketlens/optionchain/internal/replay"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4 * 1024

	// Send buffer size per client.
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Terminal clients connect from anywhere
}

// Client represents a WebSocket client connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	connID     string
	groups     map[string]bool
	compressed bool
	manager    *engine.Manager
	logger     *zap.Logger
}

// HandleChainWS returns the WebSocket upgrade handler for chain streaming.
// Clients opting into ?compression=zstd receive binary zstd frames.
func HandleChainWS(h *Hub, manager *engine.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		compressed := r.URL.Query().Get("compression") == "zstd"

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			hub:        h,
			conn:       conn,
			send:       make(chan []byte, sendBufferSize),
			connID:     uuid.New().String(),
			groups:     make(map[string]bool),
			compressed: compressed,
			manager:    manager,
			logger:     h.logger,
		}

		h.register <- client

		// Start read/write pumps
		go client.writePump()
		go client.readPump()
	}
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			break
		}
		c.handleMessage(message)
	}
}

// writePump writes messages to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	// Compressed clients receive binary zstd frames.
	msgType := websocket.TextMessage
	if c.compressed {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed, send close message
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(msgType, message); err != nil {
				c.logger.Debug("websocket write error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes one inbound frame.
func (c *Client) handleMessage(data []byte) {
	msg, err := parseClientMessage(data)
	if err != nil {
		c.logger.Debug("failed to parse client message",
			zap.String("connID", c.connID),
			zap.Error(err),
		)
		c.send <- buildErrorMessage("malformed message")
		return
	}

	switch msg.Action {
	case actionSubscribe:
		c.handleSubscribe(msg.Symbol, msg.Expiry)

	case actionUnsubscribe:
		c.hub.LeaveGroup(c, replay.RecordingKey(msg.Symbol, msg.Expiry))
		c.send <- buildAckMessage(replay.RecordingKey(msg.Symbol, msg.Expiry))

	case actionRefresh:
		c.handleRefresh(msg.Symbol, msg.Expiry)

	case actionSort:
		c.handleSort(msg.Symbol, msg.Expiry, msg.Field)

	case actionPing:
		c.send <- buildPongMessage()

	default:
		c.send <- buildErrorMessage("unknown action: " + msg.Action)
	}
}

func (c *Client) handleSubscribe(symbol, expiry string) {
	session, err := c.manager.Session(symbol, expiry)
	if err != nil {
		c.logger.Debug("subscribe rejected",
			zap.String("connID", c.connID),
			zap.String("symbol", symbol),
			zap.String("expiry", expiry),
			zap.Error(err),
		)
		c.send <- buildErrorMessage(err.Error())
		return
	}

	// Prime the session so the first broadcast has data.
	if err := session.Refresh(context.Background(), false); err != nil && !errors.Is(err, engine.ErrExhausted) {
		c.logger.Warn("priming refresh failed", zap.Error(err))
	}

	group := replay.RecordingKey(symbol, expiry)
	c.hub.JoinGroup(c, group)
	c.send <- buildAckMessage(group)
}

func (c *Client) handleRefresh(symbol, expiry string) {
	session, err := c.manager.Session(symbol, expiry)
	if err != nil {
		c.send <- buildErrorMessage(err.Error())
		return
	}

	err = session.Refresh(context.Background(), true)
	if errors.Is(err, engine.ErrCooldown) {
		// Dropped, not queued.
		return
	}
	if err != nil && !errors.Is(err, engine.ErrExhausted) {
		c.send <- buildErrorMessage(err.Error())
	}
}

func (c *Client) handleSort(symbol, expiry, field string) {
	session, err := c.manager.Session(symbol, expiry)
	if err != nil {
		c.send <- buildErrorMessage(err.Error())
		return
	}

	column, direction := session.ToggleSort(field)
	state, _ := json.Marshal(struct {
		Column    string              `json:"column"`
		Direction chain.SortDirection `json:"direction"`
	}{column, direction})
	c.send <- buildSortMessage(replay.RecordingKey(symbol, expiry), state)
}
