package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anhbaysgalan1/teenpatti/internal/application/dto"
	"github.com/anhbaysgalan1/teenpatti/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte // Buffered channel of outbound bytes
	userID uuid.UUID
	gameID uuid.UUID

	// lastVersion is owned by the hub loop.
	lastVersion int64
}

func newClient(conn *websocket.Conn, hub *Hub, userID, gameID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		gameID: gameID,
	}
}

func (c *Client) disconnect() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
	c.conn.Close()
}

// readPump pumps actions from the websocket connection to the engine.
//
// The application runs readPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) readPump() {
	defer c.disconnect()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Warn("Set websocket read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Websocket unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}
		if err := c.processMessage(message); err != nil {
			slog.Debug("Websocket action rejected", "game_id", c.gameID, "user_id", c.userID, "error", err)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("Write websocket message", "user_id", c.userID, "error", err)
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

func (c *Client) processMessage(raw []byte) error {
	var msg base
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reject("", errors.New("malformed message"))
		return err
	}

	switch msg.Action {
	case actionPlaceBet:
		var bet placeBet
		if err := json.Unmarshal(raw, &bet); err != nil {
			c.reject(msg.Action, errors.New("malformed message"))
			return err
		}
		if c.hub.betLimiter != nil && !c.hub.betLimiter.Allow("user:"+c.userID.String()) {
			err := errors.New("rate limit exceeded")
			c.reject(msg.Action, err)
			return err
		}
		cmd := dto.PlaceActionCommand{
			GameID:          c.gameID,
			UserID:          c.userID,
			BetType:         bet.BetType,
			Amount:          bet.Amount,
			ExpectedVersion: bet.ExpectedVersion,
		}
		if err := validation.Validate(cmd); err != nil {
			c.reject(msg.Action, err)
			return err
		}
		if _, err := c.hub.engine.PlaceAction(context.Background(), cmd); err != nil {
			c.reject(msg.Action, err)
			return err
		}
		return nil

	case actionGetState:
		go c.hub.render(context.Background(), c.gameID, []*Client{c})
		return nil

	default:
		err := errors.New("unexpected message action")
		c.reject(msg.Action, err)
		return err
	}
}

// reject reports a failed action to this client only.
func (c *Client) reject(action string, err error) {
	message, _ := json.Marshal(actionFailed{base: base{Action: actionError}, Error: err.Error(), Action: action})
	c.hub.send(delivery{client: c, message: message, version: -1})
}

// ServeWs upgrades an authenticated request and subscribes it to gameID.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID, gameID uuid.UUID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	client := newClient(conn, hub, userID, gameID)

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
}
