package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anhbaysgalan1/teenpatti/internal/engine"
	"github.com/google/uuid"
)

const updateBuffer = 256

// delivery is a rendered message bound for one client. version orders game updates; negative
// versions are always delivered.
type delivery struct {
	client  *Client
	message []byte
	version int64
}

// Hub maintains the websocket clients of every game and pushes each of them its own redacted
// view whenever the game changes.
type Hub struct {
	engine     engine.Engine
	betLimiter BetLimiter
	register   chan *Client
	unregister chan *Client
	updates    chan uuid.UUID
	deliver    chan delivery
	done       chan struct{}
	games      map[uuid.UUID]map[*Client]bool
}

// BetLimiter throttles betting actions per key.
type BetLimiter interface {
	Allow(key string) bool
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBetLimiter throttles place-bet messages per user.
func WithBetLimiter(l BetLimiter) HubOption {
	return func(h *Hub) { h.betLimiter = l }
}

func NewHub(eng engine.Engine, opts ...HubOption) *Hub {
	h := &Hub{
		engine:     eng,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		updates:    make(chan uuid.UUID, updateBuffer),
		deliver:    make(chan delivery),
		done:       make(chan struct{}),
		games:      make(map[uuid.UUID]map[*Client]bool),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GameUpdated queues a refresh for every client watching gameID.
func (h *Hub) GameUpdated(_ context.Context, gameID uuid.UUID) {
	select {
	case h.updates <- gameID:
	default:
		slog.Warn("Hub update queue full, dropping game update", "game_id", gameID)
	}
}

// Run serves the hub until ctx is done, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.games {
				for client := range clients {
					close(client.send)
				}
			}
			h.games = map[uuid.UUID]map[*Client]bool{}
			return nil
		case client := <-h.register:
			h.registerClient(client)
			go h.render(ctx, client.gameID, []*Client{client})
		case client := <-h.unregister:
			h.unregisterClient(client)
		case gameID := <-h.updates:
			if clients := h.clientsOf(gameID); len(clients) > 0 {
				go h.render(ctx, gameID, clients)
			}
		case d := <-h.deliver:
			h.deliverTo(d)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	clients, ok := h.games[client.gameID]
	if !ok {
		clients = make(map[*Client]bool)
		h.games[client.gameID] = clients
	}
	clients[client] = true
	slog.Debug("Websocket client registered", "game_id", client.gameID, "user_id", client.userID)
}

func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.games[client.gameID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.games, client.gameID)
	}
	close(client.send)
}

func (h *Hub) clientsOf(gameID uuid.UUID) []*Client {
	clients := make([]*Client, 0, len(h.games[gameID]))
	for client := range h.games[gameID] {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) deliverTo(d delivery) {
	if !h.games[d.client.gameID][d.client] {
		return
	}
	if d.version >= 0 {
		if d.version < d.client.lastVersion {
			return
		}
		d.client.lastVersion = d.version
	}
	select {
	case d.client.send <- d.message:
	default:
		slog.Warn("Websocket client too slow, disconnecting", "game_id", d.client.gameID, "user_id", d.client.userID)
		h.unregisterClient(d.client)
	}
}

// render builds each client's view outside the hub loop and hands it back for delivery.
func (h *Hub) render(ctx context.Context, gameID uuid.UUID, clients []*Client) {
	for _, client := range clients {
		view, err := h.engine.GameState(ctx, gameID, client.userID)
		if err != nil {
			slog.Warn("Failed to render game state", "game_id", gameID, "user_id", client.userID, "error", err)
			continue
		}
		message, err := json.Marshal(updateGame{base: base{Action: actionUpdateGame}, Game: view})
		if err != nil {
			slog.Error("Failed to encode game state", "game_id", gameID, "error", err)
			continue
		}
		if !h.send(delivery{client: client, message: message, version: view.Version}) {
			return
		}
	}
}

// send hands d to the hub loop. It reports false once the hub has stopped.
func (h *Hub) send(d delivery) bool {
	select {
	case h.deliver <- d:
		return true
	case <-h.done:
		return false
	}
}
