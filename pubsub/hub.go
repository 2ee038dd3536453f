// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/danielhkuo/dummy-evm/models"
)

const (
	sendBuffer      = 16
	broadcastBuffer = 256
	writeTimeout    = 5 * time.Second
)

// RaceTopic is the topic live tallies for a race are published on
func RaceTopic(raceID string) string { return "race:" + raceID }

// SessionTopic is the topic a voter session's events are published on
func SessionTopic(token string) string { return "session:" + token }

type Message struct {
	Topic string
	Data  []byte
}

// Client is one websocket subscriber
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

// Hub fans messages out to websocket clients by topic. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	count      chan chan int
	done       chan struct{}

	// Origin host patterns allowed to open a websocket besides the
	// server's own host
	origins []string
}

// NewHub creates a hub. originPatterns are host patterns as accepted by
// websocket.AcceptOptions; with none, only same-host pages may connect.
func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		origins:    originPatterns,
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, clients := range h.clients {
				for c := range clients {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			clients := h.clients[client.topic]
			if clients == nil {
				clients = make(map[*Client]bool)
				h.clients[client.topic] = clients
			}
			clients[client] = true

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			for c := range h.clients[message.Topic] {
				select {
				case c.send <- message.Data:
				default:
					// Slow consumer
					h.remove(c)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, clients := range h.clients {
				n += len(clients)
			}
			reply <- n
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients := h.clients[c.topic]
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.clients, c.topic)
	}
}

// Clients reports how many subscribers are connected. Returns 0 once
// the hub has stopped.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Publish sends v as JSON to every subscriber of topic. It never blocks;
// a message is dropped when the hub is backed up.
func (h *Hub) Publish(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal hub message", "topic", topic, "error", err)
		return
	}
	select {
	case h.broadcast <- &Message{Topic: topic, Data: data}:
	default:
		slog.Warn("hub backlog full, dropping message", "topic", topic)
	}
}

// Notify publishes a session event to its session and, once a vote is
// revealed, the new tally to everyone watching the race.
func (h *Hub) Notify(token string, ev models.SessionEvent) {
	h.Publish(SessionTopic(token), ev)
	if ev.Type == models.EventRevealed {
		h.Publish(RaceTopic(ev.RaceID), models.TallyUpdate{RaceID: ev.RaceID, Seat: ev.Seat, Votes: ev.Votes})
	}
}

// Serve upgrades the request and streams topic to it until either side
// closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		slog.Error("websocket accept failed", "topic", topic, "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), topic: topic}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	slog.Debug("websocket subscribed", "topic", topic)

	ctx := conn.CloseRead(r.Context())
	go client.writePump(ctx)
	<-ctx.Done()

	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// writePump sends messages from the hub to the websocket connection
func (c *Client) writePump(ctx context.Context) {
	defer c.conn.Close(websocket.StatusNormalClosure, "")

	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, m)
			cancel()
			if err != nil {
				slog.Warn("websocket write failed", "topic", c.topic, "error", err)
				return
			}
		}
	}
}
