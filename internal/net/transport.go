package net

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// peer is one connected client with a serialized writer.
type peer struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (p *peer) send(msg Message) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.ws.WriteJSON(msg)
}

// Hub is run by the HOST: it accepts websocket peers, feeds them a
// document snapshot on join, and relays presence and op traffic between
// them. The host itself participates through OnMessage and Broadcast.
type Hub struct {
	mu    sync.RWMutex
	peers map[string]*peer // client id -> connection

	// OnMessage applies relayed traffic to the host's own state. Called
	// from connection goroutines.
	OnMessage func(msg Message)
	// Snapshot produces the current document for a joining client.
	Snapshot func() ([]byte, error)

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		peers: make(map[string]*peer),
		upgrader: websocket.Upgrader{
			// LAN sessions; the share link is the access control
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler exposes the websocket endpoint.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleUpgrade)
	return mux
}

// ListenAndServe blocks serving the board websocket endpoint.
func (h *Hub) ListenAndServe(port int) error {
	log.Printf("[HUB] listening on port %d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), h.Handler())
}

func (h *Hub) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HUB] upgrade failed: %v", err)
		return
	}
	go h.serveConn(ws)
}

func (h *Hub) serveConn(ws *websocket.Conn) {
	defer ws.Close()

	var hello Message
	if err := ws.ReadJSON(&hello); err != nil || hello.Type != MsgHello || hello.ClientID == "" {
		log.Printf("[HUB] rejecting connection without hello from %s", ws.RemoteAddr())
		return
	}
	clientID := hello.ClientID
	p := &peer{ws: ws}

	h.mu.Lock()
	h.peers[clientID] = p
	h.mu.Unlock()
	log.Printf("[HUB] client %s connected from %s", clientID, ws.RemoteAddr())

	if h.Snapshot != nil {
		if snap, err := h.Snapshot(); err == nil {
			if err := p.send(Message{Type: MsgSnapshot, Payload: snap}); err != nil {
				log.Printf("[HUB] snapshot send to %s failed: %v", clientID, err)
			}
		} else {
			log.Printf("[HUB] snapshot build failed: %v", err)
		}
	}

	defer h.dropPeer(clientID)
	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			log.Printf("[HUB] client %s disconnected: %v", clientID, err)
			return
		}
		switch msg.Type {
		case MsgPresence, MsgOp:
			if h.OnMessage != nil {
				h.OnMessage(msg)
			}
			h.broadcast(msg, clientID)
		default:
			log.Printf("[HUB] ignoring %q from %s", msg.Type, clientID)
		}
	}
}

// dropPeer removes a connection and tells everyone, including the host
// itself, that the client's presence values are gone.
func (h *Hub) dropPeer(clientID string) {
	h.mu.Lock()
	_, present := h.peers[clientID]
	delete(h.peers, clientID)
	h.mu.Unlock()
	if !present {
		return
	}

	gone := Message{Type: MsgClientGone, ClientID: clientID}
	if h.OnMessage != nil {
		h.OnMessage(gone)
	}
	h.broadcast(gone, clientID)
}

// Broadcast sends the host's own traffic to every peer.
func (h *Hub) Broadcast(msg Message) {
	h.broadcast(msg, "")
}

func (h *Hub) broadcast(msg Message, exclude string) {
	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	ids := make([]string, 0, len(h.peers))
	for id, p := range h.peers {
		if id != exclude {
			targets = append(targets, p)
			ids = append(ids, id)
		}
	}
	h.mu.RUnlock()

	for i, p := range targets {
		if err := p.send(msg); err != nil {
			log.Printf("[HUB] send to %s failed: %v", ids[i], err)
		}
	}
}

// Client is the CLIENT side of the transport: one websocket connection
// to the host's hub.
type Client struct {
	ws       *websocket.Conn
	writeMu  sync.Mutex
	clientID string

	// OnMessage receives relayed traffic and the join snapshot. Called
	// from the read-loop goroutine.
	OnMessage func(msg Message)
	// OnDisconnect fires once when the connection dies.
	OnDisconnect func(err error)
}

// Dial connects to a host address ("ip:port") and introduces itself.
func Dial(addr, clientID string) (*Client, error) {
	url := fmt.Sprintf("ws://%s/ws", addr)
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{ws: ws, clientID: clientID}
	if err := c.Send(Message{Type: MsgHello, ClientID: clientID}); err != nil {
		ws.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}
	log.Printf("[NET] connected to %s as %s", addr, clientID)
	return c, nil
}

// Run blocks reading messages until the connection drops.
func (c *Client) Run() {
	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			log.Printf("[NET] connection lost: %v", err)
			if c.OnDisconnect != nil {
				c.OnDisconnect(err)
			}
			return
		}
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

func (c *Client) Send(msg Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(msg)
}

func (c *Client) Close() {
	c.ws.Close()
}
