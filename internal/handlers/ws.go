package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"exchange_go/internal/domain"
	"exchange_go/internal/infra"
	"exchange_go/internal/infra/storage"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains the set of trade-feed subscribers and fans executed trades
// out to them. The clients map is owned by the Run goroutine; all access
// goes through the channels.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			infra.GlobalMetrics.IncrementWSClients()

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				infra.GlobalMetrics.DecrementWSClients()
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop it.
					close(client.send)
					delete(h.clients, client)
					infra.GlobalMetrics.DecrementWSClients()
				}
			}
		}
	}
}

// Broadcast queues a message for all connected clients.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("trade feed backlog full, dropping message")
	}
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// serveWS upgrades the connection and registers a feed subscriber.
func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := &wsClient{hub: h.hub, conn: conn, send: make(chan []byte, 64)}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; the feed is one-way. It exists to detect
// disconnects and answer pings.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
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
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// TradeFeed publishes executed trades onto the hub.
type TradeFeed struct {
	hub   *Hub
	store *storage.Storage

	mu      sync.Mutex
	symbols map[uint]string
}

// NewTradeFeed creates a trade feed over the hub.
func NewTradeFeed(hub *Hub, store *storage.Storage) *TradeFeed {
	return &TradeFeed{hub: hub, store: store, symbols: make(map[uint]string)}
}

type tradeMessage struct {
	Type      string    `json:"type"`
	Ticker    string    `json:"ticker"`
	Price     string    `json:"price"`
	Qty       string    `json:"qty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publish is wired as the engine's onTrade callback. Failures only cost the
// feed message; the trade itself is already committed.
func (f *TradeFeed) Publish(tr domain.Trade) {
	symbol, err := f.symbolFor(tr.InstrumentID)
	if err != nil || symbol == "" {
		slog.Warn("trade feed symbol lookup failed", slog.Any("error", err))
		return
	}

	msg, err := json.Marshal(tradeMessage{
		Type:      "trade",
		Ticker:    symbol,
		Price:     tr.Price.String(),
		Qty:       tr.Quantity.String(),
		Timestamp: tr.Timestamp,
	})
	if err != nil {
		return
	}
	f.hub.Broadcast(msg)
}

func (f *TradeFeed) symbolFor(instrumentID uint) (string, error) {
	f.mu.Lock()
	if sym, ok := f.symbols[instrumentID]; ok {
		f.mu.Unlock()
		return sym, nil
	}
	f.mu.Unlock()

	inst, err := f.store.GetInstrumentByID(instrumentID)
	if err != nil || inst == nil {
		return "", err
	}

	f.mu.Lock()
	f.symbols[instrumentID] = inst.Symbol
	f.mu.Unlock()
	return inst.Symbol, nil
}
