package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/venue-backend/internal/app/service"
	"github.com/ikkim/venue-backend/pkg/logger"
)

const (
	// クライアントからの最大メッセージ数 (1秒あたり)
	maxMessagesPerSecond = 5

	EventDatasetState = "dataset_state"
)

// ClientMessage クライアントから受け取るメッセージ
type ClientMessage struct {
	Type string `json:"type"` // status
}

// StateEvent 会場データの読み込み状態の通知
type StateEvent struct {
	Type       string            `json:"type"`
	State      service.LoadState `json:"state"`
	Generation uint64            `json:"generation"`
	Count      int               `json:"count,omitempty"`
	Version    string            `json:"version,omitempty"`
	Message    string            `json:"message,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// NewStateEvent converts a coordinator snapshot to its wire form.
func NewStateEvent(s service.Snapshot) StateEvent {
	ev := StateEvent{
		Type:       EventDatasetState,
		State:      s.State,
		Generation: s.Generation,
		UpdatedAt:  s.UpdatedAt,
	}
	switch s.State {
	case service.LoadStateLoaded:
		ev.Count = len(s.Venues)
		ev.Version = s.Metadata.Version
	case service.LoadStateError:
		ev.Message = s.Message()
		ev.Cause = s.Cause()
		ev.Retryable = true
	}
	return ev
}

// Client WebSocket クライアント
type Client struct {
	Hub       *Hub
	Conn      *Conn
	SessionID string
	Send      chan []byte

	MessageCount  int
	LastResetTime time.Time
	RateMu        sync.Mutex
}

// Hub 読み込み状態を購読中の全クライアントに配信する
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// Run が終了すると閉じる
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	// 最新の通知。接続直後のクライアントにも送る
	lastGen   uint64
	lastEvent []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.stopOnce.Do(func() { close(h.done) })
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			for {
				select {
				case client := <-h.register:
					close(client.Send)
				default:
					return
				}
			}

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			last := h.lastEvent
			total := len(h.clients)
			h.mu.Unlock()

			if last != nil {
				h.trySend(client, last)
			}
			logger.Info("WebSocket client registered", map[string]interface{}{
				"session_id":    client.SessionID,
				"total_clients": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"session_id":        client.SessionID,
				"remaining_clients": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				h.trySend(client, message)
			}
			h.mu.RUnlock()
		}
	}
}

// trySend drops a client whose buffer is full instead of blocking the hub.
func (h *Hub) trySend(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		go h.Unregister(client)
		logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
			"session_id": client.SessionID,
		})
	}
}

// StateChanged implements service.StateListener. Events older than the last
// one published are dropped, so subscribers never see generations go back.
func (h *Hub) StateChanged(s service.Snapshot) {
	data, err := json.Marshal(NewStateEvent(s))
	if err != nil {
		logger.Error("Failed to marshal state event", err, nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if s.Generation < h.lastGen {
		return
	}
	h.lastGen = s.Generation
	h.lastEvent = data

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Broadcast channel full, state event dropped", map[string]interface{}{
			"generation": s.Generation,
			"state":      s.State,
		})
	}
}

// Register hands client to Run. Once the hub has stopped the client's Send
// channel is closed so its WritePump exits.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister is a no-op after the hub has stopped; Run already closed every
// registered client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage answers a "status" request with the latest event.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.RateMu.Lock()
	now := time.Now()
	if now.Sub(client.LastResetTime) >= time.Second {
		client.MessageCount = 0
		client.LastResetTime = now
	}
	client.MessageCount++
	count := client.MessageCount
	client.RateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"session_id": client.SessionID,
			"count":      count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"session_id": client.SessionID,
			"error":      err.Error(),
		})
		return
	}

	if msg.Type != "status" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, registered := h.clients[client]; registered && h.lastEvent != nil {
		h.trySend(client, h.lastEvent)
	}
}
