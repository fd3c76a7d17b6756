package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/provider-portal-backend/pkg/logger"
)

// Event types published to the admin moderation feed.
const (
	EventApplicationSubmitted = "application_submitted"
	EventApplicationApproved  = "application_approved"
	EventOnboardingSubmitted  = "onboarding_submitted"
	EventBusinessModerated    = "business_moderated"
	EventReviewModerated      = "review_moderated"
	EventDocumentUploaded     = "document_uploaded"
	EventDocumentVerified     = "document_verified"
)

// Event is one moderation-queue change.
type Event struct {
	Type       string      `json:"type"`
	EntityType string      `json:"entity_type"`
	EntityID   uint        `json:"entity_id"`
	BusinessID uint        `json:"business_id,omitempty"`
	Actor      string      `json:"actor,omitempty"`
	At         time.Time   `json:"at"`
	Data       interface{} `json:"data,omitempty"`
}

// Client 관리자 WebSocket 세션
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID string
	Send   chan []byte
}

// Hub fans moderation events out to every connected admin session.
type Hub struct {
	// 등록된 클라이언트들 (멀티 디바이스 지원)
	clients map[*Client]bool

	// unbuffered, so a send completes only while Run is receiving
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 1024),
		done:       make(chan struct{}),
	}
}

// Run 이벤트 루프. ctx가 끝나면 모든 세션을 닫는다.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"user_id": client.UserID,
			})

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Send 채널이 막혀있음 - 세션 정리
					delete(h.clients, client)
					close(client.Send)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"user_id": client.UserID,
					})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event for every admin session. A full queue drops the
// event; the feed is a hint and admins can always refetch the queue.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal moderation event", err, nil)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type":      event.Type,
			"entity_id": event.EntityID,
		})
	}
}

// Register 클라이언트 등록. Run이 끝난 뒤에는 false를 돌려준다.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister 클라이언트 등록 해제. Run이 끝났다면 세션은 이미 닫혔다.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SessionCount 접속 중인 관리자 세션 수
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
