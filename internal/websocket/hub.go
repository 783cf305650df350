package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/rl-arena/dice-backend/internal/service"
	"go.uber.org/zap"
)

// Handler 연결별 메시지 처리 진입점 (service.Dispatcher 가 구현)
type Handler interface {
	Connect(identity, connID string) error
	HandleMessage(ctx context.Context, identity string, pkt *models.Packet, conn service.Conn) error
	Disconnect(identity, connID string)
}

// Options Hub 설정
type Options struct {
	AllowedOrigins []string // 비어 있으면 모든 origin 허용
	MessageRate    int64    // 연결당 초당 허용 메시지 수 (0 = 제한 없음)
}

// Hub WebSocket 연결 관리
type Hub struct {
	// 사용자별 연결 저장 (identity -> *Client)
	clients map[string]*Client
	mu      sync.RWMutex

	// 등록/해제 채널
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	handler  Handler
	upgrader websocket.Upgrader
	opts     Options
	logger   *zap.Logger
}

// NewHub Hub 생성
func NewHub(handler Handler, opts Options, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		handler:    handler,
		opts:       opts,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run Hub 실행. ctx 가 끝나면 모든 연결을 닫고 반환
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Count 연결 수
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats 연결 통계
func (h *Hub) Stats() map[string]interface{} {
	return map[string]interface{}{
		"connections": h.Count(),
	}
}

// registerClient 클라이언트 등록
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.identity] = client
	h.logger.Info("WebSocket client registered",
		zap.String("identity", client.identity),
		zap.String("connId", client.id),
		zap.Int("totalClients", len(h.clients)))
}

// unregisterClient 클라이언트 해제
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.identity]; exists && current == client {
		delete(h.clients, client.identity)
		h.logger.Info("WebSocket client unregistered",
			zap.String("identity", client.identity),
			zap.Int("totalClients", len(h.clients)))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
	h.logger.Info("WebSocket hub stopped", zap.Int("closedClients", len(clients)))
}

func (h *Hub) enqueue(ch chan *Client, client *Client) {
	select {
	case ch <- client:
	case <-h.done:
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
