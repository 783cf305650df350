package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/rl-arena/dice-backend/pkg/ratelimit"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	sendBufferSize = 64
)

var ErrClientClosed = errors.New("websocket client closed")

// Client WebSocket 클라이언트. service.Conn 구현
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan *models.Packet
	id       string
	identity string
	limiter  *ratelimit.TokenBucket
	logger   *zap.Logger

	mu       sync.RWMutex
	closed   bool
	dead     chan struct{} // writePump 종료
	deadOnce sync.Once
}

// NewClient 클라이언트 생성
func NewClient(hub *Hub, conn *websocket.Conn, identity, connID string) *Client {
	c := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan *models.Packet, sendBufferSize),
		id:       connID,
		identity: identity,
		logger:   hub.logger.With(zap.String("identity", identity), zap.String("connId", connID)),
		dead:     make(chan struct{}),
	}
	if rate := hub.opts.MessageRate; rate > 0 {
		c.limiter = ratelimit.NewTokenBucket(rate*2, rate)
	}
	return c
}

// ID 연결 ID
func (c *Client) ID() string {
	return c.id
}

// Identity 인증된 사용자 식별자
func (c *Client) Identity() string {
	return c.identity
}

// Send 패킷 전송 예약. 쓰기는 writePump 가 수행
func (c *Client) Send(ctx context.Context, pkt *models.Packet) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- pkt:
		return nil
	case <-c.dead:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 대기 중인 패킷을 모두 보낸 뒤 연결 종료
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.send)
	return nil
}

// readPump 클라이언트 패킷을 읽어 Handler 로 전달
func (c *Client) readPump() {
	defer func() {
		c.hub.handler.Disconnect(c.identity, c.id)
		c.hub.enqueue(c.hub.unregister, c)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.logger.Warn("Client exceeded message rate, closing")
			return
		}

		var pkt models.Packet
		if err := json.Unmarshal(data, &pkt); err != nil {
			c.logger.Warn("Malformed packet, closing", zap.Error(err))
			return
		}

		if err := c.hub.handler.HandleMessage(context.Background(), c.identity, &pkt, c); err != nil {
			c.logger.Debug("Packet handling ended with error", zap.Error(err))
		}
	}
}

// writePump 보낼 패킷을 JSON 으로 인코딩해 전송
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.deadOnce.Do(func() { close(c.dead) })
		c.conn.Close()
	}()

	for {
		select {
		case pkt, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Close 호출됨
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			data, err := json.Marshal(pkt)
			if err != nil {
				c.logger.Error("Failed to marshal packet", zap.Error(err))
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("Failed to write packet", zap.Error(err))
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

// ServeWs WebSocket 연결 업그레이드, 세션 등록 후 클라이언트 시작
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, identity string) {
	connID := uuid.New().String()

	if err := hub.handler.Connect(identity, connID); err != nil {
		hub.logger.Warn("Rejected WebSocket connection",
			zap.String("identity", identity),
			zap.Error(err))
		http.Error(w, "session already connected", http.StatusConflict)
		return
	}

	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		hub.handler.Disconnect(identity, connID)
		return
	}

	client := NewClient(hub, conn, identity, connID)
	hub.enqueue(hub.register, client)

	// 고루틴 시작
	go client.writePump()
	go client.readPump()
}
