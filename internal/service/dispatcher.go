package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rl-arena/dice-backend/internal/models"
	"go.uber.org/zap"
)

// Dispatcher 연결 계층에서 들어온 메시지를 세션 상태에 맞는 핸들러로 전달
type Dispatcher struct {
	sessions  *SessionRegistry
	queues    *QueueSet
	arenas    *ArenaRegistry
	initiator *MatchInitiator
	events    EventPublisher
	logger    *zap.Logger
}

// NewDispatcher Dispatcher 생성
func NewDispatcher(
	sessions *SessionRegistry,
	queues *QueueSet,
	arenas *ArenaRegistry,
	initiator *MatchInitiator,
	events EventPublisher,
	logger *zap.Logger,
) *Dispatcher {
	if events == nil {
		events = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		sessions:  sessions,
		queues:    queues,
		arenas:    arenas,
		initiator: initiator,
		events:    events,
		logger:    logger,
	}
}

// Connect 인증된 연결의 세션 등록
func (d *Dispatcher) Connect(identity, connID string) error {
	if _, err := d.sessions.Register(identity, connID); err != nil {
		return err
	}

	d.logger.Info("Session connected",
		zap.String("identity", identity),
		zap.String("connId", connID))
	return nil
}

// Disconnect 연결 종료 정리: 큐 제거, 대기 중인 핸드셰이크 종료, 세션 삭제
func (d *Dispatcher) Disconnect(identity, connID string) {
	session, exists := d.sessions.Get(identity)
	if !exists || session.ConnID != connID {
		return
	}

	if session.Queued() {
		d.queues.Cancel(identity)
	}
	if d.initiator != nil {
		d.initiator.Abandon(identity, connID)
	}
	d.sessions.Remove(identity, connID)

	if session.InMatch() {
		d.logger.Warn("Session left while in match",
			zap.String("identity", identity),
			zap.String("arenaId", session.ArenaID))
	} else {
		d.logger.Info("Session disconnected",
			zap.String("identity", identity),
			zap.String("state", string(session.State)))
	}

	publish(context.Background(), d.events, d.logger, models.MatchmakingEvent{
		Type:     models.EventPlayerLeft,
		Identity: identity,
		ArenaID:  session.ArenaID,
	})
}

// HandleMessage 메시지 하나 처리. InMatch 면 게임 핸들러, 아니면 매칭 핸들러
func (d *Dispatcher) HandleMessage(ctx context.Context, identity string, pkt *models.Packet, conn Conn) error {
	session, exists := d.sessions.Get(identity)
	if !exists {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, identity)
	}

	if session.InMatch() {
		return d.OnInMatchMessage(ctx, session, pkt, conn)
	}
	return d.OnMatchmakingRequest(ctx, session, pkt, conn)
}

// OnMatchmakingRequest 매칭 요청 처리 (InMatch 가 아닌 세션의 action 0)
func (d *Dispatcher) OnMatchmakingRequest(ctx context.Context, session models.Session, pkt *models.Packet, conn Conn) error {
	if pkt.Action != models.ActionMatchmaking {
		d.logger.Warn("Valid session with invalid action",
			zap.String("identity", session.Identity),
			zap.Uint8("action", uint8(pkt.Action)))
		_ = conn.Close()
		return fmt.Errorf("%w: %d", ErrInvalidAction, pkt.Action)
	}

	if session.InMatch() {
		d.logger.Warn("Matchmaking request while already in a match",
			zap.String("identity", session.Identity),
			zap.String("arenaId", session.ArenaID))
		return d.reject(ctx, conn, models.ErrorKindAlreadyInMatch, ErrAlreadyInMatch)
	}

	if pkt.GameMode == nil {
		d.logger.Warn("Matchmaking request without game mode",
			zap.String("identity", session.Identity))
		return d.reject(ctx, conn, models.ErrorKindMissingGameMode, ErrMissingGameMode)
	}

	mode := *pkt.GameMode
	queue, err := d.queues.Queue(mode)
	if err != nil {
		d.logger.Warn("Matchmaking request for unsupported game mode",
			zap.String("identity", session.Identity),
			zap.String("mode", string(mode)))
		return d.reject(ctx, conn, models.ErrorKindUnsupportedGameMode, err)
	}

	// 조회 이후 상태가 바뀌었을 수 있으므로 락 안에서 다시 확인
	prev, err := d.sessions.BeginQueue(session.Identity, session.ConnID)
	if err != nil {
		if errors.Is(err, ErrAlreadyInMatch) {
			return d.reject(ctx, conn, models.ErrorKindAlreadyInMatch, err)
		}
		_ = conn.Close()
		return err
	}

	if err := conn.Send(ctx, models.NewAckPacket()); err != nil {
		queue.Cancel(session.Identity)
		_, _ = d.sessions.ResetToIdle(session.Identity, session.ConnID)
		_ = conn.Close()
		return fmt.Errorf("failed to acknowledge matchmaking request: %w", err)
	}

	entry := QueueEntry{
		Identity: session.Identity,
		ConnID:   session.ConnID,
		Mode:     mode,
		Conn:     conn,
	}

	// 이미 Queued 인 세션은 큐에 남아 있을 때만 갱신한다.
	// 큐에 없으면 이미 짝이 지어져 매치 시작 중이므로 다시 넣지 않는다.
	if prev == models.StateQueued {
		if !queue.Replace(entry) {
			d.logger.Debug("Matchmaking request while pairing in progress",
				zap.String("identity", session.Identity))
			return nil
		}
	} else {
		queue.Enqueue(entry)
	}

	d.logger.Debug("Entered matchmaking",
		zap.String("identity", session.Identity),
		zap.String("mode", string(mode)),
		zap.Int("queueSize", queue.Len()))

	publish(ctx, d.events, d.logger, models.MatchmakingEvent{
		Type:     models.EventPlayerQueued,
		GameMode: mode,
		Identity: session.Identity,
	})

	return nil
}

// OnInMatchMessage 매치 중 메시지 처리. 첫 메시지는 준비 신호, 이후 게임 패킷은 아직 미구현
func (d *Dispatcher) OnInMatchMessage(ctx context.Context, session models.Session, pkt *models.Packet, conn Conn) error {
	if session.ArenaID == "" {
		d.logger.Warn("In match without arena id",
			zap.String("identity", session.Identity),
			zap.Uint8("action", uint8(pkt.Action)))
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrProtocolViolation, session.Identity)
	}

	if d.initiator != nil && d.initiator.Acknowledge(session.Identity, session.ArenaID) {
		d.logger.Debug("Received ready signal",
			zap.String("identity", session.Identity),
			zap.String("arenaId", session.ArenaID))
		return nil
	}

	d.logger.Warn("Game packets not implemented",
		zap.String("identity", session.Identity),
		zap.String("arenaId", session.ArenaID))

	return conn.Send(ctx, models.NewAckPacket())
}

// Stats 현재 매칭 상태 요약
func (d *Dispatcher) Stats() map[string]interface{} {
	queues := make(map[string]int)
	for mode, size := range d.queues.Sizes() {
		queues[string(mode)] = size
	}
	sessions := make(map[string]int)
	for state, n := range d.sessions.CountByState() {
		sessions[string(state)] = n
	}
	arenas := make(map[string]int)
	for status, n := range d.arenas.CountByStatus() {
		arenas[string(status)] = n
	}

	pending := 0
	if d.initiator != nil {
		pending = d.initiator.Pending()
	}

	return map[string]interface{}{
		"queues":            queues,
		"sessions":          sessions,
		"arenas":            arenas,
		"pending_handshake": pending,
	}
}

// GetArena 아레나 조회 (API 용)
func (d *Dispatcher) GetArena(id string) (models.Arena, error) {
	return d.arenas.GetArena(id)
}

// reject 에러 응답 전송 후 연결 종료
func (d *Dispatcher) reject(ctx context.Context, conn Conn, kind models.ErrorKind, cause error) error {
	if err := conn.Send(ctx, models.NewErrorPacket(kind, cause.Error())); err != nil {
		d.logger.Debug("Failed to send error response", zap.String("kind", string(kind)), zap.Error(err))
	}
	_ = conn.Close()
	return cause
}
