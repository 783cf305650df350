package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rl-arena/dice-backend/internal/models"
	"go.uber.org/zap"
)

// DefaultReadyTimeout 매치 성사 후 첫 메시지를 기다리는 기본 시간
const DefaultReadyTimeout = 30 * time.Second

// MatchInitiator 매칭된 두 세션을 아레나에 입장시키는 로직
type MatchInitiator struct {
	arenas       *ArenaRegistry
	sessions     *SessionRegistry
	queues       *QueueSet
	events       EventPublisher
	recorder     MatchRecorder
	logger       *zap.Logger
	readyTimeout time.Duration

	mu         sync.Mutex
	handshakes map[string]*handshake // identity -> 대기 중인 준비 신호
}

type handshake struct {
	connID  string
	arenaID string
	done    chan bool // true: 첫 메시지 수신, false: 연결 끊김
}

type matchPeer struct {
	entry     QueueEntry
	hs        *handshake
	delivered bool
	lost      bool
	stale     bool // 세션이 이미 다른 매치에 있음. 연결과 세션은 건드리지 않는다
	reason    string
}

// NewMatchInitiator MatchInitiator 생성
func NewMatchInitiator(
	arenas *ArenaRegistry,
	sessions *SessionRegistry,
	queues *QueueSet,
	events EventPublisher,
	recorder MatchRecorder,
	readyTimeout time.Duration,
	logger *zap.Logger,
) *MatchInitiator {
	if events == nil {
		events = nopPublisher{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if readyTimeout <= 0 {
		readyTimeout = DefaultReadyTimeout
	}

	return &MatchInitiator{
		arenas:       arenas,
		sessions:     sessions,
		queues:       queues,
		events:       events,
		recorder:     recorder,
		logger:       logger,
		readyTimeout: readyTimeout,
		handshakes:   make(map[string]*handshake),
	}
}

// Initiate 아레나 생성, 두 세션 InMatch 전이, 아레나 상태 전송 후 준비 신호 대기
func (m *MatchInitiator) Initiate(ctx context.Context, a, b QueueEntry) error {
	m.logger.Info("Starting 1v1 match",
		zap.String("player1", a.Identity),
		zap.String("player2", b.Identity),
		zap.String("mode", string(a.Mode)))

	arenaID, err := m.arenas.CreateArena(a.Mode)
	if err != nil {
		m.logger.Error("Failed to create arena", zap.Error(err))
		m.requeue(a)
		m.requeue(b)
		return fmt.Errorf("failed to create arena: %w", err)
	}

	if err := m.arenas.Update(arenaID, func(arena *models.Arena) {
		arena.Players = []string{a.Identity, b.Identity}
	}); err != nil {
		return m.abortMissingArena(arenaID, a, b, err)
	}

	arena, err := m.arenas.GetArena(arenaID)
	if err != nil {
		return m.abortMissingArena(arenaID, a, b, err)
	}

	snapshot, err := arena.Snapshot()
	if err != nil {
		m.logger.Error("Failed to encode arena snapshot",
			zap.String("arenaId", arenaID),
			zap.Error(err))
		m.void(ctx, arenaID, []*matchPeer{{entry: a}, {entry: b}}, "snapshot encoding failed")
		return fmt.Errorf("failed to encode arena snapshot: %w", err)
	}

	found := models.NewMatchFoundPacket(arena.Mode, snapshot)
	peers := []*matchPeer{{entry: a}, {entry: b}}

	// 클라이언트가 바로 응답해도 놓치지 않도록 전송 전에 등록.
	// 이미 다른 매치의 핸드셰이크를 기다리는 세션은 오래된 항목이다
	for _, p := range peers {
		hs, ok := m.expect(p.entry, arenaID)
		if !ok {
			m.logger.Warn("Matched session already pairing elsewhere",
				zap.String("identity", p.entry.Identity),
				zap.String("arenaId", arenaID))
			p.lost, p.stale, p.reason = true, true, "stale queue entry"
			continue
		}
		p.hs = hs
	}
	defer func() {
		for _, p := range peers {
			if p.hs != nil {
				m.forget(p.entry.Identity, p.hs)
			}
		}
	}()

	for _, p := range peers {
		if p.lost {
			continue
		}
		if _, err := m.sessions.EnterMatch(p.entry.Identity, p.entry.ConnID, arenaID); err != nil {
			m.logger.Warn("Matched session no longer available",
				zap.String("identity", p.entry.Identity),
				zap.String("arenaId", arenaID),
				zap.Error(err))
			p.lost, p.reason = true, "session unavailable"
			if errors.Is(err, ErrInvalidTransition) {
				p.stale = true
			}
			continue
		}

		m.logger.Info("Found match, sending arena",
			zap.String("identity", p.entry.Identity),
			zap.String("arenaId", arenaID))

		if err := p.entry.Conn.Send(ctx, found); err != nil {
			m.logger.Warn("Failed to deliver match-found",
				zap.String("identity", p.entry.Identity),
				zap.String("arenaId", arenaID),
				zap.Error(err))
			p.lost, p.reason = true, "send failed"
			continue
		}
		p.delivered = true
	}

	publish(ctx, m.events, m.logger, models.MatchmakingEvent{
		Type:     models.EventMatchFound,
		GameMode: arena.Mode,
		ArenaID:  arenaID,
		Players:  []string{a.Identity, b.Identity},
	})

	if reason, lost := lostReason(peers); lost {
		m.void(ctx, arenaID, peers, reason)
		return fmt.Errorf("%w: %s", ErrPeerLost, reason)
	}

	m.awaitReady(ctx, peers)

	if reason, lost := lostReason(peers); lost {
		m.void(ctx, arenaID, peers, reason)
		return fmt.Errorf("%w: %s", ErrPeerLost, reason)
	}

	now := time.Now()
	if err := m.arenas.Update(arenaID, func(arena *models.Arena) {
		arena.Status = models.ArenaStatusStarted
		arena.StartedAt = &now
	}); err != nil {
		m.logger.Error("Arena disappeared before start", zap.String("arenaId", arenaID), zap.Error(err))
		return err
	}

	m.logger.Info("1v1 match started",
		zap.String("arenaId", arenaID),
		zap.String("player1", a.Identity),
		zap.String("player2", b.Identity))

	publish(ctx, m.events, m.logger, models.MatchmakingEvent{
		Type:     models.EventMatchStarted,
		GameMode: arena.Mode,
		ArenaID:  arenaID,
		Players:  []string{a.Identity, b.Identity},
	})
	m.record(ctx, arenaID, arena.Mode, a, b, models.ArenaStatusStarted, "")

	return nil
}

// Acknowledge 매치 성사 후 첫 in-match 메시지 전달. 대기 중인 핸드셰이크가 없으면 false
func (m *MatchInitiator) Acknowledge(identity, arenaID string) bool {
	m.mu.Lock()
	hs, exists := m.handshakes[identity]
	if !exists || hs.arenaID != arenaID {
		m.mu.Unlock()
		return false
	}
	delete(m.handshakes, identity)
	m.mu.Unlock()

	hs.done <- true
	return true
}

// Abandon 연결이 끊긴 세션의 핸드셰이크 종료
func (m *MatchInitiator) Abandon(identity, connID string) {
	m.mu.Lock()
	hs, exists := m.handshakes[identity]
	if !exists || (connID != "" && hs.connID != connID) {
		m.mu.Unlock()
		return
	}
	delete(m.handshakes, identity)
	m.mu.Unlock()

	hs.done <- false
}

// Pending 준비 신호를 기다리는 세션 수
func (m *MatchInitiator) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handshakes)
}

// expect 핸드셰이크 등록. 같은 identity 의 핸드셰이크가 이미 있으면 false
func (m *MatchInitiator) expect(entry QueueEntry, arenaID string) (*handshake, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handshakes[entry.Identity]; exists {
		return nil, false
	}

	hs := &handshake{
		connID:  entry.ConnID,
		arenaID: arenaID,
		done:    make(chan bool, 1),
	}
	m.handshakes[entry.Identity] = hs
	return hs, true
}

func (m *MatchInitiator) forget(identity string, hs *handshake) {
	m.mu.Lock()
	if m.handshakes[identity] == hs {
		delete(m.handshakes, identity)
	}
	m.mu.Unlock()
}

func (m *MatchInitiator) awaitReady(ctx context.Context, peers []*matchPeer) {
	timer := time.NewTimer(m.readyTimeout)
	defer timer.Stop()

	expired := false
	for _, p := range peers {
		if p.lost {
			continue
		}

		if expired {
			select {
			case ok := <-p.hs.done:
				if !ok {
					p.lost, p.reason = true, "disconnected"
				}
			default:
				p.lost, p.reason = true, "ready timeout"
			}
			continue
		}

		select {
		case ok := <-p.hs.done:
			if !ok {
				p.lost, p.reason = true, "disconnected"
			}
		case <-timer.C:
			expired = true
			p.lost, p.reason = true, "ready timeout"
		case <-ctx.Done():
			expired = true
			p.lost, p.reason = true, "initiation cancelled"
		}
	}

	for _, p := range peers {
		if !p.lost {
			m.logger.Debug("Peer ready", zap.String("identity", p.entry.Identity))
		}
	}
}

// void 매치 취소: 끊긴 쪽은 연결 종료 후 Idle, 남은 쪽은 알림 후 다시 큐로
func (m *MatchInitiator) void(ctx context.Context, arenaID string, peers []*matchPeer, reason string) {
	if err := m.arenas.Update(arenaID, func(arena *models.Arena) {
		arena.Status = models.ArenaStatusVoided
	}); err != nil && !errors.Is(err, ErrArenaNotFound) {
		m.logger.Error("Failed to mark arena voided", zap.String("arenaId", arenaID), zap.Error(err))
	}

	m.logger.Warn("Match voided",
		zap.String("arenaId", arenaID),
		zap.String("reason", reason))

	for _, p := range peers {
		id, connID := p.entry.Identity, p.entry.ConnID

		if p.stale {
			continue
		}

		if p.lost {
			_ = p.entry.Conn.Close()
			if _, err := m.sessions.ResetToIdle(id, connID); err != nil && !errors.Is(err, ErrSessionNotFound) {
				m.logger.Error("Failed to reset lost peer", zap.String("identity", id), zap.Error(err))
			}
			continue
		}

		if !p.delivered {
			m.requeue(p.entry)
			continue
		}

		if _, err := m.sessions.ReturnToQueue(id, connID); err != nil {
			m.logger.Warn("Surviving peer could not be requeued",
				zap.String("identity", id),
				zap.Error(err))
			continue
		}

		if err := p.entry.Conn.Send(ctx, models.NewMatchVoidedPacket(arenaID)); err != nil {
			m.logger.Warn("Failed to notify surviving peer",
				zap.String("identity", id),
				zap.Error(err))
			_ = p.entry.Conn.Close()
			_, _ = m.sessions.ResetToIdle(id, connID)
			continue
		}

		m.requeue(p.entry)
	}

	publish(ctx, m.events, m.logger, models.MatchmakingEvent{
		Type:     models.EventMatchVoided,
		GameMode: peers[0].entry.Mode,
		ArenaID:  arenaID,
		Players:  []string{peers[0].entry.Identity, peers[1].entry.Identity},
		Reason:   reason,
	})
	m.record(ctx, arenaID, peers[0].entry.Mode, peers[0].entry, peers[1].entry, models.ArenaStatusVoided, reason)
}

func (m *MatchInitiator) abortMissingArena(arenaID string, a, b QueueEntry, err error) error {
	m.logger.Error("Arena missing right after creation",
		zap.String("arenaId", arenaID),
		zap.Error(err))
	m.requeue(a)
	m.requeue(b)
	return fmt.Errorf("arena lookup after create: %w", err)
}

// requeue 큐 맨 뒤에 다시 넣음
func (m *MatchInitiator) requeue(entry QueueEntry) {
	q, err := m.queues.Queue(entry.Mode)
	if err != nil {
		m.logger.Error("No queue for requeued entry",
			zap.String("identity", entry.Identity),
			zap.Error(err))
		return
	}

	entry.QueuedAt = time.Now()
	q.Enqueue(entry)

	m.logger.Info("Player returned to matchmaking queue",
		zap.String("identity", entry.Identity),
		zap.String("mode", string(entry.Mode)))
}

func (m *MatchInitiator) record(ctx context.Context, arenaID string, mode models.GameMode, a, b QueueEntry, status models.ArenaStatus, reason string) {
	rec := models.MatchRecord{
		ArenaID:   arenaID,
		GameMode:  mode,
		Player1ID: a.Identity,
		Player2ID: b.Identity,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if reason != "" {
		rec.Reason = &reason
	}

	if err := m.recorder.RecordMatch(ctx, rec); err != nil {
		m.logger.Error("Failed to record match", zap.String("arenaId", arenaID), zap.Error(err))
	}
}

func lostReason(peers []*matchPeer) (string, bool) {
	for _, p := range peers {
		if p.lost {
			return p.entry.Identity + ": " + p.reason, true
		}
	}
	return "", false
}
