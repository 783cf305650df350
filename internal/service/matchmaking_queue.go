package service

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rl-arena/dice-backend/internal/models"
)

// Conn 클라이언트 연결 핸들 (websocket.Client 가 구현)
type Conn interface {
	Send(ctx context.Context, pkt *models.Packet) error
	Close() error
}

// QueueEntry 매칭 대기 항목
type QueueEntry struct {
	Identity string
	ConnID   string
	Mode     models.GameMode
	Conn     Conn
	QueuedAt time.Time
}

// MatchmakingQueue 게임 모드 하나의 FIFO 매칭 대기열
type MatchmakingQueue struct {
	mode    models.GameMode
	order   *list.List               // 삽입 순서 (front = 가장 오래 대기)
	entries map[string]*list.Element // identity -> order 원소
	mu      sync.RWMutex
	ready   chan struct{}
}

// NewMatchmakingQueue MatchmakingQueue 생성
func NewMatchmakingQueue(mode models.GameMode) *MatchmakingQueue {
	return newMatchmakingQueue(mode, make(chan struct{}, 1))
}

func newMatchmakingQueue(mode models.GameMode, ready chan struct{}) *MatchmakingQueue {
	return &MatchmakingQueue{
		mode:    mode,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		ready:   ready,
	}
}

// Mode 큐의 게임 모드
func (q *MatchmakingQueue) Mode() models.GameMode {
	return q.mode
}

// Enqueue 항목 추가. 이미 대기 중이면 연결 핸들만 교체하고 순서는 유지
func (q *MatchmakingQueue) Enqueue(entry QueueEntry) {
	if entry.QueuedAt.IsZero() {
		entry.QueuedAt = time.Now()
	}
	entry.Mode = q.mode

	q.mu.Lock()
	if elem, exists := q.entries[entry.Identity]; exists {
		prev := elem.Value.(QueueEntry)
		entry.QueuedAt = prev.QueuedAt
		elem.Value = entry
	} else {
		q.entries[entry.Identity] = q.order.PushBack(entry)
	}
	size := q.order.Len()
	q.mu.Unlock()

	if size >= 2 {
		q.signal()
	}
}

// Replace 대기 중인 항목의 연결 핸들만 교체. 큐에 없으면 아무것도 하지 않고 false
func (q *MatchmakingQueue) Replace(entry QueueEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	elem, exists := q.entries[entry.Identity]
	if !exists {
		return false
	}
	prev := elem.Value.(QueueEntry)
	entry.Mode = q.mode
	entry.QueuedAt = prev.QueuedAt
	elem.Value = entry
	return true
}

// Cancel 대기 항목 제거 (없으면 무시)
func (q *MatchmakingQueue) Cancel(identity string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	elem, exists := q.entries[identity]
	if !exists {
		return false
	}
	q.order.Remove(elem)
	delete(q.entries, identity)
	return true
}

// ExtractPair 가장 먼저 들어온 두 항목을 한 번에 꺼냄
func (q *MatchmakingQueue) ExtractPair() (QueueEntry, QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.order.Len() < 2 {
		return QueueEntry{}, QueueEntry{}, false
	}

	first := q.order.Front()
	second := first.Next()
	p1 := q.order.Remove(first).(QueueEntry)
	p2 := q.order.Remove(second).(QueueEntry)
	delete(q.entries, p1.Identity)
	delete(q.entries, p2.Identity)

	return p1, p2, true
}

// Len 대기 인원
func (q *MatchmakingQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.order.Len()
}

// Contains 대기 중 여부
func (q *MatchmakingQueue) Contains(identity string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	_, exists := q.entries[identity]
	return exists
}

// Identities 대기 순서대로 identity 목록
func (q *MatchmakingQueue) Identities() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	ids := make([]string, 0, q.order.Len())
	for elem := q.order.Front(); elem != nil; elem = elem.Next() {
		ids = append(ids, elem.Value.(QueueEntry).Identity)
	}
	return ids
}

// Ready 두 명 이상 대기하게 되면 신호
func (q *MatchmakingQueue) Ready() <-chan struct{} {
	return q.ready
}

func (q *MatchmakingQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
