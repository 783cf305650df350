package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/rl-arena/dice-backend/internal/models"
)

// SessionRegistry 접속 중인 세션 테이블
type SessionRegistry struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

// NewSessionRegistry SessionRegistry 생성
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*models.Session),
	}
}

// Register 새 연결의 세션을 Idle 상태로 등록
func (r *SessionRegistry) Register(identity, connID string) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[identity]; exists {
		return models.Session{}, fmt.Errorf("%w: %s", ErrSessionExists, identity)
	}

	session := &models.Session{
		Identity:    identity,
		ConnID:      connID,
		State:       models.StateIdle,
		ConnectedAt: time.Now(),
	}
	r.sessions[identity] = session

	return *session, nil
}

// Get 세션 복사본 조회
func (r *SessionRegistry) Get(identity string) (models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[identity]
	if !exists {
		return models.Session{}, false
	}
	return *session, true
}

// Remove 세션 삭제 (connID 가 비어 있으면 연결과 무관하게 삭제)
func (r *SessionRegistry) Remove(identity, connID string) (models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[identity]
	if !exists || (connID != "" && session.ConnID != connID) {
		return models.Session{}, false
	}
	delete(r.sessions, identity)
	return *session, true
}

// 상태 전이 메서드의 connID 가 비어 있지 않으면 해당 연결의 세션일 때만 전이한다.

// BeginQueue Idle/Queued -> Queued. 전이 전 상태를 반환
func (r *SessionRegistry) BeginQueue(identity, connID string) (models.MembershipState, error) {
	var prev models.MembershipState
	_, err := r.transition(identity, connID, func(s *models.Session) error {
		prev = s.State
		if s.State == models.StateInMatch {
			return ErrAlreadyInMatch
		}
		s.State = models.StateQueued
		s.ArenaID = ""
		return nil
	})
	return prev, err
}

// EnterMatch Queued -> InMatch
func (r *SessionRegistry) EnterMatch(identity, connID, arenaID string) (models.Session, error) {
	return r.transition(identity, connID, func(s *models.Session) error {
		if s.State != models.StateQueued {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, models.StateInMatch)
		}
		s.State = models.StateInMatch
		s.ArenaID = arenaID
		return nil
	})
}

// ReturnToQueue InMatch -> Queued (매치 취소 시)
func (r *SessionRegistry) ReturnToQueue(identity, connID string) (models.Session, error) {
	return r.transition(identity, connID, func(s *models.Session) error {
		if s.State != models.StateInMatch {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, models.StateQueued)
		}
		s.State = models.StateQueued
		s.ArenaID = ""
		return nil
	})
}

// ResetToIdle 모든 상태 -> Idle
func (r *SessionRegistry) ResetToIdle(identity, connID string) (models.Session, error) {
	return r.transition(identity, connID, func(s *models.Session) error {
		s.State = models.StateIdle
		s.ArenaID = ""
		return nil
	})
}

// Count 접속 중인 세션 수
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CountByState 상태별 세션 수
func (r *SessionRegistry) CountByState() map[models.MembershipState]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[models.MembershipState]int{
		models.StateIdle:    0,
		models.StateQueued:  0,
		models.StateInMatch: 0,
	}
	for _, s := range r.sessions {
		counts[s.State]++
	}
	return counts
}

func (r *SessionRegistry) transition(identity, connID string, fn func(*models.Session) error) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[identity]
	if !exists || (connID != "" && session.ConnID != connID) {
		return models.Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, identity)
	}
	if err := fn(session); err != nil {
		return *session, err
	}
	return *session, nil
}
