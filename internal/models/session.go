package models

import "time"

type MembershipState string

const (
	StateIdle    MembershipState = "idle"
	StateQueued  MembershipState = "queued"
	StateInMatch MembershipState = "in_match"
)

type Session struct {
	Identity    string          `json:"identity"`
	ConnID      string          `json:"connId"`
	State       MembershipState `json:"state"`
	ArenaID     string          `json:"arenaId,omitempty"` // InMatch 상태에서만 설정
	ConnectedAt time.Time       `json:"connectedAt"`
}

// InMatch 매치 진행 중 여부
func (s Session) InMatch() bool {
	return s.State == StateInMatch
}

// Queued 매칭 대기 중 여부
func (s Session) Queued() bool {
	return s.State == StateQueued
}
