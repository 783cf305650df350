package models

import (
	"encoding/json"
	"time"
)

type GameMode string

const (
	GameModeOneVOneNormal GameMode = "one_v_one_normal"
)

// Valid 지원하는 게임 모드인지 확인
func (m GameMode) Valid() bool {
	switch m {
	case GameModeOneVOneNormal:
		return true
	}
	return false
}

// SupportedGameModes 매칭 큐가 열리는 게임 모드 목록
func SupportedGameModes() []GameMode {
	return []GameMode{GameModeOneVOneNormal}
}

type ArenaStatus string

const (
	ArenaStatusPending ArenaStatus = "pending"
	ArenaStatusStarted ArenaStatus = "started"
	ArenaStatusVoided  ArenaStatus = "voided"
)

type Arena struct {
	ID        string      `json:"id"`
	Mode      GameMode    `json:"mode"`
	Status    ArenaStatus `json:"status"`
	Players   []string    `json:"players"`
	CreatedAt time.Time   `json:"createdAt"`
	StartedAt *time.Time  `json:"startedAt,omitempty"`
}

// Clone 다른 goroutine과 공유하지 않는 복사본 생성
func (a Arena) Clone() Arena {
	c := a
	if a.Players != nil {
		c.Players = append([]string(nil), a.Players...)
	}
	if a.StartedAt != nil {
		t := *a.StartedAt
		c.StartedAt = &t
	}
	return c
}

// Snapshot 클라이언트에게 전달할 아레나 상태 직렬화
func (a Arena) Snapshot() ([]byte, error) {
	return json.Marshal(a)
}
