package models

import "time"

type MatchmakingEventType string

const (
	EventPlayerQueued MatchmakingEventType = "player_queued"
	EventMatchFound   MatchmakingEventType = "match_found"
	EventMatchStarted MatchmakingEventType = "match_started"
	EventMatchVoided  MatchmakingEventType = "match_voided"
	EventPlayerLeft   MatchmakingEventType = "player_left"
)

type MatchmakingEvent struct {
	ID        string               `json:"id"`
	Type      MatchmakingEventType `json:"type"`
	GameMode  GameMode             `json:"gameMode,omitempty"`
	Identity  string               `json:"identity,omitempty"`
	ArenaID   string               `json:"arenaId,omitempty"`
	Players   []string             `json:"players,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

type MatchRecord struct {
	ArenaID   string      `db:"arena_id" json:"arenaId"`
	GameMode  GameMode    `db:"game_mode" json:"gameMode"`
	Player1ID string      `db:"player1_id" json:"player1Id"`
	Player2ID string      `db:"player2_id" json:"player2Id"`
	Status    ArenaStatus `db:"status" json:"status"`
	Reason    *string     `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
}
