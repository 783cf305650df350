package models

import "encoding/json"

type Action uint8

const (
	// 클라이언트: 매칭 요청 / 서버: 매치 성사 알림 (ArenaState 포함)
	ActionMatchmaking Action = 0
	// 서버: 대기 중이던 매치가 취소되어 큐로 되돌아감
	ActionMatchVoided Action = 254
	// 서버: 요청에 대한 응답 (Error 가 있으면 실패)
	ActionResponse Action = 255
)

type ErrorKind string

const (
	ErrorKindAlreadyInMatch      ErrorKind = "already_in_match"
	ErrorKindMissingGameMode     ErrorKind = "missing_game_mode"
	ErrorKindUnsupportedGameMode ErrorKind = "unsupported_game_mode"
)

type PacketError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

type ArenaState struct {
	Mode     GameMode `json:"mode"`
	Snapshot []byte   `json:"snapshot"`
}

type MatchVoidedPayload struct {
	ArenaID string `json:"arenaId"`
}

type Packet struct {
	Action     Action          `json:"action"`
	GameMode   *GameMode       `json:"gameMode,omitempty"`
	Error      *PacketError    `json:"error,omitempty"`
	ArenaState *ArenaState     `json:"arenaState,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewAckPacket 성공 응답 패킷
func NewAckPacket() *Packet {
	return &Packet{Action: ActionResponse}
}

// NewErrorPacket 에러 응답 패킷
func NewErrorPacket(kind ErrorKind, message string) *Packet {
	return &Packet{
		Action: ActionResponse,
		Error:  &PacketError{Kind: kind, Message: message},
	}
}

// NewMatchFoundPacket 매치 성사 패킷
func NewMatchFoundPacket(mode GameMode, snapshot []byte) *Packet {
	return &Packet{
		Action:     ActionMatchmaking,
		ArenaState: &ArenaState{Mode: mode, Snapshot: snapshot},
	}
}

// NewMatchVoidedPacket 매치 취소 패킷
func NewMatchVoidedPacket(arenaID string) *Packet {
	payload, _ := json.Marshal(MatchVoidedPayload{ArenaID: arenaID})
	return &Packet{
		Action:  ActionMatchVoided,
		Payload: payload,
	}
}

// ModePtr 리터럴 GameMode 포인터
func ModePtr(m GameMode) *GameMode {
	return &m
}
