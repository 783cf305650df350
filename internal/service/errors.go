package service

import "errors"

// Client request errors
var (
	ErrAlreadyInMatch      = errors.New("already in match")
	ErrMissingGameMode     = errors.New("matchmaking request without game mode")
	ErrUnsupportedGameMode = errors.New("unsupported game mode")
	ErrInvalidAction       = errors.New("invalid action for session state")
	ErrProtocolViolation   = errors.New("in-match message without arena reference")
)

// Session registry errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExists     = errors.New("session already connected")
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// Arena registry errors
var (
	ErrArenaNotFound    = errors.New("arena not found")
	ErrArenaIDExhausted = errors.New("could not generate unique arena id")
)

// Match initiation errors
var (
	ErrPeerLost = errors.New("peer lost during match initiation")
)
