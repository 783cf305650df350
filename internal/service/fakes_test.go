package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rl-arena/dice-backend/internal/models"
)

var errConnDead = errors.New("connection dead")

// fakeConn 전송된 패킷과 종료 여부를 기록
type fakeConn struct {
	mu      sync.Mutex
	packets []*models.Packet
	closed  bool
	failing bool
}

func (c *fakeConn) Send(_ context.Context, pkt *models.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failing || c.closed {
		return errConnDead
	}
	c.packets = append(c.packets, pkt)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Packets() []*models.Packet {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Packet, len(c.packets))
	copy(out, c.packets)
	return out
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// countAction 특정 action 패킷 수
func (c *fakeConn) countAction(action models.Action) int {
	n := 0
	for _, p := range c.Packets() {
		if p.Action == action && p.Error == nil {
			n++
		}
	}
	return n
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.MatchmakingEvent
}

func (p *fakePublisher) Publish(_ context.Context, event models.MatchmakingEvent) error {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Types() []models.MatchmakingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.MatchmakingEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.MatchRecord
}

func (r *fakeRecorder) RecordMatch(_ context.Context, record models.MatchRecord) error {
	r.mu.Lock()
	r.records = append(r.records, record)
	r.mu.Unlock()
	return nil
}

func (r *fakeRecorder) Records() []models.MatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.MatchRecord, len(r.records))
	copy(out, r.records)
	return out
}
