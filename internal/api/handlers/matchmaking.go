package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/dice-backend/internal/service"
	"github.com/rl-arena/dice-backend/internal/websocket"
)

// MatchmakingHandler 매칭/아레나 조회 API
type MatchmakingHandler struct {
	dispatcher *service.Dispatcher
	hub        *websocket.Hub
}

// NewMatchmakingHandler MatchmakingHandler 생성
func NewMatchmakingHandler(dispatcher *service.Dispatcher, hub *websocket.Hub) *MatchmakingHandler {
	return &MatchmakingHandler{
		dispatcher: dispatcher,
		hub:        hub,
	}
}

// GetStats 큐/세션/아레나 통계
func (h *MatchmakingHandler) GetStats(c *gin.Context) {
	stats := h.dispatcher.Stats()
	stats["websocket"] = h.hub.Stats()
	c.JSON(http.StatusOK, stats)
}

// GetArena 아레나 상태 조회
func (h *MatchmakingHandler) GetArena(c *gin.Context) {
	arena, err := h.dispatcher.GetArena(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrArenaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Arena not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, arena)
}
