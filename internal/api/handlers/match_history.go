package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rl-arena/dice-backend/internal/api/middleware"
	"github.com/rl-arena/dice-backend/internal/models"
)

const maxHistoryLimit = 100

// MatchHistoryReader 매치 기록 조회 (repository.MatchHistoryRepository 가 구현)
type MatchHistoryReader interface {
	FindByArenaID(ctx context.Context, arenaID string) (*models.MatchRecord, error)
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]models.MatchRecord, error)
}

// MatchHistoryHandler 매치 기록 API. history 가 nil 이면 503
type MatchHistoryHandler struct {
	history MatchHistoryReader
}

// NewMatchHistoryHandler MatchHistoryHandler 생성
func NewMatchHistoryHandler(history MatchHistoryReader) *MatchHistoryHandler {
	return &MatchHistoryHandler{history: history}
}

// ListHistory 플레이어의 최근 매치 기록 (player 없으면 본인)
func (h *MatchHistoryHandler) ListHistory(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	player := c.Query("player")
	if player == "" {
		player = c.GetString(middleware.ContextUserID)
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := h.history.ListByPlayer(c.Request.Context(), player, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load match history"})
		return
	}
	if records == nil {
		records = []models.MatchRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"player":  player,
		"matches": records,
		"total":   len(records),
	})
}

// GetMatch 아레나 ID 로 매치 기록 조회
func (h *MatchHistoryHandler) GetMatch(c *gin.Context) {
	if !h.enabled(c) {
		return
	}

	record, err := h.history.FindByArenaID(c.Request.Context(), c.Param("arenaId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load match"})
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *MatchHistoryHandler) enabled(c *gin.Context) bool {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Match history is disabled"})
		return false
	}
	return true
}
