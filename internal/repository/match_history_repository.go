package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rl-arena/dice-backend/internal/models"
	"github.com/rl-arena/dice-backend/pkg/database"
)

const matchHistorySchema = `
	CREATE TABLE IF NOT EXISTS match_history (
		arena_id   VARCHAR(16) PRIMARY KEY,
		game_mode  TEXT NOT NULL,
		player1_id TEXT NOT NULL,
		player2_id TEXT NOT NULL,
		status     TEXT NOT NULL,
		reason     TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

type MatchHistoryRepository struct {
	db *database.DB
}

func NewMatchHistoryRepository(db *database.DB) *MatchHistoryRepository {
	return &MatchHistoryRepository{db: db}
}

// EnsureSchema match_history 테이블 생성
func (r *MatchHistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, matchHistorySchema); err != nil {
		return fmt.Errorf("failed to create match_history table: %w", err)
	}
	return nil
}

// RecordMatch 매치 기록 저장. 같은 아레나는 마지막 상태로 갱신
func (r *MatchHistoryRepository) RecordMatch(ctx context.Context, record models.MatchRecord) error {
	query := `
		INSERT INTO match_history (arena_id, game_mode, player1_id, player2_id, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (arena_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			reason = EXCLUDED.reason
	`
	_, err := r.db.ExecContext(ctx, query,
		record.ArenaID,
		record.GameMode,
		record.Player1ID,
		record.Player2ID,
		record.Status,
		record.Reason,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}

// FindByArenaID 아레나 ID 로 기록 조회
func (r *MatchHistoryRepository) FindByArenaID(ctx context.Context, arenaID string) (*models.MatchRecord, error) {
	query := `
		SELECT arena_id, game_mode, player1_id, player2_id, status, reason, created_at
		FROM match_history
		WHERE arena_id = $1
	`

	record := &models.MatchRecord{}
	err := r.db.QueryRowContext(ctx, query, arenaID).Scan(
		&record.ArenaID,
		&record.GameMode,
		&record.Player1ID,
		&record.Player2ID,
		&record.Status,
		&record.Reason,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find match record: %w", err)
	}

	return record, nil
}

// ListByPlayer 플레이어가 참여한 최근 기록
func (r *MatchHistoryRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]models.MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT arena_id, game_mode, player1_id, player2_id, status, reason, created_at
		FROM match_history
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match records: %w", err)
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var record models.MatchRecord
		if err := rows.Scan(
			&record.ArenaID,
			&record.GameMode,
			&record.Player1ID,
			&record.Player2ID,
			&record.Status,
			&record.Reason,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
