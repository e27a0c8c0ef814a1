package repository

import (
	"context"
	"fmt"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgCodeMappingRepository struct {
	pool *pgxpool.Pool
}

func NewCodeMappingRepository(pool *pgxpool.Pool) *PgCodeMappingRepository {
	return &PgCodeMappingRepository{pool: pool}
}

// Claim inserts the mapping. ON CONFLICT DO NOTHING makes the claim atomic:
// under concurrent claims of one code exactly one insert wins, the rest see
// false.
func (r *PgCodeMappingRepository) Claim(ctx context.Context, m *model.CodeMapping) (bool, error) {
	query := `
		INSERT INTO code_mappings (user_code, chat_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING registered_at
	`

	err := r.pool.QueryRow(ctx, query, m.UserCode, m.ChatID, m.Role).
		Scan(&m.RegisteredAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("claim code: %w", err)
	}

	return true, nil
}

// GetByCode gets a mapping by its code.
func (r *PgCodeMappingRepository) GetByCode(ctx context.Context, code string) (*model.CodeMapping, error) {
	query := `
		SELECT user_code, chat_id, role, registered_at
		FROM code_mappings
		WHERE user_code = $1
	`

	var m model.CodeMapping
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&m.UserCode,
		&m.ChatID,
		&m.Role,
		&m.RegisteredAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mapping by code: %w", err)
	}

	return &m, nil
}

// GetByChatID gets a mapping by the chat that claimed it.
func (r *PgCodeMappingRepository) GetByChatID(ctx context.Context, chatID int64) (*model.CodeMapping, error) {
	query := `
		SELECT user_code, chat_id, role, registered_at
		FROM code_mappings
		WHERE chat_id = $1
	`

	var m model.CodeMapping
	err := r.pool.QueryRow(ctx, query, chatID).Scan(
		&m.UserCode,
		&m.ChatID,
		&m.Role,
		&m.RegisteredAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get mapping by chat id: %w", err)
	}

	return &m, nil
}
