package repository

import (
	"context"
	"fmt"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgChildRepository struct {
	pool *pgxpool.Pool
}

func NewChildRepository(pool *pgxpool.Pool) *PgChildRepository {
	return &PgChildRepository{pool: pool}
}

// Create registers a child with its wearable device.
func (r *PgChildRepository) Create(ctx context.Context, child *model.Child) error {
	query := `
		INSERT INTO children (name, device_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, child.Name, child.DeviceID).
		Scan(&child.ID, &child.CreatedAt)

	if err != nil {
		return fmt.Errorf("create child: %w", err)
	}

	return nil
}

// GetByID gets a child by its id.
func (r *PgChildRepository) GetByID(ctx context.Context, id int64) (*model.Child, error) {
	query := `
		SELECT id, name, device_id, created_at
		FROM children
		WHERE id = $1
	`

	var child model.Child
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&child.ID,
		&child.Name,
		&child.DeviceID,
		&child.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get child by id: %w", err)
	}

	return &child, nil
}

// GetByDeviceID gets a child by its sensor device id.
func (r *PgChildRepository) GetByDeviceID(ctx context.Context, deviceID string) (*model.Child, error) {
	query := `
		SELECT id, name, device_id, created_at
		FROM children
		WHERE device_id = $1
	`

	var child model.Child
	err := r.pool.QueryRow(ctx, query, deviceID).Scan(
		&child.ID,
		&child.Name,
		&child.DeviceID,
		&child.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get child by device id: %w", err)
	}

	return &child, nil
}

// Count counts all registered children.
func (r *PgChildRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM children`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return count, nil
}
