package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

// Start opens a session for (guardian, child). The partial unique index on
// active sessions makes this idempotent: if one is already open, the
// existing row is loaded into s instead.
func (r *PgSessionRepository) Start(ctx context.Context, s *model.MonitoringSession) error {
	query := `
		INSERT INTO monitoring_sessions (guardian_chat_id, child_id)
		VALUES ($1, $2)
		ON CONFLICT (guardian_chat_id, child_id) WHERE is_active DO NOTHING
		RETURNING id, near_school, arrived, is_active, start_time
	`

	err := r.pool.QueryRow(ctx, query, s.GuardianChatID, s.ChildID).
		Scan(&s.ID, &s.NearSchool, &s.Arrived, &s.IsActive, &s.StartTime)

	if err == nil {
		return nil
	}
	if err != pgx.ErrNoRows {
		return fmt.Errorf("start session: %w", err)
	}

	// Already open; load it.
	query = `
		SELECT id, guardian_chat_id, child_id, near_school, arrived, is_active, start_time, end_time
		FROM monitoring_sessions
		WHERE guardian_chat_id = $1 AND child_id = $2 AND is_active = true
	`

	err = r.pool.QueryRow(ctx, query, s.GuardianChatID, s.ChildID).Scan(
		&s.ID,
		&s.GuardianChatID,
		&s.ChildID,
		&s.NearSchool,
		&s.Arrived,
		&s.IsActive,
		&s.StartTime,
		&s.EndTime,
	)
	if err != nil {
		return fmt.Errorf("load open session: %w", err)
	}

	return nil
}

// GetActive lists all open sessions. Used to rebuild the in-memory table
// after a restart.
func (r *PgSessionRepository) GetActive(ctx context.Context) ([]*model.MonitoringSession, error) {
	query := `
		SELECT id, guardian_chat_id, child_id, near_school, arrived, is_active, start_time, end_time
		FROM monitoring_sessions
		WHERE is_active = true
		ORDER BY start_time
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.MonitoringSession
	for rows.Next() {
		var s model.MonitoringSession
		err := rows.Scan(
			&s.ID,
			&s.GuardianChatID,
			&s.ChildID,
			&s.NearSchool,
			&s.Arrived,
			&s.IsActive,
			&s.StartTime,
			&s.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// UpdateFlags persists the proximity flags of one session.
func (r *PgSessionRepository) UpdateFlags(ctx context.Context, id int64, near, arrived bool) error {
	query := `
		UPDATE monitoring_sessions
		SET near_school = $1, arrived = $2
		WHERE id = $3
	`

	result, err := r.pool.Exec(ctx, query, near, arrived, id)
	if err != nil {
		return fmt.Errorf("update session flags: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// End closes a session, keeping the row as the durable session log.
func (r *PgSessionRepository) End(ctx context.Context, id int64, endTime time.Time) error {
	query := `
		UPDATE monitoring_sessions
		SET is_active = false, arrived = false, end_time = $1
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, endTime, id)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found")
	}

	return nil
}

// EndAllForGuardian force-closes every open session of the guardian.
func (r *PgSessionRepository) EndAllForGuardian(ctx context.Context, guardianChatID int64) error {
	query := `
		UPDATE monitoring_sessions
		SET is_active = false, end_time = now()
		WHERE guardian_chat_id = $1 AND is_active = true
	`

	if _, err := r.pool.Exec(ctx, query, guardianChatID); err != nil {
		return fmt.Errorf("end sessions for guardian: %w", err)
	}

	return nil
}

// CountActive counts open sessions.
func (r *PgSessionRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM monitoring_sessions WHERE is_active = true`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active sessions: %w", err)
	}
	return count, nil
}
