package repository

import (
	"context"
	"fmt"

	"github.com/danutirta/childguard_bot/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRoleLinkRepository struct {
	pool *pgxpool.Pool
}

func NewRoleLinkRepository(pool *pgxpool.Pool) *PgRoleLinkRepository {
	return &PgRoleLinkRepository{pool: pool}
}

// Create inserts the link. Returns false when the (holder, child, role)
// tuple already exists; the existing row is left untouched.
func (r *PgRoleLinkRepository) Create(ctx context.Context, link *model.RoleLink) (bool, error) {
	query := `
		INSERT INTO role_links (holder, child_id, role, note)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (holder, child_id, role) DO NOTHING
		RETURNING id, is_active, registered_at
	`

	err := r.pool.QueryRow(ctx, query, link.Holder, link.ChildID, link.Role, link.Note).
		Scan(&link.ID, &link.IsActive, &link.RegisteredAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("create role link: %w", err)
	}

	return true, nil
}

// ChildrenForHolder lists children actively linked to the holder under the
// given role, oldest link first.
func (r *PgRoleLinkRepository) ChildrenForHolder(ctx context.Context, holder model.Holder, role model.Role) ([]*model.Child, error) {
	query := `
		SELECT c.id, c.name, c.device_id, c.created_at
		FROM role_links rl
		JOIN children c ON c.id = rl.child_id
		WHERE rl.holder = $1 AND rl.role = $2 AND rl.is_active = true
		ORDER BY rl.registered_at, c.id
	`

	rows, err := r.pool.Query(ctx, query, holder, role)
	if err != nil {
		return nil, fmt.Errorf("get children for holder: %w", err)
	}
	defer rows.Close()

	var children []*model.Child
	for rows.Next() {
		var child model.Child
		err := rows.Scan(
			&child.ID,
			&child.Name,
			&child.DeviceID,
			&child.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, &child)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate children: %w", err)
	}

	return children, nil
}

// HoldersForChild lists active holders of the child under the given role.
func (r *PgRoleLinkRepository) HoldersForChild(ctx context.Context, childID int64, role model.Role) ([]model.Holder, error) {
	query := `
		SELECT holder
		FROM role_links
		WHERE child_id = $1 AND role = $2 AND is_active = true
		ORDER BY registered_at
	`

	rows, err := r.pool.Query(ctx, query, childID, role)
	if err != nil {
		return nil, fmt.Errorf("get holders for child: %w", err)
	}
	defer rows.Close()

	var holders []model.Holder
	for rows.Next() {
		var holder model.Holder
		if err := rows.Scan(&holder); err != nil {
			return nil, fmt.Errorf("scan holder: %w", err)
		}
		holders = append(holders, holder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holders: %w", err)
	}

	return holders, nil
}

// FirstActiveRole reports the role of the holder's oldest active link.
// Holders are expected to keep a single role across all their children.
func (r *PgRoleLinkRepository) FirstActiveRole(ctx context.Context, holder model.Holder) (model.Role, error) {
	query := `
		SELECT role
		FROM role_links
		WHERE holder = $1 AND is_active = true
		ORDER BY registered_at
		LIMIT 1
	`

	var role model.Role
	err := r.pool.QueryRow(ctx, query, holder).Scan(&role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.RoleUnknown, nil
		}
		return model.RoleUnknown, fmt.Errorf("get role for holder: %w", err)
	}

	return role, nil
}

// ResolveHolder rewrites links still keyed by the placeholder code to the
// resolved chat id. One-time migration, run on every session start.
func (r *PgRoleLinkRepository) ResolveHolder(ctx context.Context, code string, chatID int64) (int64, error) {
	query := `
		UPDATE role_links
		SET holder = $1
		WHERE holder = $2
	`

	result, err := r.pool.Exec(ctx, query, model.ResolvedHolder(chatID), model.PlaceholderHolder(code))
	if err != nil {
		return 0, fmt.Errorf("resolve holder: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeactivateForHolder deactivates all links of the holder under the role.
func (r *PgRoleLinkRepository) DeactivateForHolder(ctx context.Context, holder model.Holder, role model.Role) error {
	query := `
		UPDATE role_links
		SET is_active = false
		WHERE holder = $1 AND role = $2
	`

	if _, err := r.pool.Exec(ctx, query, holder, role); err != nil {
		return fmt.Errorf("deactivate links: %w", err)
	}

	return nil
}
