package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WorkspaceRepository handles workspace data access
type WorkspaceRepository struct {
	db *DB
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Create creates a workspace and its owner membership in one
// transaction, so a workspace never exists without exactly one owner.
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) error {
	config, err := json.Marshal(workspace.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO workspaces (id, name, slug, description, owner_id, config, subscription_tier, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`

		_, err := tx.Exec(ctx, query,
			workspace.ID,
			workspace.Name,
			workspace.Slug,
			workspace.Description,
			workspace.OwnerID,
			config,
			workspace.SubscriptionTier,
			workspace.IsActive,
			workspace.CreatedAt,
			workspace.UpdatedAt,
		)
		if err != nil {
			return err
		}

		memberQuery := `
			INSERT INTO workspace_members (workspace_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
		`

		_, err = tx.Exec(ctx, memberQuery,
			workspace.ID,
			workspace.OwnerID,
			domain.RoleOwner,
			workspace.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	query := `
		SELECT id, name, slug, description, owner_id, config, subscription_tier, is_active, created_at, updated_at
		FROM workspaces
		WHERE id = $1
	`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, id))
}

// GetBySlug retrieves a workspace by slug
func (r *WorkspaceRepository) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	query := `
		SELECT id, name, slug, description, owner_id, config, subscription_tier, is_active, created_at, updated_at
		FROM workspaces
		WHERE slug = $1
	`

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, slug))
}

func (r *WorkspaceRepository) scanOne(row pgx.Row) (*domain.Workspace, error) {
	var workspace domain.Workspace
	var configJSON []byte

	err := row.Scan(
		&workspace.ID,
		&workspace.Name,
		&workspace.Slug,
		&workspace.Description,
		&workspace.OwnerID,
		&configJSON,
		&workspace.SubscriptionTier,
		&workspace.IsActive,
		&workspace.CreatedAt,
		&workspace.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &workspace.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	return &workspace, nil
}

// ListByUserID retrieves all workspaces a user belongs to
func (r *WorkspaceRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	query := `
		SELECT w.id, w.name, w.slug, w.description, w.owner_id, w.config, w.subscription_tier, w.is_active, w.created_at, w.updated_at
		FROM workspaces w
		INNER JOIN workspace_members wm ON w.id = wm.workspace_id
		WHERE wm.user_id = $1
		ORDER BY w.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	var workspaces []domain.Workspace
	for rows.Next() {
		var workspace domain.Workspace
		var configJSON []byte

		if err := rows.Scan(
			&workspace.ID,
			&workspace.Name,
			&workspace.Slug,
			&workspace.Description,
			&workspace.OwnerID,
			&configJSON,
			&workspace.SubscriptionTier,
			&workspace.IsActive,
			&workspace.CreatedAt,
			&workspace.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}

		if len(configJSON) > 0 {
			json.Unmarshal(configJSON, &workspace.Config)
		}

		workspaces = append(workspaces, workspace)
	}

	return workspaces, nil
}

// Update updates a workspace
func (r *WorkspaceRepository) Update(ctx context.Context, id uuid.UUID, update *domain.WorkspaceUpdate) error {
	var config []byte
	if update.Config != nil {
		var err error
		config, err = json.Marshal(update.Config)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}

	query := `
		UPDATE workspaces
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    config = COALESCE($4, config),
		    is_active = COALESCE($5, is_active),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.Description, config, update.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}

	return nil
}

// Delete removes a workspace and everything inside it. Child tables
// are cleared leaf-first in one transaction.
func (r *WorkspaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		statements := []string{
			`DELETE FROM activities WHERE workspace_id = $1`,
			`DELETE FROM automation_executions WHERE workspace_id = $1`,
			`DELETE FROM relationships WHERE workspace_id = $1`,
			`DELETE FROM records WHERE workspace_id = $1`,
			`DELETE FROM automations WHERE workspace_id = $1`,
			`DELETE FROM entities WHERE workspace_id = $1`,
			`DELETE FROM workspace_members WHERE workspace_id = $1`,
			`DELETE FROM workspaces WHERE id = $1`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	return nil
}
