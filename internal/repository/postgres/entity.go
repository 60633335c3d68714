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

// EntityRepository handles entity schema data access
type EntityRepository struct {
	db *DB
}

// NewEntityRepository creates a new entity repository
func NewEntityRepository(db *DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// Create creates an entity definition
func (r *EntityRepository) Create(ctx context.Context, entity *domain.Entity) error {
	fields, err := json.Marshal(entity.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}
	views, err := json.Marshal(entity.Views)
	if err != nil {
		return fmt.Errorf("failed to marshal views: %w", err)
	}

	query := `
		INSERT INTO entities (id, workspace_id, name, display_name, singular_name, icon, color, description,
		                      fields, views, default_view, is_system, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		entity.ID,
		entity.WorkspaceID,
		entity.Name,
		entity.DisplayName,
		entity.SingularName,
		entity.Icon,
		entity.Color,
		entity.Description,
		fields,
		views,
		entity.DefaultView,
		entity.IsSystem,
		entity.CreatedBy,
		entity.CreatedAt,
		entity.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create entity: %w", err)
	}

	return nil
}

const entityColumns = `
	e.id, e.workspace_id, e.name, e.display_name, e.singular_name, e.icon, e.color, e.description,
	e.fields, e.views, e.default_view, e.is_system, e.created_by, e.created_at, e.updated_at,
	(SELECT count(*) FROM records rec WHERE rec.entity_id = e.id AND NOT rec.is_archived) AS record_count
`

func scanEntity(row pgx.Row) (*domain.Entity, error) {
	var entity domain.Entity
	var fieldsJSON, viewsJSON []byte

	err := row.Scan(
		&entity.ID,
		&entity.WorkspaceID,
		&entity.Name,
		&entity.DisplayName,
		&entity.SingularName,
		&entity.Icon,
		&entity.Color,
		&entity.Description,
		&fieldsJSON,
		&viewsJSON,
		&entity.DefaultView,
		&entity.IsSystem,
		&entity.CreatedBy,
		&entity.CreatedAt,
		&entity.UpdatedAt,
		&entity.RecordCount,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldsJSON, &entity.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	if len(viewsJSON) > 0 {
		if err := json.Unmarshal(viewsJSON, &entity.Views); err != nil {
			return nil, fmt.Errorf("failed to unmarshal views: %w", err)
		}
	}

	return &entity, nil
}

// GetByID retrieves an entity scoped to a workspace. Lookups from
// another workspace come back as missing, never as an access error.
func (r *EntityRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities e WHERE e.workspace_id = $1 AND e.id = $2`

	entity, err := scanEntity(r.db.Pool.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return entity, nil
}

// GetByName retrieves an entity by its machine name
func (r *EntityRepository) GetByName(ctx context.Context, workspaceID uuid.UUID, name string) (*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities e WHERE e.workspace_id = $1 AND e.name = $2`

	entity, err := scanEntity(r.db.Pool.QueryRow(ctx, query, workspaceID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get entity by name: %w", err)
	}

	return entity, nil
}

// ListByWorkspace retrieves all entities of a workspace
func (r *EntityRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities e WHERE e.workspace_id = $1 ORDER BY e.created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}

	return entities, nil
}

// Update updates an entity definition
func (r *EntityRepository) Update(ctx context.Context, workspaceID, id uuid.UUID, update *domain.EntityUpdate) error {
	var fields, views []byte
	var err error
	if update.Fields != nil {
		fields, err = json.Marshal(*update.Fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}
	if update.Views != nil {
		views, err = json.Marshal(*update.Views)
		if err != nil {
			return fmt.Errorf("failed to marshal views: %w", err)
		}
	}

	query := `
		UPDATE entities
		SET display_name = COALESCE($3, display_name),
		    singular_name = COALESCE($4, singular_name),
		    icon = COALESCE($5, icon),
		    color = COALESCE($6, color),
		    description = COALESCE($7, description),
		    fields = COALESCE($8, fields),
		    views = COALESCE($9, views),
		    default_view = COALESCE($10, default_view),
		    updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, id,
		update.DisplayName, update.SingularName, update.Icon, update.Color,
		update.Description, fields, views, update.DefaultView,
	)
	if err != nil {
		return fmt.Errorf("failed to update entity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes an entity and everything stored against it. Child
// tables are cleared leaf-first in one transaction.
func (r *EntityRepository) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		statements := []string{
			`DELETE FROM activities WHERE workspace_id = $1
			   AND record_id IN (SELECT id FROM records WHERE entity_id = $2)`,
			`DELETE FROM relationships WHERE workspace_id = $1
			   AND (from_record_id IN (SELECT id FROM records WHERE entity_id = $2)
			     OR to_record_id IN (SELECT id FROM records WHERE entity_id = $2))`,
			`DELETE FROM automation_executions WHERE workspace_id = $1
			   AND rule_id IN (SELECT id FROM automations WHERE entity_id = $2)`,
			`DELETE FROM records WHERE workspace_id = $1 AND entity_id = $2`,
			`DELETE FROM automations WHERE workspace_id = $1 AND entity_id = $2`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, workspaceID, id); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM entities WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	return nil
}
