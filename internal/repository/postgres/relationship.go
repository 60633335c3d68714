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

// RelationshipRepository handles record link data access
type RelationshipRepository struct {
	db *DB
}

// NewRelationshipRepository creates a new relationship repository
func NewRelationshipRepository(db *DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// Create creates a relationship. The (from, to, type) triple is
// unique per workspace.
func (r *RelationshipRepository) Create(ctx context.Context, rel *domain.Relationship) error {
	metadata, err := json.Marshal(rel.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO relationships (id, workspace_id, from_record_id, to_record_id, relationship_type, metadata, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		rel.ID,
		rel.WorkspaceID,
		rel.FromRecordID,
		rel.ToRecordID,
		rel.Type,
		metadata,
		rel.CreatedBy,
		rel.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("failed to create relationship: %w", err)
	}

	return nil
}

// GetByID retrieves a relationship scoped to a workspace
func (r *RelationshipRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Relationship, error) {
	query := `
		SELECT id, workspace_id, from_record_id, to_record_id, relationship_type, metadata, created_by, created_at
		FROM relationships
		WHERE workspace_id = $1 AND id = $2
	`

	rel, err := scanRelationship(r.db.Pool.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}

	return rel, nil
}

func scanRelationship(row pgx.Row) (*domain.Relationship, error) {
	var rel domain.Relationship
	var metadataJSON []byte

	err := row.Scan(
		&rel.ID,
		&rel.WorkspaceID,
		&rel.FromRecordID,
		&rel.ToRecordID,
		&rel.Type,
		&metadataJSON,
		&rel.CreatedBy,
		&rel.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rel.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &rel, nil
}

// ListByRecord retrieves every relationship touching a record, both
// outgoing and incoming.
func (r *RelationshipRepository) ListByRecord(ctx context.Context, workspaceID, recordID uuid.UUID) ([]domain.Relationship, error) {
	query := `
		SELECT id, workspace_id, from_record_id, to_record_id, relationship_type, metadata, created_by, created_at
		FROM relationships
		WHERE workspace_id = $1 AND (from_record_id = $2 OR to_record_id = $2)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []domain.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, *rel)
	}

	return rels, nil
}

// Delete removes a relationship
func (r *RelationshipRepository) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	query := `DELETE FROM relationships WHERE workspace_id = $1 AND id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
