package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RecordRepository handles record data access. Payloads live in a
// JSONB column so filtering uses containment instead of per-field
// columns.
type RecordRepository struct {
	db *DB
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Create creates a record
func (r *RecordRepository) Create(ctx context.Context, record *domain.Record) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	query := `
		INSERT INTO records (id, workspace_id, entity_id, data, tags, is_archived, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		record.ID,
		record.WorkspaceID,
		record.EntityID,
		data,
		record.Tags,
		record.IsArchived,
		record.CreatedBy,
		record.UpdatedBy,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}

	return nil
}

func scanRecord(row pgx.Row) (*domain.Record, error) {
	var record domain.Record
	var dataJSON []byte

	err := row.Scan(
		&record.ID,
		&record.WorkspaceID,
		&record.EntityID,
		&dataJSON,
		&record.Tags,
		&record.IsArchived,
		&record.CreatedBy,
		&record.UpdatedBy,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &record.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return &record, nil
}

// GetByID retrieves a record scoped to a workspace
func (r *RecordRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Record, error) {
	query := `
		SELECT id, workspace_id, entity_id, data, tags, is_archived, created_by, updated_by, created_at, updated_at
		FROM records
		WHERE workspace_id = $1 AND id = $2
	`

	record, err := scanRecord(r.db.Pool.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return record, nil
}

// List retrieves a page of records for an entity, newest first unless
// the caller sorts otherwise.
func (r *RecordRepository) List(ctx context.Context, workspaceID, entityID uuid.UUID, filter domain.RecordFilter, page domain.Pagination) (domain.Page[domain.Record], error) {
	var empty domain.Page[domain.Record]

	where := []string{"workspace_id = $1", "entity_id = $2"}
	args := []any{workspaceID, entityID}

	if !filter.IncludeArchived {
		where = append(where, "NOT is_archived")
	}
	if filter.Tag != "" {
		args = append(args, filter.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(tags)", len(args)))
	}
	if len(filter.Fields) > 0 {
		fieldsJSON, err := json.Marshal(filter.Fields)
		if err != nil {
			return empty, fmt.Errorf("failed to marshal field filter: %w", err)
		}
		args = append(args, fieldsJSON)
		where = append(where, fmt.Sprintf("data @> $%d::jsonb", len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT count(*) FROM records WHERE ` + whereClause
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return empty, fmt.Errorf("failed to count records: %w", err)
	}

	orderBy := "created_at"
	switch page.SortBy {
	case "", "created_at":
	case "updated_at":
		orderBy = "updated_at"
	default:
		return empty, fmt.Errorf("unsupported sort column %q", page.SortBy)
	}
	direction := "ASC"
	if page.SortDesc {
		direction = "DESC"
	}

	args = append(args, page.PageSize, page.Offset())
	query := fmt.Sprintf(`
		SELECT id, workspace_id, entity_id, data, tags, is_archived, created_by, updated_by, created_at, updated_at
		FROM records
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderBy, direction, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return empty, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return empty, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, *record)
	}

	return domain.NewPage(records, page, total), nil
}

// Update replaces a record's payload and metadata
func (r *RecordRepository) Update(ctx context.Context, record *domain.Record) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	query := `
		UPDATE records
		SET data = $3, tags = $4, is_archived = $5, updated_by = $6, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		record.WorkspaceID,
		record.ID,
		data,
		record.Tags,
		record.IsArchived,
		record.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Archive toggles a record's archived flag
func (r *RecordRepository) Archive(ctx context.Context, workspaceID, id, userID uuid.UUID, archived bool) error {
	query := `
		UPDATE records
		SET is_archived = $3, updated_by = $4, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, id, archived, userID)
	if err != nil {
		return fmt.Errorf("failed to archive record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete permanently removes a record along with its relationships
// and timeline entries
func (r *RecordRepository) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		statements := []string{
			`DELETE FROM activities WHERE workspace_id = $1 AND record_id = $2`,
			`DELETE FROM relationships WHERE workspace_id = $1 AND (from_record_id = $2 OR to_record_id = $2)`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, workspaceID, id); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM records WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
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
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return nil
}

// DeleteMany permanently removes a batch of records of one entity
func (r *RecordRepository) DeleteMany(ctx context.Context, workspaceID, entityID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		statements := []string{
			`DELETE FROM activities WHERE workspace_id = $1 AND record_id = ANY($3)
			   AND record_id IN (SELECT id FROM records WHERE entity_id = $2)`,
			`DELETE FROM relationships WHERE workspace_id = $1
			   AND (from_record_id = ANY($3) OR to_record_id = ANY($3))`,
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt, workspaceID, entityID, ids); err != nil {
				return err
			}
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM records WHERE workspace_id = $1 AND entity_id = $2 AND id = ANY($3)`,
			workspaceID, entityID, ids,
		)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}

	return deleted, nil
}

// ArchiveMany archives a batch of records of one entity
func (r *RecordRepository) ArchiveMany(ctx context.Context, workspaceID, entityID, userID uuid.UUID, ids []uuid.UUID, archived bool) (int64, error) {
	query := `
		UPDATE records
		SET is_archived = $4, updated_by = $5, updated_at = NOW()
		WHERE workspace_id = $1 AND entity_id = $2 AND id = ANY($3)
	`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, entityID, ids, archived, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to archive records: %w", err)
	}

	return tag.RowsAffected(), nil
}
