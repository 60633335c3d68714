package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActivityRepository handles timeline data access. Entries are
// append-only except for the completion and schedule timestamps.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends a timeline entry
func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	metadata, err := json.Marshal(activity.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO activities (id, workspace_id, record_id, activity_type, subject, body,
		                        scheduled_at, completed_at, assigned_to, metadata, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		activity.ID,
		activity.WorkspaceID,
		activity.RecordID,
		activity.Type,
		activity.Subject,
		activity.Body,
		activity.ScheduledAt,
		activity.CompletedAt,
		activity.AssignedTo,
		metadata,
		activity.CreatedBy,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	var metadataJSON []byte

	err := row.Scan(
		&activity.ID,
		&activity.WorkspaceID,
		&activity.RecordID,
		&activity.Type,
		&activity.Subject,
		&activity.Body,
		&activity.ScheduledAt,
		&activity.CompletedAt,
		&activity.AssignedTo,
		&metadataJSON,
		&activity.CreatedBy,
		&activity.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &activity.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &activity, nil
}

// GetByID retrieves a timeline entry scoped to a workspace
func (r *ActivityRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Activity, error) {
	query := `
		SELECT id, workspace_id, record_id, activity_type, subject, body,
		       scheduled_at, completed_at, assigned_to, metadata, created_by, created_at
		FROM activities
		WHERE workspace_id = $1 AND id = $2
	`

	activity, err := scanActivity(r.db.Pool.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return activity, nil
}

// ListByRecord retrieves a page of a record's timeline, newest first
func (r *ActivityRepository) ListByRecord(ctx context.Context, workspaceID, recordID uuid.UUID, page domain.Pagination) (domain.Page[domain.Activity], error) {
	var empty domain.Page[domain.Activity]

	var total int64
	countQuery := `SELECT count(*) FROM activities WHERE workspace_id = $1 AND record_id = $2`
	if err := r.db.Pool.QueryRow(ctx, countQuery, workspaceID, recordID).Scan(&total); err != nil {
		return empty, fmt.Errorf("failed to count activities: %w", err)
	}

	query := `
		SELECT id, workspace_id, record_id, activity_type, subject, body,
		       scheduled_at, completed_at, assigned_to, metadata, created_by, created_at
		FROM activities
		WHERE workspace_id = $1 AND record_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID, recordID, page.PageSize, page.Offset())
	if err != nil {
		return empty, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return empty, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *activity)
	}

	return domain.NewPage(activities, page, total), nil
}

// Complete stamps the completion time on a timeline entry
func (r *ActivityRepository) Complete(ctx context.Context, workspaceID, id uuid.UUID, completedAt time.Time) error {
	query := `UPDATE activities SET completed_at = $3 WHERE workspace_id = $1 AND id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, id, completedAt)
	if err != nil {
		return fmt.Errorf("failed to complete activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Reschedule moves the scheduled time of a timeline entry
func (r *ActivityRepository) Reschedule(ctx context.Context, workspaceID, id uuid.UUID, scheduledAt time.Time) error {
	query := `UPDATE activities SET scheduled_at = $3 WHERE workspace_id = $1 AND id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, id, scheduledAt)
	if err != nil {
		return fmt.Errorf("failed to reschedule activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}
