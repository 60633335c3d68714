package domain

import (
	"time"

	"github.com/google/uuid"
)

// Relationship is a directed, typed link between two records of the
// same workspace. The (from, to, type) triple is unique; creating it
// twice is a duplicate.
type Relationship struct {
	ID           uuid.UUID      `json:"id"`
	WorkspaceID  uuid.UUID      `json:"workspace_id"`
	FromRecordID uuid.UUID      `json:"from_record_id"`
	ToRecordID   uuid.UUID      `json:"to_record_id"`
	Type         string         `json:"relationship_type"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedBy    uuid.UUID      `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RelationshipCreate represents relationship creation data.
type RelationshipCreate struct {
	FromRecordID uuid.UUID      `json:"from_record_id" validate:"required"`
	ToRecordID   uuid.UUID      `json:"to_record_id" validate:"required"`
	Type         string         `json:"relationship_type" validate:"required,max=100"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
