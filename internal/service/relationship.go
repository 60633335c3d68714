package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// RelationshipService handles record link operations
type RelationshipService struct {
	relationships domain.RelationshipRepository
	records       domain.RecordRepository
	authz         *Authorizer
}

// NewRelationshipService creates a new relationship service
func NewRelationshipService(relationships domain.RelationshipRepository, records domain.RecordRepository, authz *Authorizer) *RelationshipService {
	return &RelationshipService{
		relationships: relationships,
		records:       records,
		authz:         authz,
	}
}

// Create links two records. Both endpoints must exist in the caller's
// workspace; a record from another workspace reads as missing.
func (s *RelationshipService) Create(ctx context.Context, userID, workspaceID uuid.UUID, input domain.RelationshipCreate) (*domain.Relationship, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return nil, err
	}

	if input.FromRecordID == input.ToRecordID {
		verr := &domain.ValidationError{}
		verr.Add("to_record_id", "a record cannot be linked to itself")
		return nil, verr
	}

	for _, recordID := range []uuid.UUID{input.FromRecordID, input.ToRecordID} {
		record, err := s.records.GetByID(ctx, workspaceID, recordID)
		if err != nil {
			return nil, fmt.Errorf("failed to get record: %w", err)
		}
		if record == nil {
			return nil, domain.ErrNotFound
		}
	}

	rel := &domain.Relationship{
		ID:           uuid.New(),
		WorkspaceID:  workspaceID,
		FromRecordID: input.FromRecordID,
		ToRecordID:   input.ToRecordID,
		Type:         input.Type,
		Metadata:     input.Metadata,
		CreatedBy:    userID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.relationships.Create(ctx, rel); err != nil {
		if err == domain.ErrDuplicate {
			return nil, fmt.Errorf("%w: these records are already linked as %q", domain.ErrDuplicate, input.Type)
		}
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}

	return rel, nil
}

// ListByRecord retrieves every link touching a record
func (s *RelationshipService) ListByRecord(ctx context.Context, userID, workspaceID, recordID uuid.UUID) ([]domain.Relationship, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	rels, err := s.relationships.ListByRecord(ctx, workspaceID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	return rels, nil
}

// Neighbors retrieves the records a record points at, following edges
// from their from side. An empty relationshipType keeps every edge.
// Records deleted since the edge was created are skipped.
func (s *RelationshipService) Neighbors(ctx context.Context, userID, workspaceID, recordID uuid.UUID, relationshipType string) ([]domain.Record, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	rels, err := s.relationships.ListByRecord(ctx, workspaceID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	var neighbors []domain.Record
	for _, rel := range rels {
		if rel.FromRecordID != recordID {
			continue
		}
		if relationshipType != "" && rel.Type != relationshipType {
			continue
		}
		target, err := s.records.GetByID(ctx, workspaceID, rel.ToRecordID)
		if err != nil {
			return nil, fmt.Errorf("failed to get record: %w", err)
		}
		if target == nil {
			continue
		}
		neighbors = append(neighbors, *target)
	}
	return neighbors, nil
}

// Delete removes a link
func (s *RelationshipService) Delete(ctx context.Context, userID, workspaceID, relationshipID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return err
	}

	if err := s.relationships.Delete(ctx, workspaceID, relationshipID); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return nil
}
