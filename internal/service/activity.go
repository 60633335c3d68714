package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// ActivityService handles record timeline operations. Entries are
// never removed; completing and rescheduling are the only mutations.
type ActivityService struct {
	activities domain.ActivityRepository
	records    domain.RecordRepository
	authz      *Authorizer
}

// NewActivityService creates a new activity service
func NewActivityService(activities domain.ActivityRepository, records domain.RecordRepository, authz *Authorizer) *ActivityService {
	return &ActivityService{
		activities: activities,
		records:    records,
		authz:      authz,
	}
}

// Create appends an entry to a record's timeline
func (s *ActivityService) Create(ctx context.Context, userID, workspaceID, recordID uuid.UUID, input domain.ActivityCreate) (*domain.Activity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return nil, err
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}

	activity := &domain.Activity{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		RecordID:    recordID,
		Type:        input.Type,
		Subject:     input.Subject,
		Body:        input.Body,
		ScheduledAt: input.ScheduledAt,
		CompletedAt: input.CompletedAt,
		AssignedTo:  input.AssignedTo,
		Metadata:    input.Metadata,
		CreatedBy:   userID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	return activity, nil
}

// ListByRecord retrieves a page of a record's timeline, newest first
func (s *ActivityService) ListByRecord(ctx context.Context, userID, workspaceID, recordID uuid.UUID, page domain.Pagination) (domain.Page[domain.Activity], error) {
	var empty domain.Page[domain.Activity]
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return empty, err
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return empty, fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return empty, domain.ErrNotFound
	}

	result, err := s.activities.ListByRecord(ctx, workspaceID, recordID, page)
	if err != nil {
		return empty, fmt.Errorf("failed to list activities: %w", err)
	}
	return result, nil
}

// Complete marks a timeline entry as done
func (s *ActivityService) Complete(ctx context.Context, userID, workspaceID, activityID uuid.UUID) (*domain.Activity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return nil, err
	}

	if err := s.activities.Complete(ctx, workspaceID, activityID, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to complete activity: %w", err)
	}

	activity, err := s.activities.GetByID(ctx, workspaceID, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return nil, domain.ErrNotFound
	}
	return activity, nil
}

// Reschedule moves a timeline entry to a new scheduled time
func (s *ActivityService) Reschedule(ctx context.Context, userID, workspaceID, activityID uuid.UUID, scheduledAt time.Time) (*domain.Activity, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return nil, err
	}

	if err := s.activities.Reschedule(ctx, workspaceID, activityID, scheduledAt.UTC()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to reschedule activity: %w", err)
	}

	activity, err := s.activities.GetByID(ctx, workspaceID, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if activity == nil {
		return nil, domain.ErrNotFound
	}
	return activity, nil
}
