package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/automation"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/validation"
	"github.com/google/uuid"
)

// RecordService handles record operations: schema-validated writes,
// filtered reads, and trigger events for the automation engine.
type RecordService struct {
	records    domain.RecordRepository
	activities domain.ActivityRepository
	entities   *EntityService
	validator  *validation.Validator
	authz      *Authorizer
	engine     *automation.Engine
}

// NewRecordService creates a new record service
func NewRecordService(
	records domain.RecordRepository,
	activities domain.ActivityRepository,
	entities *EntityService,
	validator *validation.Validator,
	authz *Authorizer,
) *RecordService {
	return &RecordService{
		records:    records,
		activities: activities,
		entities:   entities,
		validator:  validator,
		authz:      authz,
	}
}

// SetEngine attaches the automation engine. Wired after construction
// because the engine's action runner mutates records through this
// service.
func (s *RecordService) SetEngine(engine *automation.Engine) {
	s.engine = engine
}

func (s *RecordService) fire(ctx context.Context, event automation.Event) {
	if s.engine != nil {
		s.engine.Fire(ctx, event)
	}
}

// Create validates a payload against the entity schema and stores the
// record. Fires record_created on success.
func (s *RecordService) Create(ctx context.Context, userID, workspaceID, entityID uuid.UUID, input domain.RecordCreate) (*domain.Record, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return nil, err
	}

	entity, err := s.entities.load(ctx, workspaceID, entityID)
	if err != nil {
		return nil, err
	}

	data, err := s.validator.Validate(entity, input.Data)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &domain.Record{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		Data:        data,
		Tags:        input.Tags,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	s.fire(ctx, automation.Event{
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		RecordID:    record.ID,
		Type:        domain.TriggerRecordCreated,
		Data:        record.Data.Clone(),
		ActorID:     userID,
	})

	return record, nil
}

// GetByID retrieves a record
func (s *RecordService) GetByID(ctx context.Context, userID, workspaceID, recordID uuid.UUID) (*domain.Record, error) {
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

	return record, nil
}

// List retrieves a filtered page of an entity's records
func (s *RecordService) List(ctx context.Context, userID, workspaceID, entityID uuid.UUID, filter domain.RecordFilter, page domain.Pagination) (domain.Page[domain.Record], error) {
	var empty domain.Page[domain.Record]
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return empty, err
	}

	if _, err := s.entities.load(ctx, workspaceID, entityID); err != nil {
		return empty, err
	}

	result, err := s.records.List(ctx, workspaceID, entityID, filter, page)
	if err != nil {
		return empty, fmt.Errorf("failed to list records: %w", err)
	}
	return result, nil
}

// Update merges payload changes into a record, revalidating the full
// merged document. Fires record_updated plus one field_changed event
// per changed field; tag and archive patches skip schema validation.
func (s *RecordService) Update(ctx context.Context, userID, workspaceID, recordID uuid.UUID, input domain.RecordUpdate) (*domain.Record, error) {
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

	var changes []domain.FieldChange
	if len(input.Data) > 0 {
		entity, err := s.entities.load(ctx, workspaceID, record.EntityID)
		if err != nil {
			return nil, err
		}

		merged := record.Data.Clone()
		for name, value := range input.Data {
			merged[name] = value
		}

		validated, err := s.validator.Validate(entity, merged)
		if err != nil {
			return nil, err
		}

		for name := range input.Data {
			before := record.Data.Get(name)
			after := validated.Get(name)
			if !before.Equal(after) {
				changes = append(changes, domain.FieldChange{Field: name, From: before, To: after})
			}
		}
		record.Data = validated
	}

	if input.Tags != nil {
		record.Tags = *input.Tags
	}
	if input.IsArchived != nil {
		record.IsArchived = *input.IsArchived
	}
	record.UpdatedBy = &userID
	record.UpdatedAt = time.Now().UTC()

	if err := s.records.Update(ctx, record); err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update record: %w", err)
	}

	if len(changes) > 0 {
		snapshot := record.Data.Clone()
		s.fire(ctx, automation.Event{
			WorkspaceID: workspaceID,
			EntityID:    record.EntityID,
			RecordID:    record.ID,
			Type:        domain.TriggerRecordUpdated,
			Data:        snapshot,
			ActorID:     userID,
		})
		for i := range changes {
			change := changes[i]
			s.fire(ctx, automation.Event{
				WorkspaceID: workspaceID,
				EntityID:    record.EntityID,
				RecordID:    record.ID,
				Type:        domain.TriggerFieldChanged,
				Data:        snapshot,
				Change:      &change,
				ActorID:     userID,
			})
		}
	}

	return record, nil
}

// Archive is the default delete: the record disappears from listings
// but stays recoverable. Fires record_deleted.
func (s *RecordService) Archive(ctx context.Context, userID, workspaceID, recordID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return err
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return domain.ErrNotFound
	}

	if err := s.records.Archive(ctx, workspaceID, recordID, userID, true); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to archive record: %w", err)
	}

	s.fire(ctx, automation.Event{
		WorkspaceID: workspaceID,
		EntityID:    record.EntityID,
		RecordID:    record.ID,
		Type:        domain.TriggerRecordDeleted,
		Data:        record.Data.Clone(),
		ActorID:     userID,
	})

	return nil
}

// Restore unarchives a record
func (s *RecordService) Restore(ctx context.Context, userID, workspaceID, recordID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return err
	}

	if err := s.records.Archive(ctx, workspaceID, recordID, userID, false); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to restore record: %w", err)
	}
	return nil
}

// Delete permanently removes a record, requiring admin. Fires
// record_deleted.
func (s *RecordService) Delete(ctx context.Context, userID, workspaceID, recordID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapPurgeRecords); err != nil {
		return err
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return domain.ErrNotFound
	}

	if err := s.records.Delete(ctx, workspaceID, recordID); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}

	s.fire(ctx, automation.Event{
		WorkspaceID: workspaceID,
		EntityID:    record.EntityID,
		RecordID:    record.ID,
		Type:        domain.TriggerRecordDeleted,
		Data:        record.Data.Clone(),
		ActorID:     userID,
	})

	return nil
}

// ArchiveMany archives a batch of an entity's records
func (s *RecordService) ArchiveMany(ctx context.Context, userID, workspaceID, entityID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return 0, err
	}

	count, err := s.records.ArchiveMany(ctx, workspaceID, entityID, userID, ids, true)
	if err != nil {
		return 0, fmt.Errorf("failed to archive records: %w", err)
	}
	return count, nil
}

// DeleteMany permanently removes a batch of an entity's records,
// requiring admin
func (s *RecordService) DeleteMany(ctx context.Context, userID, workspaceID, entityID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapPurgeRecords); err != nil {
		return 0, err
	}

	count, err := s.records.DeleteMany(ctx, workspaceID, entityID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return count, nil
}

// UpdateMany applies one patch to a batch of an entity's records.
// Records that are missing or whose merged document fails validation
// are skipped; each successful update fires triggers as usual.
func (s *RecordService) UpdateMany(ctx context.Context, userID, workspaceID, entityID uuid.UUID, ids []uuid.UUID, input domain.RecordUpdate) (int64, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return 0, err
	}

	var count int64
	for _, id := range ids {
		record, err := s.records.GetByID(ctx, workspaceID, id)
		if err != nil {
			return count, fmt.Errorf("failed to get record: %w", err)
		}
		if record == nil || record.EntityID != entityID {
			continue
		}

		var verr *domain.ValidationError
		if _, err := s.Update(ctx, userID, workspaceID, id, input); err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.As(err, &verr) {
				continue
			}
			return count, err
		}
		count++
	}
	return count, nil
}

// The methods below implement automation.RecordMutator. They bypass
// authorization (the rule's workspace scoping already constrains
// them) and never fire trigger events, so an action cannot start an
// automation cascade.

// SetField writes one validated field on a record
func (s *RecordService) SetField(ctx context.Context, workspaceID, recordID uuid.UUID, field string, value domain.Value, actorID uuid.UUID) error {
	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return domain.ErrNotFound
	}

	entity, err := s.entities.load(ctx, workspaceID, record.EntityID)
	if err != nil {
		return err
	}

	merged := record.Data.Clone()
	merged[field] = value
	validated, err := s.validator.Validate(entity, merged)
	if err != nil {
		return err
	}

	record.Data = validated
	record.UpdatedBy = &actorID
	record.UpdatedAt = time.Now().UTC()
	if err := s.records.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return nil
}

// CreateRecord stores a validated record on behalf of an automation
func (s *RecordService) CreateRecord(ctx context.Context, workspaceID, entityID uuid.UUID, data domain.Payload, actorID uuid.UUID) error {
	entity, err := s.entities.load(ctx, workspaceID, entityID)
	if err != nil {
		return err
	}

	validated, err := s.validator.Validate(entity, data)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record := &domain.Record{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		Data:        validated,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.records.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// AppendTask appends a task activity to a record's timeline
func (s *RecordService) AppendTask(ctx context.Context, task automation.TaskRequest) error {
	activity := &domain.Activity{
		ID:          uuid.New(),
		WorkspaceID: task.WorkspaceID,
		RecordID:    task.RecordID,
		Type:        domain.ActivityTask,
		Subject:     task.Subject,
		Body:        task.Body,
		ScheduledAt: task.DueAt,
		AssignedTo:  task.AssignedTo,
		CreatedBy:   task.ActorID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return fmt.Errorf("failed to append task: %w", err)
	}
	return nil
}
