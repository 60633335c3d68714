package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/automation"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// AutomationService handles automation rule management and the manual
// run-now operation
type AutomationService struct {
	rules    domain.AutomationRepository
	records  domain.RecordRepository
	entities *EntityService
	engine   *automation.Engine
	authz    *Authorizer
}

// NewAutomationService creates a new automation service
func NewAutomationService(
	rules domain.AutomationRepository,
	records domain.RecordRepository,
	entities *EntityService,
	engine *automation.Engine,
	authz *Authorizer,
) *AutomationService {
	return &AutomationService{
		rules:    rules,
		records:  records,
		entities: entities,
		engine:   engine,
		authz:    authz,
	}
}

// Create creates an automation rule, requiring admin
func (s *AutomationService) Create(ctx context.Context, userID, workspaceID uuid.UUID, input domain.RuleCreate) (*domain.Rule, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageSchema); err != nil {
		return nil, err
	}

	entity, err := s.entities.load(ctx, workspaceID, input.EntityID)
	if err != nil {
		return nil, err
	}

	if err := checkRuleShape(entity, input.Trigger, input.Conditions, input.Action); err != nil {
		return nil, err
	}

	enabled := true
	if input.IsEnabled != nil {
		enabled = *input.IsEnabled
	}

	now := time.Now().UTC()
	rule := &domain.Rule{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		EntityID:    input.EntityID,
		Name:        input.Name,
		Description: input.Description,
		Trigger:     input.Trigger,
		Conditions:  input.Conditions,
		Action:      input.Action,
		IsEnabled:   enabled,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create automation: %w", err)
	}

	return rule, nil
}

// GetByID retrieves an automation rule
func (s *AutomationService) GetByID(ctx context.Context, userID, workspaceID, ruleID uuid.UUID) (*domain.Rule, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	rule, err := s.rules.GetByID(ctx, workspaceID, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}
	return rule, nil
}

// List retrieves a workspace's automation rules, optionally narrowed
// to one entity
func (s *AutomationService) List(ctx context.Context, userID, workspaceID uuid.UUID, entityID *uuid.UUID) ([]domain.Rule, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	rules, err := s.rules.ListByWorkspace(ctx, workspaceID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	return rules, nil
}

// Update modifies an automation rule, requiring admin
func (s *AutomationService) Update(ctx context.Context, userID, workspaceID, ruleID uuid.UUID, input domain.RuleUpdate) (*domain.Rule, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageSchema); err != nil {
		return nil, err
	}

	current, err := s.rules.GetByID(ctx, workspaceID, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}

	trigger := current.Trigger
	if input.Trigger != nil {
		trigger = *input.Trigger
	}
	conditions := current.Conditions
	if input.Conditions != nil {
		conditions = *input.Conditions
	}
	action := current.Action
	if input.Action != nil {
		action = *input.Action
	}

	entity, err := s.entities.load(ctx, workspaceID, current.EntityID)
	if err != nil {
		return nil, err
	}
	if err := checkRuleShape(entity, trigger, conditions, action); err != nil {
		return nil, err
	}

	if err := s.rules.Update(ctx, workspaceID, ruleID, &input); err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update automation: %w", err)
	}

	rule, err := s.rules.GetByID(ctx, workspaceID, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}
	if rule == nil {
		return nil, domain.ErrNotFound
	}
	return rule, nil
}

// Delete removes an automation rule and its execution log, requiring
// admin
func (s *AutomationService) Delete(ctx context.Context, userID, workspaceID, ruleID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageSchema); err != nil {
		return err
	}

	if err := s.rules.Delete(ctx, workspaceID, ruleID); err != nil {
		if err == domain.ErrNotFound {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete automation: %w", err)
	}
	return nil
}

// RunNow dispatches a rule against one record immediately, skipping
// trigger and condition matching. The dispatch outcome is returned to
// the caller, unlike event-driven fires.
func (s *AutomationService) RunNow(ctx context.Context, userID, workspaceID, ruleID, recordID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapEditRecords); err != nil {
		return err
	}

	rule, err := s.rules.GetByID(ctx, workspaceID, ruleID)
	if err != nil {
		return fmt.Errorf("failed to get automation: %w", err)
	}
	if rule == nil {
		return domain.ErrNotFound
	}

	record, err := s.records.GetByID(ctx, workspaceID, recordID)
	if err != nil {
		return fmt.Errorf("failed to get record: %w", err)
	}
	if record == nil {
		return domain.ErrNotFound
	}
	if record.EntityID != rule.EntityID {
		return fmt.Errorf("%w: record does not belong to the rule's entity", domain.ErrCrossWorkspace)
	}

	return s.engine.RunManual(ctx, *rule, automation.Event{
		WorkspaceID: workspaceID,
		EntityID:    rule.EntityID,
		RecordID:    record.ID,
		Type:        domain.TriggerManual,
		Data:        record.Data.Clone(),
		ActorID:     userID,
	})
}

// ListExecutions retrieves a page of a rule's execution log,
// requiring admin
func (s *AutomationService) ListExecutions(ctx context.Context, userID, workspaceID, ruleID uuid.UUID, page domain.Pagination) (domain.Page[domain.Execution], error) {
	var empty domain.Page[domain.Execution]
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageSchema); err != nil {
		return empty, err
	}

	rule, err := s.rules.GetByID(ctx, workspaceID, ruleID)
	if err != nil {
		return empty, fmt.Errorf("failed to get automation: %w", err)
	}
	if rule == nil {
		return empty, domain.ErrNotFound
	}

	result, err := s.rules.ListExecutions(ctx, workspaceID, ruleID, page)
	if err != nil {
		return empty, fmt.Errorf("failed to list executions: %w", err)
	}
	return result, nil
}

// checkRuleShape verifies trigger and action configs reference fields
// the entity actually declares.
func checkRuleShape(entity *domain.Entity, trigger domain.Trigger, conditions []domain.Condition, action domain.Action) error {
	verr := &domain.ValidationError{}

	if !trigger.Type.Valid() {
		verr.Add("trigger", fmt.Sprintf("unknown trigger type %q", trigger.Type))
	}
	if trigger.Type == domain.TriggerFieldChanged {
		if trigger.FieldChanged == nil {
			verr.Add("trigger", "field_changed trigger requires a field")
		} else if _, ok := entity.Field(trigger.FieldChanged.Field); !ok {
			verr.Add("trigger", fmt.Sprintf("entity has no field %q", trigger.FieldChanged.Field))
		}
	}

	for _, cond := range conditions {
		if !cond.Operator.Valid() {
			verr.Add("conditions", fmt.Sprintf("unknown operator %q", cond.Operator))
		}
		if cond.Field == "" {
			verr.Add("conditions", "condition field is required")
		}
	}

	if !action.Type.Valid() {
		verr.Add("action", fmt.Sprintf("unknown action type %q", action.Type))
	}
	if action.Type == domain.ActionUpdateField && action.UpdateField != nil {
		if _, ok := entity.Field(action.UpdateField.Field); !ok {
			verr.Add("action", fmt.Sprintf("entity has no field %q", action.UpdateField.Field))
		}
	}
	if action.Type == domain.ActionAIGenerate && action.AIGenerate != nil {
		if _, ok := entity.Field(action.AIGenerate.TargetField); !ok {
			verr.Add("action", fmt.Sprintf("entity has no field %q", action.AIGenerate.TargetField))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}
