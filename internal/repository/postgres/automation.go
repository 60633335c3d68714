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

// AutomationRepository handles automation rule data access
type AutomationRepository struct {
	db *DB
}

// NewAutomationRepository creates a new automation repository
func NewAutomationRepository(db *DB) *AutomationRepository {
	return &AutomationRepository{db: db}
}

// Create creates an automation rule
func (r *AutomationRepository) Create(ctx context.Context, rule *domain.Rule) error {
	trigger, err := json.Marshal(rule.Trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger: %w", err)
	}
	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}
	action, err := json.Marshal(rule.Action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	query := `
		INSERT INTO automations (id, workspace_id, entity_id, name, description, trigger_type, trigger,
		                         conditions, action, is_enabled, execution_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		rule.ID,
		rule.WorkspaceID,
		rule.EntityID,
		rule.Name,
		rule.Description,
		rule.Trigger.Type,
		trigger,
		conditions,
		action,
		rule.IsEnabled,
		rule.ExecutionCount,
		rule.CreatedBy,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create automation: %w", err)
	}

	return nil
}

const automationColumns = `
	id, workspace_id, entity_id, name, description, trigger, conditions, action,
	is_enabled, execution_count, last_executed_at, created_by, created_at, updated_at
`

func scanRule(row pgx.Row) (*domain.Rule, error) {
	var rule domain.Rule
	var triggerJSON, conditionsJSON, actionJSON []byte

	err := row.Scan(
		&rule.ID,
		&rule.WorkspaceID,
		&rule.EntityID,
		&rule.Name,
		&rule.Description,
		&triggerJSON,
		&conditionsJSON,
		&actionJSON,
		&rule.IsEnabled,
		&rule.ExecutionCount,
		&rule.LastExecutedAt,
		&rule.CreatedBy,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(triggerJSON, &rule.Trigger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger: %w", err)
	}
	if err := json.Unmarshal(conditionsJSON, &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal(actionJSON, &rule.Action); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action: %w", err)
	}

	return &rule, nil
}

// GetByID retrieves an automation rule scoped to a workspace
func (r *AutomationRepository) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Rule, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE workspace_id = $1 AND id = $2`

	rule, err := scanRule(r.db.Pool.QueryRow(ctx, query, workspaceID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get automation: %w", err)
	}

	return rule, nil
}

// ListByWorkspace retrieves all automation rules of a workspace,
// optionally narrowed to one entity
func (r *AutomationRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, entityID *uuid.UUID) ([]domain.Rule, error) {
	query := `SELECT ` + automationColumns + ` FROM automations
		WHERE workspace_id = $1 AND ($2::uuid IS NULL OR entity_id = $2)
		ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

// ListForTrigger retrieves the enabled rules matching an entity and
// trigger type, in creation order.
func (r *AutomationRepository) ListForTrigger(ctx context.Context, workspaceID, entityID uuid.UUID, triggerType domain.TriggerType) ([]domain.Rule, error) {
	query := `SELECT ` + automationColumns + ` FROM automations
		WHERE workspace_id = $1 AND entity_id = $2 AND trigger_type = $3 AND is_enabled
		ORDER BY created_at ASC`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID, entityID, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to list automations for trigger: %w", err)
	}
	defer rows.Close()

	return collectRules(rows)
}

func collectRules(rows pgx.Rows) ([]domain.Rule, error) {
	var rules []domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}
		rules = append(rules, *rule)
	}
	return rules, nil
}

// Update updates an automation rule
func (r *AutomationRepository) Update(ctx context.Context, workspaceID, id uuid.UUID, update *domain.RuleUpdate) error {
	var trigger, conditions, action []byte
	var triggerType *domain.TriggerType
	var err error
	if update.Trigger != nil {
		trigger, err = json.Marshal(*update.Trigger)
		if err != nil {
			return fmt.Errorf("failed to marshal trigger: %w", err)
		}
		triggerType = &update.Trigger.Type
	}
	if update.Conditions != nil {
		conditions, err = json.Marshal(*update.Conditions)
		if err != nil {
			return fmt.Errorf("failed to marshal conditions: %w", err)
		}
	}
	if update.Action != nil {
		action, err = json.Marshal(*update.Action)
		if err != nil {
			return fmt.Errorf("failed to marshal action: %w", err)
		}
	}

	query := `
		UPDATE automations
		SET name = COALESCE($3, name),
		    description = COALESCE($4, description),
		    trigger_type = COALESCE($5, trigger_type),
		    trigger = COALESCE($6, trigger),
		    conditions = COALESCE($7, conditions),
		    action = COALESCE($8, action),
		    is_enabled = COALESCE($9, is_enabled),
		    updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, id,
		update.Name, update.Description, triggerType, trigger, conditions, action, update.IsEnabled,
	)
	if err != nil {
		return fmt.Errorf("failed to update automation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// Delete removes an automation rule along with its execution log
func (r *AutomationRepository) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM automation_executions WHERE workspace_id = $1 AND rule_id = $2`,
			workspaceID, id,
		); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM automations WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
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
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	return nil
}

// MarkExecuted bumps a rule's execution statistics after a successful
// dispatch
func (r *AutomationRepository) MarkExecuted(ctx context.Context, workspaceID, id uuid.UUID) error {
	query := `
		UPDATE automations
		SET execution_count = execution_count + 1, last_executed_at = NOW()
		WHERE workspace_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query, workspaceID, id)
	if err != nil {
		return fmt.Errorf("failed to mark automation executed: %w", err)
	}

	return nil
}

// LogExecution appends an execution audit entry
func (r *AutomationRepository) LogExecution(ctx context.Context, exec *domain.Execution) error {
	query := `
		INSERT INTO automation_executions (id, workspace_id, rule_id, record_id, trigger_type, status, detail, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		exec.ID,
		exec.WorkspaceID,
		exec.RuleID,
		exec.RecordID,
		exec.TriggerType,
		exec.Status,
		exec.Detail,
		exec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log execution: %w", err)
	}

	return nil
}

// ListExecutions retrieves a page of a rule's execution log, newest
// first
func (r *AutomationRepository) ListExecutions(ctx context.Context, workspaceID, ruleID uuid.UUID, page domain.Pagination) (domain.Page[domain.Execution], error) {
	var empty domain.Page[domain.Execution]

	var total int64
	countQuery := `SELECT count(*) FROM automation_executions WHERE workspace_id = $1 AND rule_id = $2`
	if err := r.db.Pool.QueryRow(ctx, countQuery, workspaceID, ruleID).Scan(&total); err != nil {
		return empty, fmt.Errorf("failed to count executions: %w", err)
	}

	query := `
		SELECT id, workspace_id, rule_id, record_id, trigger_type, status, detail, executed_at
		FROM automation_executions
		WHERE workspace_id = $1 AND rule_id = $2
		ORDER BY executed_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID, ruleID, page.PageSize, page.Offset())
	if err != nil {
		return empty, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var execs []domain.Execution
	for rows.Next() {
		var exec domain.Execution
		if err := rows.Scan(
			&exec.ID,
			&exec.WorkspaceID,
			&exec.RuleID,
			&exec.RecordID,
			&exec.TriggerType,
			&exec.Status,
			&exec.Detail,
			&exec.ExecutedAt,
		); err != nil {
			return empty, fmt.Errorf("failed to scan execution: %w", err)
		}
		execs = append(execs, exec)
	}

	return domain.NewPage(execs, page, total), nil
}
