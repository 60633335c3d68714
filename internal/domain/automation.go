package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TriggerType enumerates the automation trigger kinds.
type TriggerType string

const (
	TriggerRecordCreated TriggerType = "record_created"
	TriggerRecordUpdated TriggerType = "record_updated"
	TriggerRecordDeleted TriggerType = "record_deleted"
	TriggerFieldChanged  TriggerType = "field_changed"
	TriggerScheduled     TriggerType = "scheduled"
	TriggerManual        TriggerType = "manual"
)

// Valid reports whether the trigger type is supported.
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerRecordCreated, TriggerRecordUpdated, TriggerRecordDeleted,
		TriggerFieldChanged, TriggerScheduled, TriggerManual:
		return true
	}
	return false
}

// FieldChangedTrigger narrows a field_changed trigger to one field,
// optionally pinning the value it changed from or to.
type FieldChangedTrigger struct {
	Field string `json:"field"`
	From  *Value `json:"from,omitempty"`
	To    *Value `json:"to,omitempty"`
}

// ScheduledTrigger holds a cron expression for scheduled rules. Such
// rules are stored and listed but never fired by the engine; a
// scheduler is a separate deployment concern.
type ScheduledTrigger struct {
	Cron string `json:"cron"`
}

// Trigger is a tagged union over the trigger variants. Exactly the
// config matching Type is set; the others are nil.
type Trigger struct {
	Type         TriggerType
	FieldChanged *FieldChangedTrigger
	Scheduled    *ScheduledTrigger
}

type triggerJSON struct {
	Type         TriggerType          `json:"type"`
	FieldChanged *FieldChangedTrigger `json:"field_changed,omitempty"`
	Scheduled    *ScheduledTrigger    `json:"scheduled,omitempty"`
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	return json.Marshal(triggerJSON{Type: t.Type, FieldChanged: t.FieldChanged, Scheduled: t.Scheduled})
}

func (t *Trigger) UnmarshalJSON(data []byte) error {
	var raw triggerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("unknown trigger type %q", raw.Type)
	}
	*t = Trigger{Type: raw.Type}
	switch raw.Type {
	case TriggerFieldChanged:
		if raw.FieldChanged == nil || raw.FieldChanged.Field == "" {
			return fmt.Errorf("field_changed trigger requires a field")
		}
		t.FieldChanged = raw.FieldChanged
	case TriggerScheduled:
		if raw.Scheduled == nil || raw.Scheduled.Cron == "" {
			return fmt.Errorf("scheduled trigger requires a cron expression")
		}
		t.Scheduled = raw.Scheduled
	}
	return nil
}

// ActionType enumerates the automation action kinds.
type ActionType string

const (
	ActionSendEmail    ActionType = "send_email"
	ActionCreateTask   ActionType = "create_task"
	ActionUpdateField  ActionType = "update_field"
	ActionCreateRecord ActionType = "create_record"
	ActionWebhook      ActionType = "webhook"
	ActionAIGenerate   ActionType = "ai_generate"
)

// Valid reports whether the action type is supported.
func (t ActionType) Valid() bool {
	switch t {
	case ActionSendEmail, ActionCreateTask, ActionUpdateField,
		ActionCreateRecord, ActionWebhook, ActionAIGenerate:
		return true
	}
	return false
}

// EmailAction sends an email. Subject and body accept {{field}}
// placeholders substituted from the triggering record.
type EmailAction struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// CreateTaskAction appends a task activity to the triggering record.
type CreateTaskAction struct {
	Subject    string     `json:"subject"`
	Body       string     `json:"body,omitempty"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	DueInDays  int        `json:"due_in_days,omitempty"`
}

// UpdateFieldAction sets a field on the triggering record.
type UpdateFieldAction struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

// CreateRecordAction creates a record of another entity.
type CreateRecordAction struct {
	EntityID uuid.UUID `json:"entity_id"`
	Data     Payload   `json:"data"`
}

// WebhookAction sends the event to an external URL. Method defaults
// to POST; PUT and PATCH are also accepted.
type WebhookAction struct {
	URL     string            `json:"url"`
	Method  string            `json:"method,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// AIGenerateAction asks the model to produce text from a prompt and
// store it in a field of the triggering record.
type AIGenerateAction struct {
	Prompt      string `json:"prompt"`
	TargetField string `json:"target_field"`
}

// Action is a tagged union over the action variants.
type Action struct {
	Type         ActionType
	SendEmail    *EmailAction
	CreateTask   *CreateTaskAction
	UpdateField  *UpdateFieldAction
	CreateRecord *CreateRecordAction
	Webhook      *WebhookAction
	AIGenerate   *AIGenerateAction
}

type actionJSON struct {
	Type         ActionType          `json:"type"`
	SendEmail    *EmailAction        `json:"send_email,omitempty"`
	CreateTask   *CreateTaskAction   `json:"create_task,omitempty"`
	UpdateField  *UpdateFieldAction  `json:"update_field,omitempty"`
	CreateRecord *CreateRecordAction `json:"create_record,omitempty"`
	Webhook      *WebhookAction      `json:"webhook,omitempty"`
	AIGenerate   *AIGenerateAction   `json:"ai_generate,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(actionJSON{
		Type:         a.Type,
		SendEmail:    a.SendEmail,
		CreateTask:   a.CreateTask,
		UpdateField:  a.UpdateField,
		CreateRecord: a.CreateRecord,
		Webhook:      a.Webhook,
		AIGenerate:   a.AIGenerate,
	})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var raw actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !raw.Type.Valid() {
		return fmt.Errorf("unknown action type %q", raw.Type)
	}
	*a = Action{Type: raw.Type}
	switch raw.Type {
	case ActionSendEmail:
		if raw.SendEmail == nil || raw.SendEmail.To == "" {
			return fmt.Errorf("send_email action requires a recipient")
		}
		a.SendEmail = raw.SendEmail
	case ActionCreateTask:
		if raw.CreateTask == nil || raw.CreateTask.Subject == "" {
			return fmt.Errorf("create_task action requires a subject")
		}
		a.CreateTask = raw.CreateTask
	case ActionUpdateField:
		if raw.UpdateField == nil || raw.UpdateField.Field == "" {
			return fmt.Errorf("update_field action requires a field")
		}
		a.UpdateField = raw.UpdateField
	case ActionCreateRecord:
		if raw.CreateRecord == nil || raw.CreateRecord.EntityID == uuid.Nil {
			return fmt.Errorf("create_record action requires an entity id")
		}
		a.CreateRecord = raw.CreateRecord
	case ActionWebhook:
		if raw.Webhook == nil || raw.Webhook.URL == "" {
			return fmt.Errorf("webhook action requires a url")
		}
		a.Webhook = raw.Webhook
	case ActionAIGenerate:
		if raw.AIGenerate == nil || raw.AIGenerate.Prompt == "" || raw.AIGenerate.TargetField == "" {
			return fmt.Errorf("ai_generate action requires a prompt and a target field")
		}
		a.AIGenerate = raw.AIGenerate
	}
	return nil
}

// Operator enumerates the condition comparison operators.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpIsSet       Operator = "is_set"
	OpIsNotSet    Operator = "is_not_set"
)

// Valid reports whether the operator is supported.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpGreaterThan, OpLessThan, OpContains, OpIsSet, OpIsNotSet:
		return true
	}
	return false
}

// Condition compares one record field against a constant. A rule's
// conditions are combined with AND; an empty list always passes.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value,omitempty"`
}

// Matches evaluates the condition against a record payload. A missing
// field or an incomparable value pair fails the condition rather than
// erroring.
func (c Condition) Matches(data Payload) bool {
	v := data.Get(c.Field)
	switch c.Operator {
	case OpIsSet:
		return !v.IsNull()
	case OpIsNotSet:
		return v.IsNull()
	case OpEquals:
		return v.Equal(c.Value)
	case OpNotEquals:
		return !v.Equal(c.Value)
	case OpGreaterThan:
		cmp, ok := v.Compare(c.Value)
		return ok && cmp > 0
	case OpLessThan:
		cmp, ok := v.Compare(c.Value)
		return ok && cmp < 0
	case OpContains:
		return v.Contains(c.Value)
	}
	return false
}

// Rule is an automation: when the trigger fires on the rule's entity
// and every condition passes, the action runs. Disabled rules never
// match.
type Rule struct {
	ID             uuid.UUID   `json:"id"`
	WorkspaceID    uuid.UUID   `json:"workspace_id"`
	EntityID       uuid.UUID   `json:"entity_id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Trigger        Trigger     `json:"trigger"`
	Conditions     []Condition `json:"conditions"`
	Action         Action      `json:"action"`
	IsEnabled      bool        `json:"is_enabled"`
	ExecutionCount int64       `json:"execution_count"`
	LastExecutedAt *time.Time  `json:"last_executed_at,omitempty"`
	CreatedBy      uuid.UUID   `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// RuleCreate represents automation rule creation data.
type RuleCreate struct {
	EntityID    uuid.UUID   `json:"entity_id" validate:"required"`
	Name        string      `json:"name" validate:"required,max=200"`
	Description string      `json:"description,omitempty" validate:"max=1000"`
	Trigger     Trigger     `json:"trigger"`
	Conditions  []Condition `json:"conditions,omitempty"`
	Action      Action      `json:"action"`
	IsEnabled   *bool       `json:"is_enabled,omitempty"`
}

// RuleUpdate represents automation rule update data.
type RuleUpdate struct {
	Name        *string      `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string      `json:"description,omitempty" validate:"omitempty,max=1000"`
	Trigger     *Trigger     `json:"trigger,omitempty"`
	Conditions  *[]Condition `json:"conditions,omitempty"`
	Action      *Action      `json:"action,omitempty"`
	IsEnabled   *bool        `json:"is_enabled,omitempty"`
}

// ExecutionStatus enumerates automation execution outcomes.
type ExecutionStatus string

const (
	ExecutionSucceeded ExecutionStatus = "succeeded"
	ExecutionFailed    ExecutionStatus = "failed"
)

// Execution is one audit log entry of a rule dispatch.
type Execution struct {
	ID          uuid.UUID       `json:"id"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	RuleID      uuid.UUID       `json:"rule_id"`
	RecordID    *uuid.UUID      `json:"record_id,omitempty"`
	TriggerType TriggerType     `json:"trigger_type"`
	Status      ExecutionStatus `json:"status"`
	Detail      string          `json:"detail,omitempty"`
	ExecutedAt  time.Time       `json:"executed_at"`
}
