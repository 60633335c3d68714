package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// RecordMutator applies action side effects to the store. Mutations
// made through this interface must not re-enter the engine, otherwise
// a rule could trigger itself forever.
type RecordMutator interface {
	SetField(ctx context.Context, workspaceID, recordID uuid.UUID, field string, value domain.Value, actorID uuid.UUID) error
	CreateRecord(ctx context.Context, workspaceID, entityID uuid.UUID, data domain.Payload, actorID uuid.UUID) error
	AppendTask(ctx context.Context, task TaskRequest) error
}

// TaskRequest describes a task activity an automation wants appended
// to a record's timeline.
type TaskRequest struct {
	WorkspaceID uuid.UUID
	RecordID    uuid.UUID
	Subject     string
	Body        string
	AssignedTo  *uuid.UUID
	DueAt       *time.Time
	ActorID     uuid.UUID
}

// EmailSender delivers action email
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TextGenerator produces model text for ai_generate actions
type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// Runner executes automation actions against their collaborators
type Runner struct {
	mutator   RecordMutator
	email     EmailSender
	webhooks  *WebhookDispatcher
	generator TextGenerator
}

// NewRunner creates a new action runner
func NewRunner(mutator RecordMutator, email EmailSender, webhooks *WebhookDispatcher, generator TextGenerator) *Runner {
	return &Runner{
		mutator:   mutator,
		email:     email,
		webhooks:  webhooks,
		generator: generator,
	}
}

// templateData is the payload snapshot plus the record id, so action
// templates can reference {{id}} alongside field placeholders.
func templateData(event Event) domain.Payload {
	data := event.Data.Clone()
	data["id"] = domain.String(event.RecordID.String())
	return data
}

// Run executes one rule's action for an event. Template placeholders
// in action text are filled from the event's payload snapshot.
func (r *Runner) Run(ctx context.Context, rule domain.Rule, event Event) error {
	action := rule.Action
	tmpl := templateData(event)
	switch action.Type {
	case domain.ActionSendEmail:
		cfg := action.SendEmail
		return r.email.Send(ctx,
			Render(cfg.To, tmpl),
			Render(cfg.Subject, tmpl),
			Render(cfg.Body, tmpl),
		)

	case domain.ActionCreateTask:
		cfg := action.CreateTask
		task := TaskRequest{
			WorkspaceID: event.WorkspaceID,
			RecordID:    event.RecordID,
			Subject:     Render(cfg.Subject, tmpl),
			Body:        Render(cfg.Body, tmpl),
			AssignedTo:  cfg.AssignedTo,
			ActorID:     event.ActorID,
		}
		if cfg.DueInDays > 0 {
			due := time.Now().UTC().AddDate(0, 0, cfg.DueInDays)
			task.DueAt = &due
		}
		return r.mutator.AppendTask(ctx, task)

	case domain.ActionUpdateField:
		cfg := action.UpdateField
		value := cfg.Value
		if value.Kind == domain.KindString {
			value = domain.String(Render(value.Str, tmpl))
		}
		return r.mutator.SetField(ctx, event.WorkspaceID, event.RecordID, cfg.Field, value, event.ActorID)

	case domain.ActionCreateRecord:
		cfg := action.CreateRecord
		data := make(domain.Payload, len(cfg.Data))
		for name, value := range cfg.Data {
			if value.Kind == domain.KindString {
				value = domain.String(Render(value.Str, tmpl))
			}
			data[name] = value
		}
		return r.mutator.CreateRecord(ctx, event.WorkspaceID, cfg.EntityID, data, event.ActorID)

	case domain.ActionWebhook:
		payload := map[string]any{
			"trigger":      event.Type,
			"workspace_id": event.WorkspaceID,
			"entity_id":    event.EntityID,
			"record_id":    event.RecordID,
			"rule_id":      rule.ID,
			"rule_name":    rule.Name,
			"data":         event.Data,
		}
		if event.Change != nil {
			payload["change"] = event.Change
		}
		return r.webhooks.Send(ctx, action.Webhook, payload)

	case domain.ActionAIGenerate:
		cfg := action.AIGenerate
		text, err := r.generator.GenerateText(ctx, "", Render(cfg.Prompt, tmpl))
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrExternalService, err)
		}
		return r.mutator.SetField(ctx, event.WorkspaceID, event.RecordID, cfg.TargetField, domain.String(text), event.ActorID)
	}

	return fmt.Errorf("unknown action type %q", action.Type)
}
