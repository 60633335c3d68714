package automation

import (
	"context"
	"sync"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event describes one trigger occurrence on a record.
type Event struct {
	WorkspaceID uuid.UUID
	EntityID    uuid.UUID
	RecordID    uuid.UUID
	Type        domain.TriggerType
	Data        domain.Payload
	Change      *domain.FieldChange
	ActorID     uuid.UUID
}

// RuleSource provides matching rules and records dispatch outcomes
type RuleSource interface {
	ListForTrigger(ctx context.Context, workspaceID, entityID uuid.UUID, triggerType domain.TriggerType) ([]domain.Rule, error)
	MarkExecuted(ctx context.Context, workspaceID, id uuid.UUID) error
	LogExecution(ctx context.Context, exec *domain.Execution) error
}

// ActionRunner executes one rule's action for an event
type ActionRunner interface {
	Run(ctx context.Context, rule domain.Rule, event Event) error
}

// Engine matches automation rules against record events and
// dispatches their actions. Matching is synchronous with the
// triggering write; dispatch is decoupled and best effort, so an
// action failure never fails the write that triggered it.
type Engine struct {
	rules  RuleSource
	runner ActionRunner
	logger zerolog.Logger
	async  bool
	wg     sync.WaitGroup
}

// Option configures the engine
type Option func(*Engine)

// WithAsyncDispatch makes the engine run actions on their own
// goroutines. Tests leave this off to keep dispatch deterministic.
func WithAsyncDispatch() Option {
	return func(e *Engine) {
		e.async = true
	}
}

// NewEngine creates a new automation engine
func NewEngine(rules RuleSource, runner ActionRunner, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		rules:  rules,
		runner: runner,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fire matches the enabled rules for an event and dispatches each
// match. Rules are evaluated in creation order against the same
// event snapshot, so the outcome does not depend on dispatch order.
func (e *Engine) Fire(ctx context.Context, event Event) {
	rules, err := e.rules.ListForTrigger(ctx, event.WorkspaceID, event.EntityID, event.Type)
	if err != nil {
		e.logger.Error().Err(err).
			Str("workspace_id", event.WorkspaceID.String()).
			Str("trigger", string(event.Type)).
			Msg("failed to load automation rules")
		return
	}

	for _, rule := range rules {
		if !Matches(rule, event) {
			continue
		}
		if e.async {
			e.wg.Add(1)
			go func(rule domain.Rule) {
				defer e.wg.Done()
				e.dispatch(context.WithoutCancel(ctx), rule, event)
			}(rule)
		} else {
			e.dispatch(ctx, rule, event)
		}
	}
}

// RunManual dispatches one rule immediately, skipping trigger and
// condition matching. Used by the run-now endpoint; unlike Fire, the
// outcome is returned to the caller.
func (e *Engine) RunManual(ctx context.Context, rule domain.Rule, event Event) error {
	return e.dispatch(ctx, rule, event)
}

// Wait blocks until in-flight async dispatches finish
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) dispatch(ctx context.Context, rule domain.Rule, event Event) error {
	err := e.runner.Run(ctx, rule, event)

	exec := &domain.Execution{
		ID:          uuid.New(),
		WorkspaceID: event.WorkspaceID,
		RuleID:      rule.ID,
		TriggerType: event.Type,
		Status:      domain.ExecutionSucceeded,
		ExecutedAt:  time.Now().UTC(),
	}
	if event.RecordID != uuid.Nil {
		recordID := event.RecordID
		exec.RecordID = &recordID
	}

	if err != nil {
		exec.Status = domain.ExecutionFailed
		exec.Detail = err.Error()
		e.logger.Error().Err(err).
			Str("rule_id", rule.ID.String()).
			Str("rule", rule.Name).
			Msg("automation action failed")
	} else if merr := e.rules.MarkExecuted(ctx, event.WorkspaceID, rule.ID); merr != nil {
		e.logger.Error().Err(merr).Str("rule_id", rule.ID.String()).Msg("failed to update execution stats")
	}

	if lerr := e.rules.LogExecution(ctx, exec); lerr != nil {
		e.logger.Error().Err(lerr).Str("rule_id", rule.ID.String()).Msg("failed to log execution")
	}

	return err
}

// Matches reports whether a rule applies to an event: the trigger
// variant must fit and every condition must pass against the event's
// payload snapshot.
func Matches(rule domain.Rule, event Event) bool {
	if !rule.IsEnabled {
		return false
	}
	if rule.Trigger.Type != event.Type {
		return false
	}
	if rule.Trigger.Type == domain.TriggerFieldChanged {
		fc := rule.Trigger.FieldChanged
		if event.Change == nil || fc == nil {
			return false
		}
		if fc.Field != event.Change.Field {
			return false
		}
		if fc.From != nil && !event.Change.From.Equal(*fc.From) {
			return false
		}
		if fc.To != nil && !event.Change.To.Equal(*fc.To) {
			return false
		}
	}

	for _, cond := range rule.Conditions {
		if !cond.Matches(event.Data) {
			return false
		}
	}
	return true
}
