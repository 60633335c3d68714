package automation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/crmforge/crmforge/internal/automation"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRuleSource struct {
	mock.Mock
}

func (m *mockRuleSource) ListForTrigger(ctx context.Context, workspaceID, entityID uuid.UUID, triggerType domain.TriggerType) ([]domain.Rule, error) {
	args := m.Called(ctx, workspaceID, entityID, triggerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rule), args.Error(1)
}

func (m *mockRuleSource) MarkExecuted(ctx context.Context, workspaceID, id uuid.UUID) error {
	args := m.Called(ctx, workspaceID, id)
	return args.Error(0)
}

func (m *mockRuleSource) LogExecution(ctx context.Context, exec *domain.Execution) error {
	args := m.Called(ctx, exec)
	return args.Error(0)
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, rule domain.Rule, event automation.Event) error {
	args := m.Called(ctx, rule, event)
	return args.Error(0)
}

func dealClosedRule(workspaceID, entityID uuid.UUID) domain.Rule {
	return domain.Rule{
		ID:          uuid.New(),
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		Name:        "congratulate on big wins",
		Trigger: domain.Trigger{
			Type:         domain.TriggerFieldChanged,
			FieldChanged: &domain.FieldChangedTrigger{Field: "stage"},
		},
		Conditions: []domain.Condition{
			{Field: "stage", Operator: domain.OpEquals, Value: domain.String("closed_won")},
			{Field: "amount", Operator: domain.OpGreaterThan, Value: domain.Number(1000)},
		},
		Action: domain.Action{
			Type:      domain.ActionSendEmail,
			SendEmail: &domain.EmailAction{To: "sales@acme.test", Subject: "Deal won", Body: "{{name}} closed"},
		},
		IsEnabled: true,
	}
}

func stageChangeEvent(workspaceID, entityID uuid.UUID, amount float64) automation.Event {
	return automation.Event{
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		RecordID:    uuid.New(),
		Type:        domain.TriggerFieldChanged,
		Data: domain.Payload{
			"name":   domain.String("Acme expansion"),
			"stage":  domain.String("closed_won"),
			"amount": domain.Number(amount),
		},
		Change: &domain.FieldChange{
			Field: "stage",
			From:  domain.String("negotiation"),
			To:    domain.String("closed_won"),
		},
		ActorID: uuid.New(),
	}
}

func TestEngine_Fire_DispatchesMatchingRule(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	rule := dealClosedRule(workspaceID, entityID)
	event := stageChangeEvent(workspaceID, entityID, 5000)

	rules := new(mockRuleSource)
	runner := new(mockRunner)
	rules.On("ListForTrigger", mock.Anything, workspaceID, entityID, domain.TriggerFieldChanged).
		Return([]domain.Rule{rule}, nil)
	runner.On("Run", mock.Anything, rule, event).Return(nil)
	rules.On("MarkExecuted", mock.Anything, workspaceID, rule.ID).Return(nil)
	rules.On("LogExecution", mock.Anything, mock.MatchedBy(func(exec *domain.Execution) bool {
		return exec.RuleID == rule.ID && exec.Status == domain.ExecutionSucceeded
	})).Return(nil)

	engine := automation.NewEngine(rules, runner, zerolog.Nop())
	engine.Fire(context.Background(), event)

	rules.AssertExpectations(t)
	runner.AssertExpectations(t)
}

func TestEngine_Fire_ConditionBlocksDispatch(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	rule := dealClosedRule(workspaceID, entityID)
	// Amount at the threshold: greater_than must not match.
	event := stageChangeEvent(workspaceID, entityID, 1000)

	rules := new(mockRuleSource)
	runner := new(mockRunner)
	rules.On("ListForTrigger", mock.Anything, workspaceID, entityID, domain.TriggerFieldChanged).
		Return([]domain.Rule{rule}, nil)

	engine := automation.NewEngine(rules, runner, zerolog.Nop())
	engine.Fire(context.Background(), event)

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_Fire_OtherFieldDoesNotMatch(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	rule := dealClosedRule(workspaceID, entityID)
	event := stageChangeEvent(workspaceID, entityID, 5000)
	event.Change = &domain.FieldChange{Field: "amount", From: domain.Number(0), To: domain.Number(5000)}

	rules := new(mockRuleSource)
	runner := new(mockRunner)
	rules.On("ListForTrigger", mock.Anything, workspaceID, entityID, domain.TriggerFieldChanged).
		Return([]domain.Rule{rule}, nil)

	engine := automation.NewEngine(rules, runner, zerolog.Nop())
	engine.Fire(context.Background(), event)

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestMatches_FieldChangedValuePins(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	event := stageChangeEvent(workspaceID, entityID, 5000)

	won := domain.String("closed_won")
	lost := domain.String("closed_lost")
	proposal := domain.String("proposal")

	rule := dealClosedRule(workspaceID, entityID)
	rule.Conditions = nil

	rule.Trigger.FieldChanged = &domain.FieldChangedTrigger{Field: "stage", To: &won}
	assert.True(t, automation.Matches(rule, event))

	rule.Trigger.FieldChanged = &domain.FieldChangedTrigger{Field: "stage", To: &lost}
	assert.False(t, automation.Matches(rule, event))

	rule.Trigger.FieldChanged = &domain.FieldChangedTrigger{Field: "stage", From: &proposal, To: &won}
	assert.False(t, automation.Matches(rule, event))
}

func TestEngine_Fire_FailureIsLoggedNotCounted(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	rule := dealClosedRule(workspaceID, entityID)
	event := stageChangeEvent(workspaceID, entityID, 5000)

	rules := new(mockRuleSource)
	runner := new(mockRunner)
	rules.On("ListForTrigger", mock.Anything, workspaceID, entityID, domain.TriggerFieldChanged).
		Return([]domain.Rule{rule}, nil)
	runner.On("Run", mock.Anything, rule, event).Return(errors.New("smtp down"))
	rules.On("LogExecution", mock.Anything, mock.MatchedBy(func(exec *domain.Execution) bool {
		return exec.Status == domain.ExecutionFailed && exec.Detail == "smtp down"
	})).Return(nil)

	engine := automation.NewEngine(rules, runner, zerolog.Nop())
	engine.Fire(context.Background(), event)

	// Execution stats only move on success.
	rules.AssertNotCalled(t, "MarkExecuted", mock.Anything, mock.Anything, mock.Anything)
	rules.AssertExpectations(t)
}

func TestEngine_Fire_DisabledRuleNeverMatches(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	rule := dealClosedRule(workspaceID, entityID)
	rule.IsEnabled = false
	event := stageChangeEvent(workspaceID, entityID, 5000)

	rules := new(mockRuleSource)
	runner := new(mockRunner)
	rules.On("ListForTrigger", mock.Anything, workspaceID, entityID, domain.TriggerFieldChanged).
		Return([]domain.Rule{rule}, nil)

	engine := automation.NewEngine(rules, runner, zerolog.Nop())
	engine.Fire(context.Background(), event)

	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_RunManual_SkipsMatching(t *testing.T) {
	workspaceID, entityID := uuid.New(), uuid.New()
	rule := dealClosedRule(workspaceID, entityID)
	rule.IsEnabled = false

	event := automation.Event{
		WorkspaceID: workspaceID,
		EntityID:    entityID,
		RecordID:    uuid.New(),
		Type:        domain.TriggerManual,
		Data:        domain.Payload{"name": domain.String("Acme")},
		ActorID:     uuid.New(),
	}

	rules := new(mockRuleSource)
	runner := new(mockRunner)
	runner.On("Run", mock.Anything, rule, event).Return(nil)
	rules.On("MarkExecuted", mock.Anything, workspaceID, rule.ID).Return(nil)
	rules.On("LogExecution", mock.Anything, mock.Anything).Return(nil)

	engine := automation.NewEngine(rules, runner, zerolog.Nop())
	err := engine.RunManual(context.Background(), rule, event)

	require.NoError(t, err)
	runner.AssertExpectations(t)
}

func TestMatches_EmptyConditionsAlwaysPass(t *testing.T) {
	rule := domain.Rule{
		Trigger:   domain.Trigger{Type: domain.TriggerRecordCreated},
		IsEnabled: true,
	}
	event := automation.Event{Type: domain.TriggerRecordCreated, Data: domain.Payload{}}

	assert.True(t, automation.Matches(rule, event))
}

func TestMatches_IsSetOperators(t *testing.T) {
	rule := domain.Rule{
		Trigger:   domain.Trigger{Type: domain.TriggerRecordCreated},
		IsEnabled: true,
		Conditions: []domain.Condition{
			{Field: "email", Operator: domain.OpIsSet},
			{Field: "archived_reason", Operator: domain.OpIsNotSet},
		},
	}

	event := automation.Event{
		Type: domain.TriggerRecordCreated,
		Data: domain.Payload{"email": domain.String("a@b.co")},
	}
	assert.True(t, automation.Matches(rule, event))

	event.Data["archived_reason"] = domain.String("spam")
	assert.False(t, automation.Matches(rule, event))
}
