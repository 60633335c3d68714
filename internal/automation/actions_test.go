package automation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crmforge/crmforge/internal/automation"
	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMutator struct {
	mock.Mock
}

func (m *mockMutator) SetField(ctx context.Context, workspaceID, recordID uuid.UUID, field string, value domain.Value, actorID uuid.UUID) error {
	args := m.Called(ctx, workspaceID, recordID, field, value, actorID)
	return args.Error(0)
}

func (m *mockMutator) CreateRecord(ctx context.Context, workspaceID, entityID uuid.UUID, data domain.Payload, actorID uuid.UUID) error {
	args := m.Called(ctx, workspaceID, entityID, data, actorID)
	return args.Error(0)
}

func (m *mockMutator) AppendTask(ctx context.Context, task automation.TaskRequest) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

type mockEmail struct {
	mock.Mock
}

func (m *mockEmail) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

func runnerEvent() automation.Event {
	return automation.Event{
		WorkspaceID: uuid.New(),
		EntityID:    uuid.New(),
		RecordID:    uuid.New(),
		Type:        domain.TriggerRecordCreated,
		Data: domain.Payload{
			"name":  domain.String("Acme Corp"),
			"owner": domain.String("ada@acme.test"),
		},
		ActorID: uuid.New(),
	}
}

func TestRunner_SendEmailRendersTemplates(t *testing.T) {
	event := runnerEvent()
	email := new(mockEmail)
	email.On("Send", mock.Anything, "ada@acme.test", "Welcome Acme Corp", "Hello Acme Corp!").Return(nil)

	runner := automation.NewRunner(nil, email, nil, nil)
	rule := domain.Rule{Action: domain.Action{
		Type:      domain.ActionSendEmail,
		SendEmail: &domain.EmailAction{To: "{{owner}}", Subject: "Welcome {{name}}", Body: "Hello {{name}}!"},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, event))
	email.AssertExpectations(t)
}

func TestRunner_TemplatesExposeRecordID(t *testing.T) {
	event := runnerEvent()
	email := new(mockEmail)
	email.On("Send", mock.Anything, "ada@acme.test", "Record "+event.RecordID.String(), "ok").Return(nil)

	runner := automation.NewRunner(nil, email, nil, nil)
	rule := domain.Rule{Action: domain.Action{
		Type:      domain.ActionSendEmail,
		SendEmail: &domain.EmailAction{To: "{{owner}}", Subject: "Record {{id}}", Body: "ok"},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, event))
	email.AssertExpectations(t)
}

func TestRunner_UpdateFieldRendersStringValue(t *testing.T) {
	event := runnerEvent()
	mutator := new(mockMutator)
	mutator.On("SetField", mock.Anything, event.WorkspaceID, event.RecordID, "summary", domain.String("Acme Corp onboarded"), event.ActorID).Return(nil)

	runner := automation.NewRunner(mutator, nil, nil, nil)
	rule := domain.Rule{Action: domain.Action{
		Type:        domain.ActionUpdateField,
		UpdateField: &domain.UpdateFieldAction{Field: "summary", Value: domain.String("{{name}} onboarded")},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, event))
	mutator.AssertExpectations(t)
}

func TestRunner_CreateTaskComputesDueDate(t *testing.T) {
	event := runnerEvent()
	mutator := new(mockMutator)
	mutator.On("AppendTask", mock.Anything, mock.MatchedBy(func(task automation.TaskRequest) bool {
		return task.Subject == "Follow up with Acme Corp" &&
			task.DueAt != nil &&
			time.Until(*task.DueAt) > 2*24*time.Hour
	})).Return(nil)

	runner := automation.NewRunner(mutator, nil, nil, nil)
	rule := domain.Rule{Action: domain.Action{
		Type:       domain.ActionCreateTask,
		CreateTask: &domain.CreateTaskAction{Subject: "Follow up with {{name}}", DueInDays: 3},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, event))
	mutator.AssertExpectations(t)
}

func TestRunner_AIGenerateWritesTargetField(t *testing.T) {
	event := runnerEvent()
	mutator := new(mockMutator)
	generator := new(mockGenerator)
	generator.On("GenerateText", mock.Anything, "", "Summarize Acme Corp").Return("a fine company", nil)
	mutator.On("SetField", mock.Anything, event.WorkspaceID, event.RecordID, "summary", domain.String("a fine company"), event.ActorID).Return(nil)

	runner := automation.NewRunner(mutator, nil, nil, generator)
	rule := domain.Rule{Action: domain.Action{
		Type:       domain.ActionAIGenerate,
		AIGenerate: &domain.AIGenerateAction{Prompt: "Summarize {{name}}", TargetField: "summary"},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, event))
	mutator.AssertExpectations(t)
	generator.AssertExpectations(t)
}

func TestRunner_WebhookPostsEventPayload(t *testing.T) {
	event := runnerEvent()
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		assert.Equal(t, "secret", r.Header.Get("X-Signature"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	runner := automation.NewRunner(nil, nil, automation.NewWebhookDispatcher(5*time.Second), nil)
	rule := domain.Rule{ID: uuid.New(), Name: "notify", Action: domain.Action{
		Type:    domain.ActionWebhook,
		Webhook: &domain.WebhookAction{URL: server.URL, Headers: map[string]string{"X-Signature": "secret"}},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, event))
	assert.Equal(t, rule.ID.String(), received["rule_id"])
	assert.Equal(t, event.RecordID.String(), received["record_id"])
}

func TestRunner_WebhookHonorsMethod(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	runner := automation.NewRunner(nil, nil, automation.NewWebhookDispatcher(5*time.Second), nil)
	rule := domain.Rule{Action: domain.Action{
		Type:    domain.ActionWebhook,
		Webhook: &domain.WebhookAction{URL: server.URL, Method: "PUT"},
	}}

	require.NoError(t, runner.Run(context.Background(), rule, runnerEvent()))
	assert.Equal(t, http.MethodPut, method)
}

func TestRunner_WebhookRejectsUnknownMethod(t *testing.T) {
	runner := automation.NewRunner(nil, nil, automation.NewWebhookDispatcher(5*time.Second), nil)
	rule := domain.Rule{Action: domain.Action{
		Type:    domain.ActionWebhook,
		Webhook: &domain.WebhookAction{URL: "http://example.test", Method: "DELETE"},
	}}

	err := runner.Run(context.Background(), rule, runnerEvent())
	assert.ErrorContains(t, err, "unsupported webhook method")
}

func TestRunner_WebhookFailureIsExternalServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	runner := automation.NewRunner(nil, nil, automation.NewWebhookDispatcher(5*time.Second), nil)
	rule := domain.Rule{Action: domain.Action{
		Type:    domain.ActionWebhook,
		Webhook: &domain.WebhookAction{URL: server.URL},
	}}

	err := runner.Run(context.Background(), rule, runnerEvent())
	assert.ErrorIs(t, err, domain.ErrExternalService)
}
