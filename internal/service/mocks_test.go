package service

import (
	"context"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockWorkspaceRepo struct {
	mock.Mock
}

func (m *mockWorkspaceRepo) Create(ctx context.Context, workspace *domain.Workspace) error {
	return m.Called(ctx, workspace).Error(0)
}

func (m *mockWorkspaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workspace), args.Error(1)
}

func (m *mockWorkspaceRepo) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workspace), args.Error(1)
}

func (m *mockWorkspaceRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Workspace), args.Error(1)
}

func (m *mockWorkspaceRepo) Update(ctx context.Context, id uuid.UUID, update *domain.WorkspaceUpdate) error {
	return m.Called(ctx, id, update).Error(0)
}

func (m *mockWorkspaceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Upsert(ctx context.Context, user *domain.UserProfile) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

type mockMemberRepo struct {
	mock.Mock
}

func (m *mockMemberRepo) Add(ctx context.Context, member *domain.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockMemberRepo) Get(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.Member, error) {
	args := m.Called(ctx, workspaceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *mockMemberRepo) List(ctx context.Context, workspaceID uuid.UUID) ([]domain.Member, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Member), args.Error(1)
}

func (m *mockMemberRepo) UpdateRole(ctx context.Context, workspaceID, userID uuid.UUID, role domain.Role) error {
	return m.Called(ctx, workspaceID, userID, role).Error(0)
}

func (m *mockMemberRepo) Remove(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return m.Called(ctx, workspaceID, userID).Error(0)
}

type mockEntityRepo struct {
	mock.Mock
}

func (m *mockEntityRepo) Create(ctx context.Context, entity *domain.Entity) error {
	return m.Called(ctx, entity).Error(0)
}

func (m *mockEntityRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Entity, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *mockEntityRepo) GetByName(ctx context.Context, workspaceID uuid.UUID, name string) (*domain.Entity, error) {
	args := m.Called(ctx, workspaceID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entity), args.Error(1)
}

func (m *mockEntityRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]domain.Entity, error) {
	args := m.Called(ctx, workspaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Entity), args.Error(1)
}

func (m *mockEntityRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, update *domain.EntityUpdate) error {
	return m.Called(ctx, workspaceID, id, update).Error(0)
}

func (m *mockEntityRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

type mockRecordRepo struct {
	mock.Mock
}

func (m *mockRecordRepo) Create(ctx context.Context, record *domain.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRecordRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Record, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *mockRecordRepo) List(ctx context.Context, workspaceID, entityID uuid.UUID, filter domain.RecordFilter, page domain.Pagination) (domain.Page[domain.Record], error) {
	args := m.Called(ctx, workspaceID, entityID, filter, page)
	return args.Get(0).(domain.Page[domain.Record]), args.Error(1)
}

func (m *mockRecordRepo) Update(ctx context.Context, record *domain.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *mockRecordRepo) Archive(ctx context.Context, workspaceID, id, userID uuid.UUID, archived bool) error {
	return m.Called(ctx, workspaceID, id, userID, archived).Error(0)
}

func (m *mockRecordRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

func (m *mockRecordRepo) DeleteMany(ctx context.Context, workspaceID, entityID uuid.UUID, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, workspaceID, entityID, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRecordRepo) ArchiveMany(ctx context.Context, workspaceID, entityID, userID uuid.UUID, ids []uuid.UUID, archived bool) (int64, error) {
	args := m.Called(ctx, workspaceID, entityID, userID, ids, archived)
	return args.Get(0).(int64), args.Error(1)
}

type mockRelationshipRepo struct {
	mock.Mock
}

func (m *mockRelationshipRepo) Create(ctx context.Context, rel *domain.Relationship) error {
	return m.Called(ctx, rel).Error(0)
}

func (m *mockRelationshipRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Relationship, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Relationship), args.Error(1)
}

func (m *mockRelationshipRepo) ListByRecord(ctx context.Context, workspaceID, recordID uuid.UUID) ([]domain.Relationship, error) {
	args := m.Called(ctx, workspaceID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Relationship), args.Error(1)
}

func (m *mockRelationshipRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

type mockAutomationRepo struct {
	mock.Mock
}

func (m *mockAutomationRepo) Create(ctx context.Context, rule *domain.Rule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockAutomationRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Rule, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rule), args.Error(1)
}

func (m *mockAutomationRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID, entityID *uuid.UUID) ([]domain.Rule, error) {
	args := m.Called(ctx, workspaceID, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rule), args.Error(1)
}

func (m *mockAutomationRepo) ListForTrigger(ctx context.Context, workspaceID, entityID uuid.UUID, triggerType domain.TriggerType) ([]domain.Rule, error) {
	args := m.Called(ctx, workspaceID, entityID, triggerType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Rule), args.Error(1)
}

func (m *mockAutomationRepo) Update(ctx context.Context, workspaceID, id uuid.UUID, update *domain.RuleUpdate) error {
	return m.Called(ctx, workspaceID, id, update).Error(0)
}

func (m *mockAutomationRepo) Delete(ctx context.Context, workspaceID, id uuid.UUID) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

func (m *mockAutomationRepo) MarkExecuted(ctx context.Context, workspaceID, id uuid.UUID) error {
	return m.Called(ctx, workspaceID, id).Error(0)
}

func (m *mockAutomationRepo) LogExecution(ctx context.Context, exec *domain.Execution) error {
	return m.Called(ctx, exec).Error(0)
}

func (m *mockAutomationRepo) ListExecutions(ctx context.Context, workspaceID, ruleID uuid.UUID, page domain.Pagination) (domain.Page[domain.Execution], error) {
	args := m.Called(ctx, workspaceID, ruleID, page)
	return args.Get(0).(domain.Page[domain.Execution]), args.Error(1)
}

type mockActivityRepo struct {
	mock.Mock
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *domain.Activity) error {
	return m.Called(ctx, activity).Error(0)
}

func (m *mockActivityRepo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (*domain.Activity, error) {
	args := m.Called(ctx, workspaceID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Activity), args.Error(1)
}

func (m *mockActivityRepo) ListByRecord(ctx context.Context, workspaceID, recordID uuid.UUID, page domain.Pagination) (domain.Page[domain.Activity], error) {
	args := m.Called(ctx, workspaceID, recordID, page)
	return args.Get(0).(domain.Page[domain.Activity]), args.Error(1)
}

func (m *mockActivityRepo) Complete(ctx context.Context, workspaceID, id uuid.UUID, completedAt time.Time) error {
	return m.Called(ctx, workspaceID, id, completedAt).Error(0)
}

func (m *mockActivityRepo) Reschedule(ctx context.Context, workspaceID, id uuid.UUID, scheduledAt time.Time) error {
	return m.Called(ctx, workspaceID, id, scheduledAt).Error(0)
}

// memberOf wires a member repo so the authorizer resolves the given
// role for the user.
func memberOf(members *mockMemberRepo, workspaceID, userID uuid.UUID, role domain.Role) {
	members.On("Get", mock.Anything, workspaceID, userID).Return(&domain.Member{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}, nil)
}

// outsider wires a member repo so the user resolves to no membership.
func outsider(members *mockMemberRepo, workspaceID, userID uuid.UUID) {
	members.On("Get", mock.Anything, workspaceID, userID).Return(nil, nil)
}
