package service

import (
	"context"
	"testing"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/crmforge/crmforge/internal/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEntityService() (*EntityService, *mockEntityRepo, *mockMemberRepo) {
	entities := new(mockEntityRepo)
	members := new(mockMemberRepo)
	svc := NewEntityService(entities, nil, validation.New(), NewAuthorizer(members, nil))
	return svc, entities, members
}

func contactCreate() domain.EntityCreate {
	return domain.EntityCreate{
		Name:         "contacts",
		DisplayName:  "Contacts",
		SingularName: "Contact",
		Fields: []domain.FieldDefinition{
			{Name: "name", Label: "Name", Type: domain.FieldText, Required: true},
			{Name: "email", Label: "Email", Type: domain.FieldEmail},
		},
	}
}

func TestEntityService_Create(t *testing.T) {
	svc, entities, members := newEntityService()

	workspaceID := uuid.New()
	adminID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)
	entities.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Entity) bool {
		return e.Name == "contacts" && e.WorkspaceID == workspaceID
	})).Return(nil)

	entity, err := svc.Create(context.Background(), adminID, workspaceID, contactCreate())
	require.NoError(t, err)
	assert.Equal(t, []domain.ViewType{domain.ViewTable}, entity.Views)
	assert.Equal(t, domain.ViewTable, entity.DefaultView)
	entities.AssertExpectations(t)
}

func TestEntityService_CreateRequiresAdmin(t *testing.T) {
	svc, entities, members := newEntityService()

	workspaceID := uuid.New()
	memberID := uuid.New()
	memberOf(members, workspaceID, memberID, domain.RoleMember)

	_, err := svc.Create(context.Background(), memberID, workspaceID, contactCreate())
	assert.ErrorIs(t, err, domain.ErrForbidden)
	entities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEntityService_CreateRejectsBadName(t *testing.T) {
	svc, _, members := newEntityService()

	workspaceID := uuid.New()
	adminID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)

	create := contactCreate()
	create.Name = "Bad Name"

	_, err := svc.Create(context.Background(), adminID, workspaceID, create)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Fields[0].Field)
}

func TestEntityService_CreateRejectsBadDefaultView(t *testing.T) {
	svc, _, members := newEntityService()

	workspaceID := uuid.New()
	adminID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)

	create := contactCreate()
	create.Views = []domain.ViewType{domain.ViewTable}
	create.DefaultView = domain.ViewKanban

	_, err := svc.Create(context.Background(), adminID, workspaceID, create)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "default_view", verr.Fields[0].Field)
}

func TestEntityService_CreateDuplicateName(t *testing.T) {
	svc, entities, members := newEntityService()

	workspaceID := uuid.New()
	adminID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)
	entities.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicate)

	_, err := svc.Create(context.Background(), adminID, workspaceID, contactCreate())
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestEntityService_ListKeepsRepositoryRecordCounts(t *testing.T) {
	svc, entities, members := newEntityService()

	workspaceID := uuid.New()
	memberID := uuid.New()
	memberOf(members, workspaceID, memberID, domain.RoleMember)
	entities.On("ListByWorkspace", mock.Anything, workspaceID).Return([]domain.Entity{
		{ID: uuid.New(), WorkspaceID: workspaceID, Name: "contacts", RecordCount: 7},
		{ID: uuid.New(), WorkspaceID: workspaceID, Name: "deals", RecordCount: 0},
	}, nil)

	listed, err := svc.List(context.Background(), memberID, workspaceID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, int64(7), listed[0].RecordCount)
	assert.Equal(t, int64(0), listed[1].RecordCount)
	entities.AssertExpectations(t)
}

func TestEntityService_DeleteProtectsSystemEntities(t *testing.T) {
	svc, entities, members := newEntityService()

	workspaceID := uuid.New()
	adminID := uuid.New()
	entityID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)
	entities.On("GetByID", mock.Anything, workspaceID, entityID).Return(&domain.Entity{
		ID:          entityID,
		WorkspaceID: workspaceID,
		Name:        "contacts",
		IsSystem:    true,
	}, nil)

	err := svc.Delete(context.Background(), adminID, workspaceID, entityID)
	assert.ErrorIs(t, err, domain.ErrProtected)
	entities.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestEntityService_DeleteMissingEntity(t *testing.T) {
	svc, entities, members := newEntityService()

	workspaceID := uuid.New()
	adminID := uuid.New()
	entityID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)
	entities.On("GetByID", mock.Anything, workspaceID, entityID).Return(nil, nil)

	err := svc.Delete(context.Background(), adminID, workspaceID, entityID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
