package service

import (
	"context"
	"testing"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRelationshipService(relationships *mockRelationshipRepo, records *mockRecordRepo, members *mockMemberRepo) *RelationshipService {
	return NewRelationshipService(relationships, records, NewAuthorizer(members, nil))
}

func TestRelationshipService_CreateRejectsSelfLink(t *testing.T) {
	relationships := new(mockRelationshipRepo)
	records := new(mockRecordRepo)
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	recordID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleMember)

	svc := newRelationshipService(relationships, records, members)

	_, err := svc.Create(context.Background(), userID, workspaceID, domain.RelationshipCreate{
		FromRecordID: recordID,
		ToRecordID:   recordID,
		Type:         "related_to",
	})

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	relationships.AssertNotCalled(t, "Create")
}

func TestRelationshipService_CreateRequiresBothRecords(t *testing.T) {
	relationships := new(mockRelationshipRepo)
	records := new(mockRecordRepo)
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	fromID := uuid.New()
	toID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleMember)

	records.On("GetByID", mock.Anything, workspaceID, fromID).Return(&domain.Record{ID: fromID, WorkspaceID: workspaceID}, nil)
	records.On("GetByID", mock.Anything, workspaceID, toID).Return(nil, nil)

	svc := newRelationshipService(relationships, records, members)

	_, err := svc.Create(context.Background(), userID, workspaceID, domain.RelationshipCreate{
		FromRecordID: fromID,
		ToRecordID:   toID,
		Type:         "works_at",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	relationships.AssertNotCalled(t, "Create")
}

func TestRelationshipService_NeighborsFollowsOutgoingEdges(t *testing.T) {
	relationships := new(mockRelationshipRepo)
	records := new(mockRecordRepo)
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	contactID := uuid.New()
	companyID := uuid.New()
	dealID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleMember)

	records.On("GetByID", mock.Anything, workspaceID, contactID).Return(&domain.Record{ID: contactID, WorkspaceID: workspaceID}, nil)
	records.On("GetByID", mock.Anything, workspaceID, companyID).Return(&domain.Record{ID: companyID, WorkspaceID: workspaceID}, nil)

	relationships.On("ListByRecord", mock.Anything, workspaceID, contactID).Return([]domain.Relationship{
		{FromRecordID: contactID, ToRecordID: companyID, Type: "works_at"},
		{FromRecordID: contactID, ToRecordID: dealID, Type: "involved_in"},
		{FromRecordID: dealID, ToRecordID: contactID, Type: "involved_in"},
	}, nil)

	svc := newRelationshipService(relationships, records, members)

	neighbors, err := svc.Neighbors(context.Background(), userID, workspaceID, contactID, "works_at")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	assert.Equal(t, companyID, neighbors[0].ID)
	// The incoming edge and the filtered-out type are never fetched.
	records.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestRelationshipService_NeighborsSkipsDeletedTargets(t *testing.T) {
	relationships := new(mockRelationshipRepo)
	records := new(mockRecordRepo)
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	contactID := uuid.New()
	goneID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleMember)

	records.On("GetByID", mock.Anything, workspaceID, contactID).Return(&domain.Record{ID: contactID, WorkspaceID: workspaceID}, nil)
	records.On("GetByID", mock.Anything, workspaceID, goneID).Return(nil, nil)

	relationships.On("ListByRecord", mock.Anything, workspaceID, contactID).Return([]domain.Relationship{
		{FromRecordID: contactID, ToRecordID: goneID, Type: "works_at"},
	}, nil)

	svc := newRelationshipService(relationships, records, members)

	neighbors, err := svc.Neighbors(context.Background(), userID, workspaceID, contactID, "")
	require.NoError(t, err)
	assert.Empty(t, neighbors)
}
