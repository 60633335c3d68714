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

func TestWorkspaceService_Create(t *testing.T) {
	workspaces := new(mockWorkspaceRepo)
	members := new(mockMemberRepo)
	svc := NewWorkspaceService(workspaces, NewAuthorizer(members, nil))

	userID := uuid.New()
	workspaces.On("Create", mock.Anything, mock.MatchedBy(func(w *domain.Workspace) bool {
		return w.Slug == "acme-sales" && w.OwnerID == userID &&
			w.SubscriptionTier == domain.TierFree && w.IsActive
	})).Return(nil)

	workspace, err := svc.Create(context.Background(), userID, domain.WorkspaceCreate{
		Name: "Acme Sales",
		Slug: "Acme Sales!",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-sales", workspace.Slug)
	assert.Equal(t, userID, workspace.OwnerID)
	workspaces.AssertExpectations(t)
}

func TestWorkspaceService_CreateDuplicateSlug(t *testing.T) {
	workspaces := new(mockWorkspaceRepo)
	members := new(mockMemberRepo)
	svc := NewWorkspaceService(workspaces, NewAuthorizer(members, nil))

	workspaces.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicate)

	_, err := svc.Create(context.Background(), uuid.New(), domain.WorkspaceCreate{
		Name: "Acme",
		Slug: "acme",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Contains(t, err.Error(), "acme")
}

func TestWorkspaceService_DeleteRequiresOwner(t *testing.T) {
	workspaces := new(mockWorkspaceRepo)
	members := new(mockMemberRepo)
	svc := NewWorkspaceService(workspaces, NewAuthorizer(members, nil))

	workspaceID := uuid.New()
	adminID := uuid.New()
	memberOf(members, workspaceID, adminID, domain.RoleAdmin)

	err := svc.Delete(context.Background(), adminID, workspaceID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	workspaces.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestWorkspaceService_DeleteAsOwner(t *testing.T) {
	workspaces := new(mockWorkspaceRepo)
	members := new(mockMemberRepo)
	svc := NewWorkspaceService(workspaces, NewAuthorizer(members, nil))

	workspaceID := uuid.New()
	ownerID := uuid.New()
	memberOf(members, workspaceID, ownerID, domain.RoleOwner)
	workspaces.On("Delete", mock.Anything, workspaceID).Return(nil)

	err := svc.Delete(context.Background(), ownerID, workspaceID)
	require.NoError(t, err)
	workspaces.AssertExpectations(t)
}

func TestWorkspaceService_GetHidesWorkspaceFromOutsiders(t *testing.T) {
	workspaces := new(mockWorkspaceRepo)
	members := new(mockMemberRepo)
	svc := NewWorkspaceService(workspaces, NewAuthorizer(members, nil))

	workspaceID := uuid.New()
	userID := uuid.New()
	outsider(members, workspaceID, userID)

	_, err := svc.GetByID(context.Background(), userID, workspaceID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	workspaces.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Sales", "acme-sales"},
		{"  Trimmed  ", "trimmed"},
		{"Weird!@#Chars", "weirdchars"},
		{"many   spaces", "many-spaces"},
		{"--edges--", "edges"},
		{"already-fine-123", "already-fine-123"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "slugify %q", tt.in)
	}
}
