package service

import (
	"context"
	"testing"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoleCache is an in-memory RoleCache for authorizer tests.
type fakeRoleCache struct {
	roles map[string]domain.Role
}

func newFakeRoleCache() *fakeRoleCache {
	return &fakeRoleCache{roles: make(map[string]domain.Role)}
}

func (c *fakeRoleCache) key(workspaceID, userID uuid.UUID) string {
	return workspaceID.String() + ":" + userID.String()
}

func (c *fakeRoleCache) Get(_ context.Context, workspaceID, userID uuid.UUID) (domain.Role, bool) {
	role, ok := c.roles[c.key(workspaceID, userID)]
	return role, ok
}

func (c *fakeRoleCache) Set(_ context.Context, workspaceID, userID uuid.UUID, role domain.Role) error {
	c.roles[c.key(workspaceID, userID)] = role
	return nil
}

func (c *fakeRoleCache) Invalidate(_ context.Context, workspaceID, userID uuid.UUID) error {
	delete(c.roles, c.key(workspaceID, userID))
	return nil
}

func (c *fakeRoleCache) InvalidateWorkspace(_ context.Context, workspaceID uuid.UUID) error {
	for key := range c.roles {
		if len(key) > 36 && key[:36] == workspaceID.String() {
			delete(c.roles, key)
		}
	}
	return nil
}

func TestAuthorizer_NonMemberGetsNotFound(t *testing.T) {
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	outsider(members, workspaceID, userID)

	authz := NewAuthorizer(members, nil)

	_, err := authz.Require(context.Background(), workspaceID, userID, domain.CapViewRecords)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	members.AssertExpectations(t)
}

func TestAuthorizer_MemberCannotManageSchema(t *testing.T) {
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleMember)

	authz := NewAuthorizer(members, nil)

	_, err := authz.Require(context.Background(), workspaceID, userID, domain.CapManageSchema)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAuthorizer_AdminCanManageSchema(t *testing.T) {
	members := new(mockMemberRepo)
	workspaceID := uuid.New()
	userID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleAdmin)

	authz := NewAuthorizer(members, nil)

	role, err := authz.Require(context.Background(), workspaceID, userID, domain.CapManageSchema)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestAuthorizer_RoleOrdering(t *testing.T) {
	// Each higher role must grant everything the lower roles grant.
	tests := []struct {
		role       domain.Role
		capability domain.Capability
		allowed    bool
	}{
		{domain.RoleMember, domain.CapViewRecords, true},
		{domain.RoleMember, domain.CapEditRecords, true},
		{domain.RoleMember, domain.CapPurgeRecords, false},
		{domain.RoleMember, domain.CapManageMembers, false},
		{domain.RoleMember, domain.CapDeleteWorkspace, false},
		{domain.RoleAdmin, domain.CapEditRecords, true},
		{domain.RoleAdmin, domain.CapManageSchema, true},
		{domain.RoleAdmin, domain.CapManageMembers, true},
		{domain.RoleAdmin, domain.CapChangeMemberRole, false},
		{domain.RoleAdmin, domain.CapDeleteWorkspace, false},
		{domain.RoleOwner, domain.CapViewRecords, true},
		{domain.RoleOwner, domain.CapChangeMemberRole, true},
		{domain.RoleOwner, domain.CapDeleteWorkspace, true},
		{domain.Role("superuser"), domain.CapViewRecords, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.role.Can(tt.capability),
			"role %s capability %s", tt.role, tt.capability)
	}
}

func TestAuthorizer_CacheSkipsRepoLookup(t *testing.T) {
	members := new(mockMemberRepo)
	cache := newFakeRoleCache()
	workspaceID := uuid.New()
	userID := uuid.New()
	memberOf(members, workspaceID, userID, domain.RoleAdmin)

	authz := NewAuthorizer(members, cache)
	ctx := context.Background()

	// First call populates the cache.
	role, err := authz.Role(ctx, workspaceID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)

	// Second call is served from the cache.
	role, err = authz.Role(ctx, workspaceID, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, role)
	members.AssertNumberOfCalls(t, "Get", 1)

	// Invalidation sends the next lookup back to the repo.
	authz.Forget(ctx, workspaceID, userID)
	_, err = authz.Role(ctx, workspaceID, userID)
	require.NoError(t, err)
	members.AssertNumberOfCalls(t, "Get", 2)
}
