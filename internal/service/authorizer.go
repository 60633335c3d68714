package service

import (
	"context"
	"fmt"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// RoleCache caches membership lookups. The redis implementation
// satisfies this; a nil cache disables caching.
type RoleCache interface {
	Get(ctx context.Context, workspaceID, userID uuid.UUID) (domain.Role, bool)
	Set(ctx context.Context, workspaceID, userID uuid.UUID, role domain.Role) error
	Invalidate(ctx context.Context, workspaceID, userID uuid.UUID) error
	InvalidateWorkspace(ctx context.Context, workspaceID uuid.UUID) error
}

// Authorizer resolves a user's role in a workspace and gates every
// capability check. Checks fail closed: a missing membership reads as
// not found so outsiders cannot distinguish a workspace they were
// never invited to from one that does not exist.
type Authorizer struct {
	members domain.MemberRepository
	cache   RoleCache
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(members domain.MemberRepository, cache RoleCache) *Authorizer {
	return &Authorizer{members: members, cache: cache}
}

// Require resolves the user's role and checks it grants the
// capability. Returns the role so callers can make further decisions
// without a second lookup.
func (a *Authorizer) Require(ctx context.Context, workspaceID, userID uuid.UUID, cap domain.Capability) (domain.Role, error) {
	role, err := a.Role(ctx, workspaceID, userID)
	if err != nil {
		return "", err
	}

	if !role.Can(cap) {
		return "", fmt.Errorf("%w: %s requires a higher role", domain.ErrForbidden, cap)
	}

	return role, nil
}

// Role resolves the user's role in a workspace, consulting the cache
// first. Non-members get not found.
func (a *Authorizer) Role(ctx context.Context, workspaceID, userID uuid.UUID) (domain.Role, error) {
	if a.cache != nil {
		if role, ok := a.cache.Get(ctx, workspaceID, userID); ok {
			return role, nil
		}
	}

	member, err := a.members.Get(ctx, workspaceID, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve membership: %w", err)
	}
	if member == nil {
		return "", domain.ErrNotFound
	}
	if !member.Role.Valid() {
		return "", domain.ErrForbidden
	}

	if a.cache != nil {
		a.cache.Set(ctx, workspaceID, userID, member.Role)
	}

	return member.Role, nil
}

// Forget drops one member's cached role after a membership mutation
func (a *Authorizer) Forget(ctx context.Context, workspaceID, userID uuid.UUID) {
	if a.cache != nil {
		a.cache.Invalidate(ctx, workspaceID, userID)
	}
}

// ForgetWorkspace drops all cached roles of a workspace
func (a *Authorizer) ForgetWorkspace(ctx context.Context, workspaceID uuid.UUID) {
	if a.cache != nil {
		a.cache.InvalidateWorkspace(ctx, workspaceID)
	}
}
