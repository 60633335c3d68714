package service

import (
	"context"
	"fmt"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// MemberService handles workspace membership operations
type MemberService struct {
	members domain.MemberRepository
	users   domain.UserRepository
	authz   *Authorizer
}

// NewMemberService creates a new member service
func NewMemberService(members domain.MemberRepository, users domain.UserRepository, authz *Authorizer) *MemberService {
	return &MemberService{members: members, users: users, authz: authz}
}

// MemberDetail is a membership joined with the user's profile
type MemberDetail struct {
	domain.Member
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// List retrieves the members of a workspace with their profiles
func (s *MemberService) List(ctx context.Context, actorID, workspaceID uuid.UUID) ([]MemberDetail, error) {
	if _, err := s.authz.Require(ctx, workspaceID, actorID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	members, err := s.members.List(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	details := make([]MemberDetail, 0, len(members))
	for _, member := range members {
		detail := MemberDetail{Member: member}
		user, err := s.users.GetByID(ctx, member.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load member profile: %w", err)
		}
		if user != nil {
			detail.Email = user.Email
			detail.FullName = user.FullName
		}
		details = append(details, detail)
	}

	return details, nil
}

// Invite adds an existing user to the workspace by email. Ownership
// is never granted by invite.
func (s *MemberService) Invite(ctx context.Context, actorID, workspaceID uuid.UUID, invite domain.MemberInvite) (*domain.Member, error) {
	if _, err := s.authz.Require(ctx, workspaceID, actorID, domain.CapManageMembers); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, invite.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: no account for %s", domain.ErrNotFound, invite.Email)
	}

	member := &domain.Member{
		WorkspaceID: workspaceID,
		UserID:      user.ID,
		Role:        invite.Role,
		InvitedBy:   &actorID,
		JoinedAt:    time.Now().UTC(),
	}

	if err := s.members.Add(ctx, member); err != nil {
		if err == domain.ErrDuplicate {
			return nil, fmt.Errorf("%w: %s is already a member", domain.ErrDuplicate, invite.Email)
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.authz.Forget(ctx, workspaceID, user.ID)
	return member, nil
}

// ChangeRole changes a member's role, owner only. The owner's own
// membership is immutable so a workspace always has its owner.
func (s *MemberService) ChangeRole(ctx context.Context, actorID, workspaceID, userID uuid.UUID, role domain.Role) error {
	if _, err := s.authz.Require(ctx, workspaceID, actorID, domain.CapChangeMemberRole); err != nil {
		return err
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return fmt.Errorf("%w: role %q cannot be assigned", domain.ErrForbidden, role)
	}

	target, err := s.members.Get(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if target == nil {
		return domain.ErrNotFound
	}
	if target.Role == domain.RoleOwner {
		return fmt.Errorf("%w: the owner role cannot be changed", domain.ErrProtected)
	}

	if err := s.members.UpdateRole(ctx, workspaceID, userID, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	s.authz.Forget(ctx, workspaceID, userID)
	return nil
}

// Remove removes a member. Members may remove themselves; removing
// others requires admin. The owner can never be removed.
func (s *MemberService) Remove(ctx context.Context, actorID, workspaceID, userID uuid.UUID) error {
	if actorID == userID {
		if _, err := s.authz.Require(ctx, workspaceID, actorID, domain.CapViewRecords); err != nil {
			return err
		}
	} else {
		if _, err := s.authz.Require(ctx, workspaceID, actorID, domain.CapManageMembers); err != nil {
			return err
		}
	}

	target, err := s.members.Get(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	if target == nil {
		return domain.ErrNotFound
	}
	if target.Role == domain.RoleOwner {
		return fmt.Errorf("%w: the owner cannot leave their workspace", domain.ErrProtected)
	}

	if err := s.members.Remove(ctx, workspaceID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.authz.Forget(ctx, workspaceID, userID)
	return nil
}
