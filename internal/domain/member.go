package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a workspace member's role. Roles are totally ordered
// (member < admin < owner): each higher role implies every capability
// of the lower roles.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

func (r Role) level() int {
	switch r {
	case RoleMember:
		return 1
	case RoleAdmin:
		return 2
	case RoleOwner:
		return 3
	}
	return 0
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r.level() > 0
}

// AtLeast reports whether the role ranks at or above the other role.
// An unknown role ranks below everything, so checks fail closed.
func (r Role) AtLeast(other Role) bool {
	return r.level() >= other.level() && r.level() > 0
}

// Capability enumerates the actions gated by the role table.
type Capability int

const (
	CapViewRecords Capability = iota
	CapEditRecords
	CapPurgeRecords
	CapManageSchema
	CapDeleteEntity
	CapManageWorkspace
	CapManageMembers
	CapChangeMemberRole
	CapDeleteWorkspace
)

var capabilityNames = map[Capability]string{
	CapViewRecords:      "view records",
	CapEditRecords:      "edit records",
	CapPurgeRecords:     "permanently delete records",
	CapManageSchema:     "manage entities and automations",
	CapDeleteEntity:     "delete entity",
	CapManageWorkspace:  "update workspace settings",
	CapManageMembers:    "manage members",
	CapChangeMemberRole: "change member role",
	CapDeleteWorkspace:  "delete workspace",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown capability"
}

// capabilityMinRole is the capability table: the weakest role allowed
// to perform each action.
var capabilityMinRole = map[Capability]Role{
	CapViewRecords:      RoleMember,
	CapEditRecords:      RoleMember,
	CapPurgeRecords:     RoleAdmin,
	CapManageSchema:     RoleAdmin,
	CapDeleteEntity:     RoleAdmin,
	CapManageWorkspace:  RoleAdmin,
	CapManageMembers:    RoleAdmin,
	CapChangeMemberRole: RoleOwner,
	CapDeleteWorkspace:  RoleOwner,
}

// Can reports whether the role grants the capability. Unknown
// capabilities are denied.
func (r Role) Can(c Capability) bool {
	min, ok := capabilityMinRole[c]
	if !ok {
		return false
	}
	return r.AtLeast(min)
}

// Member associates a user with a workspace and a role. Composite
// identity is (workspace, user); exactly one owner exists at creation.
type Member struct {
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Role        Role       `json:"role"`
	InvitedBy   *uuid.UUID `json:"invited_by,omitempty"`
	JoinedAt    time.Time  `json:"joined_at"`
}

// MemberInvite represents an invite-by-email request. Only admin and
// member are assignable; ownership is established at workspace
// creation and never granted by invite.
type MemberInvite struct {
	Email string `json:"email" validate:"required,email"`
	Role  Role   `json:"role" validate:"required,oneof=admin member"`
}

// UserProfile mirrors the identity provider's view of a user; the
// core stores no credentials.
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
