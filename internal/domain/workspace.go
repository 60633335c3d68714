package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier enumerates workspace billing tiers.
type SubscriptionTier string

const (
	TierFree         SubscriptionTier = "free"
	TierStarter      SubscriptionTier = "starter"
	TierProfessional SubscriptionTier = "professional"
	TierEnterprise   SubscriptionTier = "enterprise"
)

// Workspace is the tenant boundary. Every other resource carries a
// workspace ID and no cross-workspace reference is ever permitted.
type Workspace struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description,omitempty"`
	OwnerID          uuid.UUID        `json:"owner_id"`
	Config           map[string]any   `json:"config,omitempty"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// WorkspaceCreate represents workspace creation data.
type WorkspaceCreate struct {
	Name             string           `json:"name" validate:"required,max=100"`
	Slug             string           `json:"slug" validate:"required,max=100"`
	Description      string           `json:"description,omitempty" validate:"max=500"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier,omitempty" validate:"omitempty,oneof=free starter professional enterprise"`
}

// WorkspaceUpdate represents workspace update data.
type WorkspaceUpdate struct {
	Name        *string        `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	Config      map[string]any `json:"config,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}
