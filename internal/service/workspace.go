package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/crmforge/crmforge/internal/domain"
	"github.com/google/uuid"
)

// WorkspaceService handles workspace operations
type WorkspaceService struct {
	workspaces domain.WorkspaceRepository
	authz      *Authorizer
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(workspaces domain.WorkspaceRepository, authz *Authorizer) *WorkspaceService {
	return &WorkspaceService{workspaces: workspaces, authz: authz}
}

// Create creates a new workspace owned by the caller
func (s *WorkspaceService) Create(ctx context.Context, userID uuid.UUID, input domain.WorkspaceCreate) (*domain.Workspace, error) {
	tier := input.SubscriptionTier
	if tier == "" {
		tier = domain.TierFree
	}

	now := time.Now().UTC()
	workspace := &domain.Workspace{
		ID:               uuid.New(),
		Name:             input.Name,
		Slug:             Slugify(input.Slug),
		Description:      input.Description,
		OwnerID:          userID,
		SubscriptionTier: tier,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if workspace.Slug == "" {
		return nil, fmt.Errorf("%w: slug has no usable characters", domain.ErrDuplicate)
	}

	if err := s.workspaces.Create(ctx, workspace); err != nil {
		if err == domain.ErrDuplicate {
			return nil, fmt.Errorf("%w: slug %q is taken", domain.ErrDuplicate, workspace.Slug)
		}
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return workspace, nil
}

// GetByID retrieves a workspace, requiring membership
func (s *WorkspaceService) GetByID(ctx context.Context, userID, workspaceID uuid.UUID) (*domain.Workspace, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapViewRecords); err != nil {
		return nil, err
	}

	workspace, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if workspace == nil {
		return nil, domain.ErrNotFound
	}

	return workspace, nil
}

// ListByUser retrieves all workspaces the caller belongs to
func (s *WorkspaceService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	workspaces, err := s.workspaces.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// Update updates a workspace, requiring admin
func (s *WorkspaceService) Update(ctx context.Context, userID, workspaceID uuid.UUID, input domain.WorkspaceUpdate) (*domain.Workspace, error) {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapManageWorkspace); err != nil {
		return nil, err
	}

	if err := s.workspaces.Update(ctx, workspaceID, &input); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	workspace, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if workspace == nil {
		return nil, domain.ErrNotFound
	}

	return workspace, nil
}

// Delete removes a workspace and all its contents, owner only
func (s *WorkspaceService) Delete(ctx context.Context, userID, workspaceID uuid.UUID) error {
	if _, err := s.authz.Require(ctx, workspaceID, userID, domain.CapDeleteWorkspace); err != nil {
		return err
	}

	if err := s.workspaces.Delete(ctx, workspaceID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	s.authz.ForgetWorkspace(ctx, workspaceID)
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]+`)
var slugDashes = regexp.MustCompile(`-+`)

// Slugify normalizes a string into a URL-safe slug
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = slugStrip.ReplaceAllString(s, "")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
